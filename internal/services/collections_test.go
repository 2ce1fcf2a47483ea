package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	tu "github.com/desertthunder/shelf/internal/testing"
)

func TestCollectionStore(t *testing.T) {
	ctx := context.Background()
	alice := tu.NewSession("alice")

	t.Run("AddToList", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		store := NewCollectionStore(backend, "", nil)

		if err := store.AddToList(ctx, alice, "b1", models.Reading); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rows := backend.Rows()
		if len(rows) != 1 || rows[0].UserID != "alice" || rows[0].ListName != models.Reading {
			t.Errorf("unexpected rows %+v", rows)
		}
	})

	t.Run("AddToList Duplicate", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		store := NewCollectionStore(backend, "", nil)

		if err := store.AddToList(ctx, alice, "b1", models.WantToRead); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := store.AddToList(ctx, alice, "b1", models.Finished)
		if !errors.Is(err, shared.ErrDuplicateEntry) {
			t.Fatalf("expected duplicate entry, got %v", err)
		}
		if shared.UserMessage(err) != shared.Message(shared.MsgDuplicateEntry) {
			t.Errorf("unexpected message %q", shared.UserMessage(err))
		}
		if n := len(backend.Rows()); n != 1 {
			t.Errorf("expected the table unchanged, got %d rows", n)
		}
	})

	t.Run("AddToList Invalid List Never Reaches Backend", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		store := NewCollectionStore(backend, "", nil)

		if err := store.AddToList(ctx, alice, "b1", "abandoned"); !errors.Is(err, shared.ErrInvalidListName) {
			t.Errorf("expected invalid list name, got %v", err)
		}
		if backend.Inserts.Load() != 0 {
			t.Error("expected no insert")
		}
	})

	t.Run("Requires Session", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		store := NewCollectionStore(backend, "", nil)

		if err := store.AddToList(ctx, nil, "b1", models.Reading); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("AddToList: expected not authenticated, got %v", err)
		}
		if err := store.MoveToList(ctx, nil, "b1", models.Reading, models.Finished); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("MoveToList: expected not authenticated, got %v", err)
		}
		if _, err := store.ListForUser(ctx, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("ListForUser: expected not authenticated, got %v", err)
		}
		if backend.Inserts.Load()+backend.Updates.Load()+backend.Selects.Load() != 0 {
			t.Error("expected zero backend calls without a session")
		}
	})

	t.Run("Not Connected", func(t *testing.T) {
		store := NewCollectionStore(nil, "", nil)
		if store.Connected() {
			t.Fatal("expected disconnected store")
		}
		if err := store.AddToList(ctx, alice, "b1", models.Reading); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected not connected, got %v", err)
		}
	})

	t.Run("MoveToList Last Writer Wins", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		backend.Seed(models.CollectionEntry{UserID: "alice", BookID: "b1", ListName: models.Finished})
		store := NewCollectionStore(backend, shared.MoveLastWriterWins, nil)

		if err := store.MoveToList(ctx, alice, "b1", models.WantToRead, models.Reading); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if backend.Updates.Load() != 1 {
			t.Errorf("expected exactly one update, got %d", backend.Updates.Load())
		}
		if got := backend.Rows()[0].ListName; got != models.Reading {
			t.Errorf("expected stale from to be ignored and row moved to reading, got %s", got)
		}
	})

	t.Run("MoveToList Conditional Stale", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		backend.Seed(models.CollectionEntry{UserID: "alice", BookID: "b1", ListName: models.Finished})
		store := NewCollectionStore(backend, shared.MoveConditional, nil)

		err := store.MoveToList(ctx, alice, "b1", models.WantToRead, models.Reading)
		if !errors.Is(err, shared.ErrStaleMove) {
			t.Fatalf("expected stale move, got %v", err)
		}
		if got := backend.Rows()[0].ListName; got != models.Finished {
			t.Errorf("expected row untouched, got %s", got)
		}

		if err := store.MoveToList(ctx, alice, "b1", models.Finished, models.Reading); err != nil {
			t.Errorf("expected matching move to succeed, got %v", err)
		}
	})

	t.Run("MoveToList Same List", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		store := NewCollectionStore(backend, "", nil)

		if err := store.MoveToList(ctx, alice, "b1", models.Reading, models.Reading); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if backend.Updates.Load() != 0 {
			t.Error("expected no update for a same-list move")
		}
	})

	t.Run("ListForUser", func(t *testing.T) {
		backend := &tu.FakeEntryStore{}
		backend.Seed(
			models.CollectionEntry{UserID: "alice", BookID: "b1", ListName: models.Reading},
			models.CollectionEntry{UserID: "bob", BookID: "b2", ListName: models.Reading},
		)
		store := NewCollectionStore(backend, "", nil)

		entries, err := store.ListForUser(ctx, alice)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != 1 || entries[0].BookID != "b1" {
			t.Errorf("expected only alice's entry, got %+v", entries)
		}

		empty, err := store.ListForUser(ctx, tu.NewSession("carol"))
		if err != nil || empty == nil || len(empty) != 0 {
			t.Errorf("expected empty non-nil slice, got %v, %v", empty, err)
		}
	})

	t.Run("ListForUser Failure Translated", func(t *testing.T) {
		backend := &tu.FakeEntryStore{ListErr: errors.New("connection reset")}
		store := NewCollectionStore(backend, "", nil)

		if _, err := store.ListForUser(ctx, alice); !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected transport error, got %v", err)
		}
	})
}
