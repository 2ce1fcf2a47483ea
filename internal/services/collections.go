package services

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// CollectionStore files books into the signed-in user's lists.
//
// It guards every call (backend configured, session present), validates input locally and
// translates backend failures through [shared.StoreTable].
type CollectionStore struct {
	backend models.EntryStore
	policy  string
	logger  *log.Logger
}

// NewCollectionStore wraps backend. A nil backend means not connected. An empty policy is last-writer-wins.
func NewCollectionStore(backend models.EntryStore, policy string, logger *log.Logger) *CollectionStore {
	if policy == "" {
		policy = shared.MoveLastWriterWins
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &CollectionStore{backend: backend, policy: policy, logger: logger}
}

// Connected reports whether a backend is configured.
func (c *CollectionStore) Connected() bool { return c.backend != nil }

// Policy is the configured move policy.
func (c *CollectionStore) Policy() string { return c.policy }

func (c *CollectionStore) guard(s *models.Session) error {
	if c.backend == nil {
		return notConnected()
	}
	if s == nil || s.User.ID == "" {
		return shared.NewError(shared.ErrNotAuthenticated, shared.MsgNotAuthenticated, nil)
	}
	return nil
}

func parseList(l models.ListName) (models.ListName, error) {
	parsed, err := models.ParseListName(string(l))
	if err != nil {
		return "", shared.NewError(shared.ErrInvalidListName, shared.MsgInvalidListName, err)
	}
	return parsed, nil
}

// AddToList creates the (user, book) entry in list.
//
// Fails with [shared.ErrDuplicateEntry] when the book is already in any list.
func (c *CollectionStore) AddToList(ctx context.Context, s *models.Session, bookID string, list models.ListName) error {
	if err := c.guard(s); err != nil {
		return err
	}
	if strings.TrimSpace(bookID) == "" {
		return shared.Validation(shared.MsgEmptyBookID)
	}
	list, err := parseList(list)
	if err != nil {
		return err
	}

	entry := models.CollectionEntry{UserID: s.User.ID, BookID: bookID, ListName: list}
	if err := c.backend.Insert(ctx, s, entry); err != nil {
		c.logger.Warn("add to list failed", "book", bookID, "list", list, "error", err)
		return shared.Translate(shared.StoreTable, err)
	}
	c.logger.Debug("added to list", "book", bookID, "list", list)
	return nil
}

// MoveToList issues one update setting the (user, book) entry's list to to.
//
// Under the conditional policy the update also requires the entry to still be in from, and
// [shared.ErrStaleMove] is returned when no row matched. Moving to the same list is a no-op.
func (c *CollectionStore) MoveToList(ctx context.Context, s *models.Session, bookID string, from, to models.ListName) error {
	if err := c.guard(s); err != nil {
		return err
	}
	if strings.TrimSpace(bookID) == "" {
		return shared.Validation(shared.MsgEmptyBookID)
	}
	to, err := parseList(to)
	if err != nil {
		return err
	}
	from, err = parseList(from)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}

	m := models.Move{BookID: bookID, From: from, To: to, Conditional: c.policy == shared.MoveConditional}
	n, err := c.backend.UpdateList(ctx, s, m)
	if err != nil {
		c.logger.Warn("move failed", "book", bookID, "from", from, "to", to, "error", err)
		return shared.Translate(shared.StoreTable, err)
	}

	if n == 0 {
		if m.Conditional {
			return shared.NewError(shared.ErrStaleMove, shared.MsgStaleMove, nil)
		}
		c.logger.Debug("move matched no rows", "book", bookID)
	}
	return nil
}

// ListForUser returns every entry of the session's user, unordered.
func (c *CollectionStore) ListForUser(ctx context.Context, s *models.Session) ([]models.CollectionEntry, error) {
	if err := c.guard(s); err != nil {
		return nil, err
	}

	entries, err := c.backend.ListByUser(ctx, s)
	if err != nil {
		c.logger.Warn("list entries failed", "error", err)
		return nil, shared.Translate(shared.StoreTable, err)
	}
	if entries == nil {
		entries = []models.CollectionEntry{}
	}
	return entries, nil
}

// Close releases the backend.
func (c *CollectionStore) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}
