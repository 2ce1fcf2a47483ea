// PostgREST backend for the book_lists table
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/supabase-community/postgrest-go"
)

const collectionTable = "book_lists"

// PostgRESTStore implements [models.EntryStore] against Supabase's REST endpoint.
//
// Row level security scopes every request to the bearer token's user; the user_id filter is
// still sent so the intent is explicit on the wire.
type PostgRESTStore struct {
	restURL string
	anonKey string
}

// NewPostgRESTStore creates a store for the Supabase project at supabaseURL.
func NewPostgRESTStore(supabaseURL, anonKey string) *PostgRESTStore {
	return &PostgRESTStore{
		restURL: strings.TrimRight(supabaseURL, "/") + "/rest/v1",
		anonKey: anonKey,
	}
}

// client builds a fresh client per call since the library keeps the auth header on a shared transport.
func (p *PostgRESTStore) client(s *models.Session) *postgrest.Client {
	c := postgrest.NewClient(p.restURL, "", map[string]string{"apikey": p.anonKey})
	if s != nil && s.AccessToken != "" {
		c.SetAuthToken(s.AccessToken)
	}
	return c
}

// Insert adds a row. The id is generated here since the table has no server-side default.
func (p *PostgRESTStore) Insert(ctx context.Context, s *models.Session, e models.CollectionEntry) error {
	if e.ID == "" {
		e.ID = shared.GenerateID()
	}
	row := map[string]string{
		"id":        e.ID,
		"user_id":   e.UserID,
		"book_id":   e.BookID,
		"list_name": string(e.ListName),
	}
	_, err := call(ctx, func() ([]byte, error) {
		body, _, err := p.client(s).From(collectionTable).Insert(row, false, "", "minimal", "").Execute()
		return body, err
	})
	return err
}

func (p *PostgRESTStore) UpdateList(ctx context.Context, s *models.Session, m models.Move) (int64, error) {
	body, err := call(ctx, func() ([]byte, error) {
		q := p.client(s).From(collectionTable).
			Update(map[string]string{"list_name": string(m.To)}, "representation", "").
			Eq("user_id", s.User.ID).
			Eq("book_id", m.BookID)
		if m.Conditional {
			q = q.Eq("list_name", string(m.From))
		}
		body, _, err := q.Execute()
		return body, err
	})
	if err != nil {
		return 0, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode update response: %w", err)
	}
	return int64(len(rows)), nil
}

func (p *PostgRESTStore) ListByUser(ctx context.Context, s *models.Session) ([]models.CollectionEntry, error) {
	body, err := call(ctx, func() ([]byte, error) {
		body, _, err := p.client(s).From(collectionTable).Select("*", "", false).Eq("user_id", s.User.ID).Execute()
		return body, err
	})
	if err != nil {
		return nil, err
	}

	var entries []models.CollectionEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, shared.NewError(shared.ErrProtocol, shared.MsgInvalidResponse, err)
	}
	return entries, nil
}

func (p *PostgRESTStore) Close() error { return nil }
