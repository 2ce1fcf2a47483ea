// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/shelf/internal/models"
)

// NewSession returns a signed-in session for userID that expires in an hour.
func NewSession(userID string) *models.Session {
	return &models.Session{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         models.User{ID: userID, Email: userID + "@example.com"},
	}
}

// FakeCatalog is an in-memory book catalog.
//
// Books maps identifiers to details, Errs forces a failure for an identifier. Lookups counts Volume calls.
type FakeCatalog struct {
	Books     map[string]models.Book
	Errs      map[string]error
	Results   []models.Book
	SearchErr error
	Delay     time.Duration

	Lookups  atomic.Int64
	Searches atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (f *FakeCatalog) Search(ctx context.Context, query string) ([]models.Book, error) {
	f.Searches.Add(1)
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.Results, nil
}

func (f *FakeCatalog) Volume(ctx context.Context, id string) (models.Book, error) {
	f.Lookups.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return models.Book{}, ctx.Err()
		}
	}

	if err, ok := f.Errs[id]; ok {
		return models.Book{}, err
	}
	if b, ok := f.Books[id]; ok {
		return b, nil
	}
	return models.Book{}, fmt.Errorf("volume %s not found", id)
}

// PeakConcurrency is the largest number of Volume calls observed in flight at once.
func (f *FakeCatalog) PeakConcurrency() int64 { return f.peak.Load() }

// FakeEntryStore is an in-memory book_lists table enforcing the (user, book) uniqueness and list name check.
type FakeEntryStore struct {
	mu      sync.Mutex
	rows    []models.CollectionEntry
	ListErr error

	Inserts atomic.Int64
	Updates atomic.Int64
	Selects atomic.Int64
}

// Seed inserts rows directly, bypassing constraints.
func (f *FakeEntryStore) Seed(rows ...models.CollectionEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
}

// Rows returns a copy of the table.
func (f *FakeEntryStore) Rows() []models.CollectionEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CollectionEntry{}, f.rows...)
}

func (f *FakeEntryStore) Insert(ctx context.Context, s *models.Session, e models.CollectionEntry) error {
	f.Inserts.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	switch e.ListName {
	case models.WantToRead, models.Reading, models.Finished:
	default:
		return errors.New(`new row for relation "book_lists" violates check constraint "book_lists_list_name_check"`)
	}
	for _, r := range f.rows {
		if r.UserID == e.UserID && r.BookID == e.BookID {
			return errors.New(`duplicate key value violates unique constraint "book_lists_user_id_book_id_key"`)
		}
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("entry-%d", len(f.rows)+1)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	f.rows = append(f.rows, e)
	return nil
}

func (f *FakeEntryStore) UpdateList(ctx context.Context, s *models.Session, m models.Move) (int64, error) {
	f.Updates.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for i, r := range f.rows {
		if r.UserID != s.User.ID || r.BookID != m.BookID {
			continue
		}
		if m.Conditional && r.ListName != m.From {
			continue
		}
		f.rows[i].ListName = m.To
		n++
	}
	return n, nil
}

func (f *FakeEntryStore) ListByUser(ctx context.Context, s *models.Session) ([]models.CollectionEntry, error) {
	f.Selects.Add(1)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.CollectionEntry
	for _, r := range f.rows {
		if r.UserID == s.User.ID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FakeEntryStore) Close() error { return nil }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Calls    atomic.Int64
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Calls.Add(1)
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
