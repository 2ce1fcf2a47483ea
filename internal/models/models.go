package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/shelf/internal/shared"
)

// ListName is one of the three reading lists.
type ListName string

const (
	WantToRead ListName = "want-to-read"
	Reading    ListName = "reading"
	Finished   ListName = "finished"
)

// Lists is the closed set of list names in display order.
var Lists = []ListName{WantToRead, Reading, Finished}

// ParseListName validates s against the closed set of list names.
func ParseListName(s string) (ListName, error) {
	switch l := ListName(strings.TrimSpace(s)); l {
	case WantToRead, Reading, Finished:
		return l, nil
	}
	return "", shared.NewError(shared.ErrValidation, shared.MsgInvalidListName, fmt.Errorf("unknown list %q", s))
}

// ListForKey maps the action keys "1", "2" and "3" to a list.
func ListForKey(key string) (ListName, bool) {
	for _, l := range Lists {
		if l.Key() == key {
			return l, true
		}
	}
	return "", false
}

func (l ListName) String() string { return string(l) }

// Label is the human readable list name.
func (l ListName) Label() string {
	switch l {
	case WantToRead:
		return "Want to read"
	case Reading:
		return "Reading"
	case Finished:
		return "Finished"
	default:
		return string(l)
	}
}

// Key is the action key bound to the list.
func (l ListName) Key() string {
	switch l {
	case WantToRead:
		return "1"
	case Reading:
		return "2"
	case Finished:
		return "3"
	default:
		return ""
	}
}

// Book is a catalog volume. Identity is ID.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (b Book) DisplayTitle() string {
	if b.Title == "" {
		return "Unknown title"
	}
	return b.Title
}

func (b Book) DisplayAuthors() string {
	if len(b.Authors) == 0 {
		return "Unknown author"
	}
	return strings.Join(b.Authors, ", ")
}

func (b Book) DisplayDescription() string {
	if b.Description == "" {
		return "No description available"
	}
	return b.Description
}

// User is the identity service's view of the signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an immutable snapshot of an authenticated session.
//
// Holders never mutate a Session after it has been published; a new sign-in or refresh produces a new value.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now. A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// CollectionEntry is one row of the book_lists table.
type CollectionEntry struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	ListName  ListName  `json:"list_name"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Validate checks the fields a backend needs before inserting the entry.
func (e CollectionEntry) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if e.BookID == "" {
		return shared.Validation(shared.MsgEmptyBookID)
	}
	if _, err := ParseListName(string(e.ListName)); err != nil {
		return err
	}
	return nil
}

// CollectionItem is an entry joined with its catalog detail.
type CollectionItem struct {
	Entry CollectionEntry `json:"entry"`
	Book  Book            `json:"book"`
}

// Buckets partitions collection items by list name.
//
// Every list in [Lists] is present, possibly empty.
type Buckets map[ListName][]CollectionItem

// NewBuckets returns empty buckets for every list.
func NewBuckets() Buckets {
	b := make(Buckets, len(Lists))
	for _, l := range Lists {
		b[l] = []CollectionItem{}
	}
	return b
}

// Clone returns a copy whose slices do not share backing arrays with b.
func (b Buckets) Clone() Buckets {
	out := NewBuckets()
	for l, items := range b {
		out[l] = append([]CollectionItem{}, items...)
	}
	return out
}

// Len is the total number of items across every list.
func (b Buckets) Len() int {
	n := 0
	for _, items := range b {
		n += len(items)
	}
	return n
}

// Find returns the list holding bookID, if any.
func (b Buckets) Find(bookID string) (ListName, bool) {
	for _, l := range Lists {
		for _, it := range b[l] {
			if it.Entry.BookID == bookID {
				return l, true
			}
		}
	}
	return "", false
}

// Move is a request to change the list of one (user, book) entry.
//
// When Conditional is set the backend only updates a row whose list is still From.
type Move struct {
	BookID      string
	From        ListName
	To          ListName
	Conditional bool
}

// EntryStore is the persistence contract for the book_lists table.
//
// Every method is scoped to the session's user. UpdateList returns the number of rows it changed.
type EntryStore interface {
	Insert(ctx context.Context, s *Session, e CollectionEntry) error
	UpdateList(ctx context.Context, s *Session, m Move) (int64, error)
	ListByUser(ctx context.Context, s *Session) ([]CollectionEntry, error)
	Close() error
}
