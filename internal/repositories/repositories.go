package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// owner returns the user every statement is scoped to.
func owner(s *models.Session) (string, error) {
	if s == nil || s.User.ID == "" {
		return "", shared.NewError(shared.ErrNotAuthenticated, shared.MsgNotAuthenticated, nil)
	}
	return s.User.ID, nil
}

// prepareEntry stamps the owner, a generated id and a creation time on e before validating it.
func prepareEntry(s *models.Session, e models.CollectionEntry) (models.CollectionEntry, error) {
	userID, err := owner(s)
	if err != nil {
		return e, err
	}
	e.UserID = userID
	if e.ID == "" {
		e.ID = shared.GenerateID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return e, fmt.Errorf("validation failed: %w", err)
	}
	return e, nil
}

// scanner is the subset of *sql.Rows and pgx.Rows used to read an entry.
type scanner interface {
	Scan(dest ...any) error
}

const entryColumns = "id, user_id, book_id, list_name, created_at"

func scanEntry(row scanner) (models.CollectionEntry, error) {
	var (
		e        models.CollectionEntry
		listName string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.BookID, &listName, &e.CreatedAt); err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}
	e.ListName = models.ListName(listName)
	return e, nil
}

// withTimeout bounds a single statement when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
