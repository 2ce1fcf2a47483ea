package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// SQLiteStore implements [models.EntryStore] over a database opened with [shared.NewDatabase].
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps db. The book_lists migration must already be applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLiteStore opens the database at path, applies pending migrations and sizes the pool.
func OpenSQLiteStore(ctx context.Context, path string, maxOpen, maxIdle int) (*SQLiteStore, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, maxOpen, maxIdle)

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewSQLiteStore(db), nil
}

// DB exposes the underlying handle for migration commands.
func (r *SQLiteStore) DB() *sql.DB { return r.db }

func (r *SQLiteStore) Insert(ctx context.Context, s *models.Session, e models.CollectionEntry) error {
	e, err := prepareEntry(s, e)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO book_lists (id, user_id, book_id, list_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.UserID, e.BookID, string(e.ListName), e.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (r *SQLiteStore) UpdateList(ctx context.Context, s *models.Session, m models.Move) (int64, error) {
	userID, err := owner(s)
	if err != nil {
		return 0, err
	}

	query := "UPDATE book_lists SET list_name = ? WHERE user_id = ? AND book_id = ?"
	args := []any{string(m.To), userID, m.BookID}
	if m.Conditional {
		query += " AND list_name = ?"
		args = append(args, string(m.From))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func (r *SQLiteStore) ListByUser(ctx context.Context, s *models.Session) ([]models.CollectionEntry, error) {
	userID, err := owner(s)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + entryColumns + " FROM book_lists WHERE user_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []models.CollectionEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

func (r *SQLiteStore) Close() error {
	return r.db.Close()
}
