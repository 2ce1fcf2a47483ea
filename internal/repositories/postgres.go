package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultStatementTimeout = 5 * time.Second

// PostgresStore implements [models.EntryStore] over a pgx pool.
type PostgresStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresStore wraps an existing pool. A non-positive timeout disables the per-statement bound.
func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

// OpenPostgresStore connects to dsn, caps the pool at maxConns when positive and ensures the schema exists.
func OpenPostgresStore(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: store dsn: %v", shared.ErrInvalidConfig, err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresStore(pool, defaultStatementTimeout)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Migrate runs every embedded up script. The scripts are idempotent.
func (r *PostgresStore) Migrate(ctx context.Context) error {
	migrations, err := shared.LoadMigrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := r.db.Exec(ctx, m.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func (r *PostgresStore) Insert(ctx context.Context, s *models.Session, e models.CollectionEntry) error {
	e, err := prepareEntry(s, e)
	if err != nil {
		return err
	}

	const insertSQL = `
		INSERT INTO book_lists (id, user_id, book_id, list_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, insertSQL, e.ID, e.UserID, e.BookID, string(e.ListName), e.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (r *PostgresStore) UpdateList(ctx context.Context, s *models.Session, m models.Move) (int64, error) {
	userID, err := owner(s)
	if err != nil {
		return 0, err
	}

	query := "UPDATE book_lists SET list_name = $1 WHERE user_id = $2 AND book_id = $3"
	args := []any{string(m.To), userID, m.BookID}
	if m.Conditional {
		query += " AND list_name = $4"
		args = append(args, string(m.From))
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update entry: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresStore) ListByUser(ctx context.Context, s *models.Session) ([]models.CollectionEntry, error) {
	userID, err := owner(s)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT " + entryColumns + " FROM book_lists WHERE user_id = $1 ORDER BY created_at ASC, id ASC"
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CollectionEntry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	if entries == nil {
		entries = []models.CollectionEntry{}
	}
	return entries, nil
}

func (r *PostgresStore) Close() error {
	r.db.Close()
	return nil
}
