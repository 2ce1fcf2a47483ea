// Package repositories implements local SQL backends for the book_lists table.
//
// Both backends satisfy [models.EntryStore] and scope every statement to the session's user,
// standing in for the row-level security a hosted project enforces.
//
// Key Implementations:
//   - [SQLiteStore] : single-file store using the embedded migrations
//   - [PostgresStore] : pgx connection pool against a self-hosted Postgres
//
// Constraint violations are returned with the driver's own message so the collection store can
// classify them by substring.
package repositories
