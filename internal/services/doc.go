// Package services implements the remote clients behind shelf.
//
// # Catalog
//
// [CatalogService] wraps the Google Books v1 API: a search over /volumes and a detail lookup over
// /volumes/{id}. Empty queries fail locally, non-2xx responses are transport errors carrying the
// status text and bodies that are not JSON objects are protocol errors.
//
// # Identity
//
// [AuthGateway] is a thin pass-through to Supabase GoTrue (via [GoTrueProvider]). It validates
// sign-up input locally, translates remote failures with [shared.AuthTable] and never returns a
// session from sign-in. Sessions are published by the [SessionHub] and observed through
// Subscribe. OAuth uses PKCE: [AuthGateway.SignInWithOAuth] builds the authorize URL and
// [AuthGateway.CompleteOAuth] exchanges the code the local callback server receives.
//
// # Collections
//
// [CollectionStore] guards and translates calls to a [models.EntryStore] backend:
//   - [PostgRESTStore] : Supabase REST endpoint, authorized with the user's access token
//   - repositories.PostgresStore : direct pgx connection to the same table
//   - repositories.SQLiteStore : local file created by the embedded migrations
//
// Moves follow the configured policy. last-writer-wins updates the (user, book) row
// unconditionally, conditional also filters on the source list and reports a stale move when no
// row matched.
package services
