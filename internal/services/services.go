// package services defines clients for the remote catalog, the identity service and the collection store
package services

import (
	"context"

	"github.com/desertthunder/shelf/internal/models"
)

// BookCatalog searches the public book catalog and fetches single volumes.
type BookCatalog interface {
	Search(ctx context.Context, query string) ([]models.Book, error)
	Volume(ctx context.Context, id string) (models.Book, error)
}

// Collections files books into the signed-in user's reading lists.
type Collections interface {
	AddToList(ctx context.Context, s *models.Session, bookID string, list models.ListName) error
	MoveToList(ctx context.Context, s *models.Session, bookID string, from, to models.ListName) error
	ListForUser(ctx context.Context, s *models.Session) ([]models.CollectionEntry, error)
	Connected() bool
}

// Authenticator is the surface of [AuthGateway] used by the presentation layer.
type Authenticator interface {
	Connected() bool
	CurrentSession() *models.Session
	Subscribe(onChange func(*models.Session)) func()
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) error
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (*OAuthRequest, error)
	CompleteOAuth(ctx context.Context, req *OAuthRequest, code string) error
	SignOut(ctx context.Context) error
	Reload(ctx context.Context) error
}

var (
	_ BookCatalog   = (*CatalogService)(nil)
	_ Collections   = (*CollectionStore)(nil)
	_ Authenticator = (*AuthGateway)(nil)

	_ IdentityProvider  = (*GoTrueProvider)(nil)
	_ models.EntryStore = (*PostgRESTStore)(nil)
	_ SessionStore      = (*FileSessionStore)(nil)
	_ SessionStore      = (*MemorySessionStore)(nil)
)
