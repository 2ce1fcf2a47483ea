// package tasks assembles a user's reading lists from stored entries and catalog details.
//
// The core abstraction is CollectionEngine, which fans out one detail lookup per entry and partitions the results.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"golang.org/x/sync/errgroup"
)

// LookupFailure records a detail lookup that was dropped from the assembled lists.
type LookupFailure struct {
	BookID string `json:"book_id"`
	Err    error  `json:"-"`
}

// AssemblyResult contains the partitioned lists and what could not be resolved.
type AssemblyResult struct {
	Buckets  models.Buckets  // Items per list; every list present
	Entries  int             // Entries returned by the store
	Failures []LookupFailure // Lookups that failed and were dropped
}

// CollectionEngine joins stored entries with catalog details.
type CollectionEngine struct {
	catalog services.BookCatalog
	store   services.Collections
	logger  *log.Logger
}

// NewCollectionEngine creates a CollectionEngine. A nil logger discards failures.
func NewCollectionEngine(catalog services.BookCatalog, store services.Collections, logger *log.Logger) *CollectionEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CollectionEngine{catalog: catalog, store: store, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Assemble fetches the session user's entries, looks up every book concurrently and partitions the results.
//
// A failed lookup drops that entry and is recorded in [AssemblyResult.Failures]; it never fails the batch.
// Only a failure of the entry fetch itself, or cancellation of ctx, is returned.
func (e *CollectionEngine) Assemble(ctx context.Context, s *models.Session, progress chan<- ProgressUpdate) (*AssemblyResult, error) {
	if e.catalog == nil || e.store == nil {
		return nil, fmt.Errorf("%w: collection engine not initialized", shared.ErrNotImplemented)
	}

	sendProgress(progress, fetchEntriesUpdate())

	entries, err := e.store.ListForUser(ctx, s)
	if err != nil {
		return nil, err
	}

	total := len(entries)
	sendProgress(progress, lookupDetailsUpdate(0, total))

	books := make([]*models.Book, total)
	failures := make([]error, total)

	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		g.Go(func() error {
			book, err := e.catalog.Volume(gctx, entry.BookID)
			if err != nil {
				failures[i] = err
				return nil
			}
			books[i] = &book
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details := make(map[string]models.Book, total)
	result := &AssemblyResult{Entries: total}
	for i, entry := range entries {
		if books[i] == nil {
			e.logger.Warn("detail lookup failed", "book", entry.BookID, "error", failures[i])
			result.Failures = append(result.Failures, LookupFailure{BookID: entry.BookID, Err: failures[i]})
			continue
		}
		details[entry.BookID] = *books[i]
	}

	result.Buckets = Partition(entries, details)
	sendProgress(progress, lookupDetailsUpdate(total-len(result.Failures), total))
	sendProgress(progress, doneUpdate(result))
	return result, nil
}

// Partition joins entries with details by book ID and groups them by list.
//
// Entries with no detail or an unknown list name are left out. Input order is kept within each list.
func Partition(entries []models.CollectionEntry, details map[string]models.Book) models.Buckets {
	b := models.NewBuckets()
	for _, entry := range entries {
		book, ok := details[entry.BookID]
		if !ok {
			continue
		}
		if _, known := b[entry.ListName]; !known {
			continue
		}
		b[entry.ListName] = append(b[entry.ListName], models.CollectionItem{Entry: entry, Book: book})
	}
	return b
}

// Relocate moves bookID from one list to another without refetching.
//
// The result is a new value; b is not modified. When the book is held by a list other than from, it is
// moved from where it actually is. An unknown book or target list yields an unchanged copy.
func Relocate(b models.Buckets, bookID string, from, to models.ListName) models.Buckets {
	out := b.Clone()
	if _, ok := out[to]; !ok {
		return out
	}
	if actual, ok := out.Find(bookID); ok {
		from = actual
	}
	if from == to {
		return out
	}

	items := out[from]
	for i, it := range items {
		if it.Entry.BookID != bookID {
			continue
		}
		out[from] = append(items[:i:i], items[i+1:]...)
		it.Entry.ListName = to
		out[to] = append(out[to], it)
		break
	}
	return out
}
