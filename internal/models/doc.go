// Package models defines domain entities and persistence interfaces for shelf.
//
// The package contains two categories of types:
//
// 1. Catalog data, sourced verbatim from the remote book catalog and never mutated
//   - [Book] : Volume metadata with display fallbacks
//
// 2. User data, owned by the identity service and the collection store
//   - [Session] : Immutable snapshot of the signed-in user's tokens
//   - [CollectionEntry] : One row of book_lists, at most one per (user, book)
//   - [CollectionItem] : An entry joined with its [Book]
//   - [Buckets] : Items partitioned by [ListName]
//
// The [EntryStore] interface is the contract every collection store backend implements.
package models
