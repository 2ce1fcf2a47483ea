// Package tasks builds the collections view from stored entries and exports it.
//
// # Assembly
//
// [CollectionEngine.Assemble] runs in three steps:
//
//  1. Fetch the session user's entries from the collection store
//  2. Look up every entry's book concurrently (errgroup, no ordering); failed lookups are logged,
//     recorded in [AssemblyResult.Failures] and dropped
//  3. Join details by book ID and [Partition] into one bucket per list
//
// After a successful remote move the caller applies [Relocate] to its buckets instead of refetching.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Export
//
// [Export] writes one file per list with a small worker pool and a JSON manifest,
// optionally downloading cover thumbnails for Markdown output.
package tasks
