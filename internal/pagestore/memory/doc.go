// Package memory provides an ephemeral, thread-safe, in-memory
// implementation of the page.Store interface.
//
// # Concurrency Model
//
// Documents are kept in a sync.Map keyed by page id. Each stored value is an
// immutable *page.Document; an update builds a new document and swaps it in
// with CompareAndSwap against the value it was derived from. Two writers
// starting from the same version therefore race on the swap, and exactly one
// of them wins.
//
// # When to Use
//
// This implementation is suitable for:
//   - Local development and testing
//   - `pagegrid serve` without a database path
//
// Documents are lost when the process exits. Use the sqlite store for
// anything that must survive a restart.
package memory
