// Package editor binds organism configuration schemas to page documents so
// that a visual builder can change them safely.
//
// Every change is a read, mutate, compare-and-swap cycle on the whole page
// document. Config batches are validated against the organism's schema
// before anything is written, so a failed commit leaves the stored document
// untouched and the render pipeline only ever sees configs that validated
// or the organism's defaults. When another writer wins the swap the change
// is re-applied on the fresh document, up to a small number of attempts.
package editor
