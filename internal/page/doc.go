// Package page defines page documents, the persisted layouts that embed
// organism instances, and the Store interface that keeps them.
//
// # Ownership
//
// A Document owns the configs of its instances. The organism registry only
// supplies schemas and defaults; it never reads or writes documents.
//
// # Versioning
//
// Every stored document carries a version that grows by one with each
// successful Save. Save takes the version the caller last read and fails
// with ErrVersionConflict if the stored document moved on in the meantime.
// This compare-and-swap is what serialises editor commits per document.
package page
