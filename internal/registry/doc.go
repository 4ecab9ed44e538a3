// Package registry provides the process-wide index of organisms.
//
// The Registry maps organism ids (and their aliases) to organism.Definition
// values. It is built once by Discover, which parses every descriptor source,
// binds each descriptor to the Go renderer registered under the same id and
// checks that the two are in sync. Every problem found on the way is
// collected into a single DiscoveryError so authors see all of them at once.
//
// After Discover returns, the Registry is read-only. Get and List never block
// and are safe for concurrent use without locking.
package registry
