// Package livesync fans editor changes out to connected builders over
// socket.io.
//
// Clients emit "subscribe" with a page id and join the page's room; the hub
// answers with "subscribed" and from then on forwards every editor event of
// that page under the event's kind ("config.committed", "instance.added",
// "instance.removed"). Follow is the matching client used by
// `pagegrid follow`.
package livesync
