package editor

import "encoding/json"

// EventKind names a change published after a successful write.
type EventKind string

const (
	EventCommitted EventKind = "config.committed"
	EventAdded     EventKind = "instance.added"
	EventRemoved   EventKind = "instance.removed"
)

// Event describes one stored change to a page document.
type Event struct {
	Kind       EventKind       `json:"kind"`
	PageID     string          `json:"page_id"`
	InstanceID string          `json:"instance_id"`
	OrganismID string          `json:"organism_id"`
	Version    int64           `json:"version"`
	Visible    bool            `json:"visible"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Publisher receives events after the change is stored. Publish must not
// block for long; it runs on the request path.
type Publisher interface {
	Publish(ev Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev Event)

func (f PublisherFunc) Publish(ev Event) { f(ev) }
