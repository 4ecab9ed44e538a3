package page

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"slices"
	"time"
)

var (
	// ErrNotFound is returned for pages that do not exist.
	ErrNotFound = errors.New("page not found")
	// ErrVersionConflict is returned by Save when the stored version differs
	// from the expected one.
	ErrVersionConflict = errors.New("page version conflict")
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidID reports whether id is an acceptable page id, such as "home".
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Instance is one organism placed on a page. Config is the instance's
// configuration as a JSON object.
type Instance struct {
	ID         string          `json:"id"`
	OrganismID string          `json:"organism_id"`
	Visible    bool            `json:"visible"`
	Config     json.RawMessage `json:"config"`
}

// Document is a page layout. Instance order is page order.
type Document struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Version   int64      `json:"version"`
	Instances []Instance `json:"instances"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Instances = make([]Instance, len(d.Instances))
	for i, inst := range d.Instances {
		inst.Config = slices.Clone(inst.Config)
		c.Instances[i] = inst
	}
	return &c
}

// Instance returns the position of the instance with the given id.
func (d *Document) Instance(id string) (int, bool) {
	i := slices.IndexFunc(d.Instances, func(inst Instance) bool { return inst.ID == id })
	return i, i >= 0
}

// Store persists page documents. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns a copy of the stored document or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// Save stores doc if the stored version equals expectedVersion. An
	// expectedVersion of 0 creates the document and fails with
	// ErrVersionConflict if it already exists. Saving a missing document
	// with a non-zero expectedVersion returns ErrNotFound. The returned copy
	// carries the new version and update time.
	Save(ctx context.Context, doc *Document, expectedVersion int64) (*Document, error)

	// List returns the ids of all stored documents in ascending order.
	List(ctx context.Context) ([]string, error)
}
