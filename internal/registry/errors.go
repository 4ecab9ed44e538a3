package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// ErrNotFound is returned by Get for ids that are not registered.
var ErrNotFound = errors.New("organism not found")

// CollisionError reports two descriptors claiming the same id or alias.
type CollisionError struct {
	ID      string
	Sources []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("organism id %q is declared more than once: %s", e.ID, strings.Join(e.Sources, " and "))
}

// MalformedError reports a descriptor that could not be turned into a
// definition. Diagnostics is set for HCL problems and keeps their source
// ranges; Err is set for problems found after parsing.
type MalformedError struct {
	Source      string
	ID          string
	Diagnostics hcl.Diagnostics
	Err         error
}

func (e *MalformedError) Error() string {
	if len(e.Diagnostics) > 0 {
		return fmt.Sprintf("malformed descriptor %s: %s", e.Source, e.Diagnostics.Error())
	}
	return fmt.Sprintf("malformed organism %q (%s): %v", e.ID, e.Source, e.Err)
}

func (e *MalformedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if len(e.Diagnostics) > 0 {
		return e.Diagnostics
	}
	return nil
}

// RendererError reports a Go renderer registration without a usable
// descriptor counterpart.
type RendererError struct {
	ID     string
	Reason string
}

func (e *RendererError) Error() string {
	return fmt.Sprintf("renderer %q: %s", e.ID, e.Reason)
}

// DiscoveryError aggregates every problem found by Discover.
type DiscoveryError struct {
	Errors []error
}

func (e *DiscoveryError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("organism discovery failed with %d problem(s):\n- %s", len(e.Errors), strings.Join(msgs, "\n- "))
}

func (e *DiscoveryError) Unwrap() []error {
	return e.Errors
}

// Collisions returns the collision errors among the aggregated problems.
func (e *DiscoveryError) Collisions() []*CollisionError {
	var out []*CollisionError
	for _, err := range e.Errors {
		var ce *CollisionError
		if errors.As(err, &ce) {
			out = append(out, ce)
		}
	}
	return out
}
