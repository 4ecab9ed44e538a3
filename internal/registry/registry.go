package registry

import (
	"fmt"
	"iter"

	"github.com/specialistvlad/pagegrid/internal/model"
	"github.com/specialistvlad/pagegrid/internal/organism"
)

// Registry holds every discovered organism. The zero value and a nil
// *Registry are valid, empty registries.
type Registry struct {
	byID    map[string]organism.Definition
	aliases map[string]string
	order   []organism.Definition
}

func newRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]organism.Definition),
		aliases: make(map[string]string),
	}
}

func (r *Registry) add(def organism.Definition) {
	r.byID[def.ID()] = def
	for _, alias := range def.Metadata().Aliases {
		r.aliases[alias] = def.ID()
	}
	r.order = append(r.order, def)
}

// Lookup resolves an id or alias to the canonical organism id.
func (r *Registry) Lookup(idOrAlias string) (string, bool) {
	if r == nil {
		return "", false
	}
	if _, ok := r.byID[idOrAlias]; ok {
		return idOrAlias, true
	}
	id, ok := r.aliases[idOrAlias]
	return id, ok
}

// Get returns the definition registered under id or one of its aliases.
// Unknown ids yield an error matching ErrNotFound.
func (r *Registry) Get(id string) (organism.Definition, error) {
	canonical, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("organism %q: %w", id, ErrNotFound)
	}
	return r.byID[canonical], nil
}

// Len returns the number of registered organisms.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Filter selects organisms in List.
type Filter func(model.Metadata) bool

// WithCapability keeps organisms that declare the capability tag.
func WithCapability(tag string) Filter {
	return func(m model.Metadata) bool { return m.HasCapability(tag) }
}

// WithCategory keeps organisms of the given category.
func WithCategory(category string) Filter {
	return func(m model.Metadata) bool { return m.Category == category }
}

// List returns the metadata of every organism that passes all filters, in
// registration order. The sequence is lazy and may be ranged over any number
// of times.
func (r *Registry) List(filters ...Filter) iter.Seq[model.Metadata] {
	return func(yield func(model.Metadata) bool) {
		for def := range r.All() {
			m := def.Metadata()
			if !matches(m, filters) {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// All returns every definition in registration order.
func (r *Registry) All() iter.Seq[organism.Definition] {
	return func(yield func(organism.Definition) bool) {
		if r == nil {
			return
		}
		for _, def := range r.order {
			if !yield(def) {
				return
			}
		}
	}
}

func matches(m model.Metadata, filters []Filter) bool {
	for _, f := range filters {
		if f != nil && !f(m) {
			return false
		}
	}
	return true
}
