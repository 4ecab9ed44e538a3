package organism

import (
	"fmt"
	"html/template"
	"log/slog"
	"reflect"
	"slices"
)

// Module is the interface that every organism package implements to be
// registered.
type Module interface {
	Register(r *Renderers)
}

// RegisteredRenderer holds the compiled Go parts of an organism.
type RegisteredRenderer struct {
	NewInput  func() any
	InputType reflect.Type
	Fn        func(input any) (template.HTML, error)
}

// RendererFor adapts a typed render function. T is the organism's input
// struct.
func RendererFor[T any](fn func(in *T) (template.HTML, error)) *RegisteredRenderer {
	return &RegisteredRenderer{
		NewInput:  func() any { return new(T) },
		InputType: reflect.TypeOf((*T)(nil)).Elem(),
		Fn: func(input any) (template.HTML, error) {
			in, ok := input.(*T)
			if !ok {
				return "", fmt.Errorf("renderer expects *%T, got %T", *new(T), input)
			}
			return fn(in)
		},
	}
}

// Renderers collects the renderers registered by organism modules. A second
// registration for the same id is recorded instead of replacing the first,
// so discovery can report it alongside every other problem.
type Renderers struct {
	byID       map[string]*RegisteredRenderer
	order      []string
	duplicates []string
}

func NewRenderers() *Renderers {
	return &Renderers{byID: make(map[string]*RegisteredRenderer)}
}

// Register adds the renderer for an organism id.
func (r *Renderers) Register(id string, renderer *RegisteredRenderer) {
	if _, exists := r.byID[id]; exists {
		slog.Debug("Duplicate renderer registration.", "id", id)
		r.duplicates = append(r.duplicates, id)
		return
	}
	slog.Debug("Registering organism renderer.", "id", id)
	r.byID[id] = renderer
	r.order = append(r.order, id)
}

// Lookup returns the renderer registered for id.
func (r *Renderers) Lookup(id string) (*RegisteredRenderer, bool) {
	rr, ok := r.byID[id]
	return rr, ok
}

// IDs returns the registered ids in registration order.
func (r *Renderers) IDs() []string {
	return slices.Clone(r.order)
}

// Duplicates returns ids that were registered more than once.
func (r *Renderers) Duplicates() []string {
	return slices.Clone(r.duplicates)
}
