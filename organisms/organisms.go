// Package organisms bundles the built-in organisms: one Go package per
// organism, each with its organism.hcl descriptor, plus the generated index
// that enumerates them in a fixed order.
package organisms

import (
	"context"
	"embed"
	"slices"

	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/specialistvlad/pagegrid/internal/registry"
)

//go:generate go run ../cmd/organism-index -dir . -import-path github.com/specialistvlad/pagegrid/organisms -out index_gen.go

//go:embed */organism.hcl
var descriptorFS embed.FS

// Sources returns the built-in descriptors in index order.
func Sources() ([]registry.Source, error) {
	return registry.SourcesFromFS(descriptorFS, descriptorFiles)
}

// Modules returns the Go modules of the built-in organisms in index order.
func Modules() []organism.Module {
	return slices.Clone(modules)
}

// Discover builds a registry holding the built-in organisms.
func Discover(ctx context.Context) (*registry.Registry, error) {
	sources, err := Sources()
	if err != nil {
		return nil, err
	}
	return registry.Discover(ctx, sources, Modules()...)
}
