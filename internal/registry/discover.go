package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/model"
	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/specialistvlad/pagegrid/internal/schema"
)

// Discover builds a Registry from descriptor sources and the Go modules that
// register renderers. Sources are processed in the order given, which becomes
// the registration order.
//
// Every problem is collected: HCL diagnostics, id and alias collisions,
// descriptors without a renderer, renderers without a descriptor, duplicate
// renderer registrations, parity mismatches between descriptor and Go
// struct, and defaults that fail validation or rendering. If there is any,
// Discover returns a *DiscoveryError and no registry.
func Discover(ctx context.Context, sources []Source, modules ...organism.Module) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Discovering organisms...", "sources", len(sources), "modules", len(modules))

	renderers := organism.NewRenderers()
	for _, m := range modules {
		m.Register(renderers)
	}

	var errs []error
	for _, id := range renderers.Duplicates() {
		errs = append(errs, &RendererError{ID: id, Reason: "registered more than once"})
	}

	descriptors, parseErrs := parseSources(ctx, sources)
	errs = append(errs, parseErrs...)

	reg := newRegistry()
	claimed := make(map[string]*model.Descriptor)
	declared := make(map[string]bool)

	for _, desc := range descriptors {
		declared[desc.ID] = true

		if err := claim(claimed, desc); err != nil {
			errs = append(errs, err)
			continue
		}

		def, err := bind(desc, renderers)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		logger.Debug("Registered organism", "id", desc.ID, "source", desc.Source(), "fields", desc.Schema.Len())
		reg.add(def)
	}

	for _, id := range renderers.IDs() {
		if !declared[id] {
			errs = append(errs, &RendererError{ID: id, Reason: "no descriptor declares this organism"})
		}
	}

	if len(errs) > 0 {
		logger.Debug("Organism discovery failed", "problems", len(errs))
		return nil, &DiscoveryError{Errors: errs}
	}

	logger.Info("Organism registry built.", "organisms", reg.Len())
	return reg, nil
}

func parseSources(ctx context.Context, sources []Source) ([]*model.Descriptor, []error) {
	var (
		descriptors []*model.Descriptor
		errs        []error
	)
	parser := hclparse.NewParser()
	for _, src := range sources {
		file, diags := parser.ParseHCL(src.Body, src.Name)
		if diags.HasErrors() {
			errs = append(errs, &MalformedError{Source: src.Name, Diagnostics: diags})
			continue
		}
		ds, diags := model.ParseDescriptorFile(ctx, file, src.Name)
		if diags.HasErrors() {
			errs = append(errs, &MalformedError{Source: src.Name, Diagnostics: diags})
		}
		descriptors = append(descriptors, ds...)
	}
	return descriptors, errs
}

// claim reserves the id and aliases of desc. A descriptor colliding with an
// earlier one yields a single CollisionError naming both sources and is not
// registered.
func claim(claimed map[string]*model.Descriptor, desc *model.Descriptor) error {
	names := append([]string{desc.ID}, desc.Aliases...)
	for _, name := range names {
		if owner, ok := claimed[name]; ok {
			return &CollisionError{ID: name, Sources: []string{owner.Source(), desc.Source()}}
		}
	}
	for _, name := range names {
		claimed[name] = desc
	}
	return nil
}

// bind pairs a descriptor with its renderer and proves the default config
// validates and renders.
func bind(desc *model.Descriptor, renderers *organism.Renderers) (organism.Definition, error) {
	malformed := func(err error) error {
		return &MalformedError{Source: desc.Source(), ID: desc.ID, Err: err}
	}

	rr, ok := renderers.Lookup(desc.ID)
	if !ok {
		return nil, malformed(errors.New("no Go renderer is registered for this organism"))
	}

	if problems := checkParity(desc, rr); len(problems) > 0 {
		return nil, malformed(fmt.Errorf("descriptor and Go input struct disagree:\n  - %s", strings.Join(problems, "\n  - ")))
	}

	def := organism.New(desc, rr)
	defaults := def.DefaultConfig()
	if fieldErrs := def.ConfigSchema().Validate(defaults); len(fieldErrs) > 0 {
		return nil, malformed(&schema.ValidationError{OrganismID: desc.ID, Fields: fieldErrs})
	}

	html, err := def.Render(defaults)
	if err != nil {
		return nil, malformed(fmt.Errorf("rendering the default config: %w", err))
	}
	if strings.TrimSpace(string(html)) == "" {
		return nil, malformed(errors.New("rendering the default config produced no output"))
	}
	return def, nil
}
