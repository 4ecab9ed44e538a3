package organism

import (
	"fmt"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/model"
	"github.com/specialistvlad/pagegrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Definition is a self-contained page building block: its palette metadata,
// its configuration schema with defaults, and a renderer.
//
// Render accepts any config that validates against ConfigSchema and is a
// pure function of it. Render(DefaultConfig()) always succeeds with
// non-empty output for every definition returned by discovery.
type Definition interface {
	ID() string
	Metadata() model.Metadata
	ConfigSchema() *schema.Schema
	DefaultConfig() cty.Value
	Render(config cty.Value) (template.HTML, error)
}

type definition struct {
	desc     *model.Descriptor
	renderer *RegisteredRenderer
}

// New binds a descriptor to its renderer. It does not check parity between
// the two; discovery does that before calling New.
func New(desc *model.Descriptor, renderer *RegisteredRenderer) Definition {
	return &definition{desc: desc, renderer: renderer}
}

func (d *definition) ID() string { return d.desc.ID }

// Metadata returns a copy so callers cannot mutate the descriptor.
func (d *definition) Metadata() model.Metadata { return d.desc.Metadata.Clone() }

func (d *definition) ConfigSchema() *schema.Schema { return d.desc.Schema }

func (d *definition) DefaultConfig() cty.Value { return d.desc.Schema.Defaults() }

func (d *definition) Render(config cty.Value) (template.HTML, error) {
	in := d.renderer.NewInput()
	if err := gocty.FromCtyValue(config, in); err != nil {
		return "", fmt.Errorf("organism %q: decoding config: %w", d.desc.ID, err)
	}
	html, err := d.renderer.Fn(in)
	if err != nil {
		return "", fmt.Errorf("organism %q: %w", d.desc.ID, err)
	}
	return html, nil
}
