// Package testimonials implements the guest reviews section.
package testimonials

import (
	_ "embed"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/organism"
)

const ID = "testimonials"

// Module implements the organism.Module interface for this package.
type Module struct{}

type Input struct {
	Title           string `cty:"title"`
	MaxItems        int    `cty:"max_items"`
	DisplayType     string `cty:"display_type"`
	ShowRating      bool   `cty:"show_rating"`
	AutoRotate      bool   `cty:"auto_rotate"`
	RotationSpeedMS int    `cty:"rotation_speed_ms"`
}

// Rotates reports whether the section cycles through reviews on its own.
// Only carousels rotate.
func (in *Input) Rotates() bool {
	return in.AutoRotate && in.DisplayType == "carousel"
}

//go:embed template.html
var templateSource string

var tmpl = organism.ParseTemplate(ID, templateSource)

func Render(in *Input) (template.HTML, error) {
	return organism.Execute(tmpl, in)
}

// Register registers the renderer.
func (Module) Register(r *organism.Renderers) {
	r.Register(ID, organism.RendererFor(Render))
}
