// Package herosection implements the hero banner shown at the top of a
// restaurant homepage.
package herosection

import (
	_ "embed"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/organism"
)

// ID is the organism id declared in organism.hcl.
const ID = "hero-section"

// Module implements the organism.Module interface for this package.
type Module struct{}

// Input mirrors the fields of organism.hcl.
type Input struct {
	Title           string  `cty:"title"`
	Subtitle        string  `cty:"subtitle"`
	BackgroundImage string  `cty:"background_image"`
	OverlayColor    string  `cty:"overlay_color"`
	OverlayOpacity  float64 `cty:"overlay_opacity"`
	TextAlignment   string  `cty:"text_alignment"`
	Height          string  `cty:"height"`
	CTAButtonText   string  `cty:"cta_button_text"`
	CTAButtonURL    string  `cty:"cta_button_url"`
}

//go:embed template.html
var templateSource string

var tmpl = organism.ParseTemplate(ID, templateSource)

// Render produces the hero markup.
func Render(in *Input) (template.HTML, error) {
	return organism.Execute(tmpl, in)
}

// Register registers the renderer.
func (Module) Register(r *organism.Renderers) {
	r.Register(ID, organism.RendererFor(Render))
}
