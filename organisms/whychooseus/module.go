// Package whychooseus implements the "why choose us" section.
package whychooseus

import (
	_ "embed"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/organism"
)

const ID = "why-choose-us"

// Module implements the organism.Module interface for this package.
type Module struct{}

type Input struct {
	Title    string   `cty:"title"`
	Features []string `cty:"features"`
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
