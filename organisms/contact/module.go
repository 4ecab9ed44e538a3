// Package contact implements the contact details section.
package contact

import (
	_ "embed"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/organism"
)

const ID = "contact"

// Module implements the organism.Module interface for this package.
type Module struct{}

type Input struct {
	Title        string `cty:"title"`
	Phone        string `cty:"phone"`
	Email        string `cty:"email"`
	Address      string `cty:"address"`
	ShowMap      bool   `cty:"show_map"`
	OpeningHours string `cty:"opening_hours"`
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
