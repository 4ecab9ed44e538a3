// Package calltoaction implements the call-to-action banner.
package calltoaction

import (
	_ "embed"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/organism"
)

const ID = "call-to-action"

// Module implements the organism.Module interface for this package.
type Module struct{}

type Input struct {
	Heading     string `cty:"heading"`
	ButtonText  string `cty:"button_text"`
	ButtonURL   string `cty:"button_url"`
	ButtonColor string `cty:"button_color"`
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
