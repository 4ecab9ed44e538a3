// Package featuredproducts implements the featured products section. The
// organism renders empty product slots; the storefront fills them with the
// restaurant's products on the client.
package featuredproducts

import (
	_ "embed"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/organism"
)

const ID = "featured-products"

// Module implements the organism.Module interface for this package.
type Module struct{}

type Input struct {
	Title            string `cty:"title"`
	MaxProducts      int    `cty:"max_products"`
	DisplayType      string `cty:"display_type"`
	Columns          int    `cty:"columns"`
	ShowPrice        bool   `cty:"show_price"`
	ShowCategory     bool   `cty:"show_category"`
	CategoriesToShow []int  `cty:"categories_to_show"`
	BackgroundStyle  string `cty:"background_style"`
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
