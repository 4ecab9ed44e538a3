package testutil

import (
	"fmt"
	"html/template"

	"github.com/specialistvlad/pagegrid/internal/organism"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single renderer.
type SimpleModule struct {
	ID       string
	Renderer *organism.RegisteredRenderer
}

// Register implements the organism.Module interface.
func (m *SimpleModule) Register(r *organism.Renderers) {
	if m.ID != "" && m.Renderer != nil {
		r.Register(m.ID, m.Renderer)
	}
}

// TitleInput is the input struct of organisms built with TitleModule.
type TitleInput struct {
	Title string `cty:"title"`
}

// TitleModule registers a renderer for an organism whose only field is a
// string "title". It renders `<section data-test="<id>">title</section>`.
func TitleModule(id string) *SimpleModule {
	return &SimpleModule{
		ID: id,
		Renderer: organism.RendererFor(func(in *TitleInput) (template.HTML, error) {
			return template.HTML(fmt.Sprintf(`<section data-test=%q>%s</section>`, id, template.HTMLEscapeString(in.Title))), nil
		}),
	}
}

// TitleDescriptor returns the HCL for an organism matching TitleModule.
func TitleDescriptor(id, extra string) string {
	return fmt.Sprintf(`
organism %q {
  display_name = "Test %s"
  category     = "sections"
  capabilities = ["draggable", "configurable"]
  %s

  field "title" {
    type     = string
    required = true
    default  = "Hello"
  }
}
`, id, id, extra)
}
