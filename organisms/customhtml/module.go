// Package customhtml implements a free-form HTML section. Author markup is
// sanitised with bluemonday's user generated content policy, and
// {{variable}} placeholders are turned into markers the storefront fills in.
package customhtml

import (
	_ "embed"
	"html/template"
	"regexp"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/specialistvlad/pagegrid/internal/organism"
)

const ID = "custom-html"

// Module implements the organism.Module interface for this package.
type Module struct{}

type Input struct {
	HTMLContent      string   `cty:"html_content"`
	CSSClasses       string   `cty:"css_classes"`
	AllowedVariables []string `cty:"allowed_variables"`
}

type view struct {
	Classes []string
	Content template.HTML
}

//go:embed template.html
var templateSource string

var tmpl = organism.ParseTemplate(ID, templateSource)

// policy is safe for concurrent use once built.
var policy = bluemonday.UGCPolicy()

var (
	variablePattern = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)
	cssClassPattern = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)
)

func Render(in *Input) (template.HTML, error) {
	content := policy.Sanitize(in.HTMLContent)
	content = variablePattern.ReplaceAllStringFunc(content, func(m string) string {
		name := variablePattern.FindStringSubmatch(m)[1]
		if !slices.Contains(in.AllowedVariables, name) {
			return ""
		}
		return `<span data-variable="` + name + `"></span>`
	})

	var classes []string
	for _, c := range strings.Fields(in.CSSClasses) {
		if cssClassPattern.MatchString(c) {
			classes = append(classes, c)
		}
	}

	return organism.Execute(tmpl, view{Classes: classes, Content: template.HTML(content)})
}

// Register registers the renderer.
func (Module) Register(r *organism.Renderers) {
	r.Register(ID, organism.RendererFor(Render))
}
