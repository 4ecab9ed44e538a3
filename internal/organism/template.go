package organism

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Funcs are the helpers available to every organism template.
var Funcs = template.FuncMap{
	"join": strings.Join,
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}

// ParseTemplate parses an organism template with the shared helpers.
// It panics on error and is meant for package-level variables.
func ParseTemplate(name, src string) *template.Template {
	return template.Must(template.New(name).Funcs(Funcs).Parse(src))
}

// Execute runs t with data and returns the trimmed markup.
func Execute(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %q: %w", t.Name(), err)
	}
	return template.HTML(strings.TrimSpace(buf.String())), nil
}
