package hclutil

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Position renders a range as "file:line", the form used to name sources in
// collision and parity errors.
func Position(rng hcl.Range) string {
	if rng.Filename == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", rng.Filename, rng.Start.Line)
}
