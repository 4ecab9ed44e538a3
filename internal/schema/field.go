package schema

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Format is an optional semantic refinement of a string field.
type Format string

const (
	FormatNone  Format = ""
	FormatURL   Format = "url"
	FormatColor Format = "color"
	FormatHTML  Format = "html"
)

// ParseFormat validates a format keyword from a descriptor.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatNone, FormatURL, FormatColor, FormatHTML:
		return f, nil
	default:
		return FormatNone, fmt.Errorf("unknown format %q (expected url, color or html)", s)
	}
}

// Field is one configurable value of an organism.
type Field struct {
	Name        string
	Type        cty.Type
	Label       string
	Description string
	Required    bool

	// Default is always a known, non-null value of Type. Fields declared
	// without a default get the zero value of their type.
	Default cty.Value

	Min       *float64
	Max       *float64
	Integer   bool
	MinLength int
	MaxLength int
	MaxItems  int
	OneOf     []string
	Format    Format
}

// DisplayLabel returns the label shown in editor forms.
func (f *Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// ZeroValue returns the zero value for a supported field type.
func ZeroValue(ty cty.Type) cty.Value {
	switch {
	case ty.Equals(cty.String):
		return cty.StringVal("")
	case ty.Equals(cty.Number):
		return cty.Zero
	case ty.Equals(cty.Bool):
		return cty.False
	case ty.IsListType():
		return cty.ListValEmpty(ty.ElementType())
	default:
		return cty.NullVal(ty)
	}
}
