package hclutil

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/zclconf/go-cty/cty"
)

// HCLTypeToCtyType converts an HCL expression that represents a field type into
// its cty.Type. Plain keywords (`string`, `number`, `bool`) and lists of those
// (`list(string)`, `list(number)`) are supported; anything else is reported as a
// diagnostic rather than accepted, because every field type must map onto an
// editor widget and a Go struct field.
func HCLTypeToCtyType(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	// A bare keyword is the common case; AbsTraversalForExpr recognises it
	// without evaluating anything.
	if traversal, travDiags := hcl.AbsTraversalForExpr(expr); !travDiags.HasErrors() {
		if len(traversal) != 1 {
			return cty.NilType, invalidTypeDiag(expr, "The 'type' attribute must be a simple type keyword like 'string', 'number', or 'bool'.")
		}
		return primitiveType(expr, traversal.RootName())
	}

	// Otherwise it must be a collection constructor such as list(string).
	ty, typeDiags := typeexpr.TypeConstraint(expr)
	if typeDiags.HasErrors() {
		diags = append(diags, typeDiags...)
		return cty.NilType, diags
	}

	if !ty.IsListType() || !isPrimitive(ty.ElementType()) {
		return cty.NilType, invalidTypeDiag(expr, fmt.Sprintf("The type '%s' is not supported. Supported types are: string, number, bool, list(string), list(number), list(bool).", ty.FriendlyName()))
	}

	return ty, diags
}

func primitiveType(expr hcl.Expression, typeName string) (cty.Type, hcl.Diagnostics) {
	switch typeName {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	case "any":
		return cty.NilType, invalidTypeDiag(expr, "The type 'any' is not allowed for organism fields; every field needs a concrete type for validation and editing.")
	case "list", "map", "set", "object", "tuple":
		return cty.NilType, invalidTypeDiag(expr, fmt.Sprintf("The collection type '%s' needs an element type, for example %s(string).", typeName, typeName))
	default:
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a valid type. Supported types are: string, number, bool, list(string), list(number), list(bool).", typeName),
			Subject:  expr.Range().Ptr(),
		}}
	}
}

func isPrimitive(ty cty.Type) bool {
	return ty.Equals(cty.String) || ty.Equals(cty.Number) || ty.Equals(cty.Bool)
}

func invalidTypeDiag(expr hcl.Expression, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid type specification",
		Detail:   detail,
		Subject:  expr.Range().Ptr(),
	}}
}

// TypeName renders a cty.Type using the same keywords accepted in descriptors.
func TypeName(ty cty.Type) string {
	return typeexpr.TypeString(ty)
}
