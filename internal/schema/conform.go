package schema

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Conform converts v into a value of type ty without any lossy conversion:
// primitives must already have the requested type, and lists may be given as
// lists or tuples whose elements all have the element type. "5" never
// becomes a number and 5 never becomes a string.
func Conform(v cty.Value, ty cty.Type) (cty.Value, error) {
	if !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("value is not known")
	}
	if v.IsNull() {
		return cty.NullVal(ty), nil
	}

	if !ty.IsListType() {
		if v.Type().Equals(ty) {
			return v, nil
		}
		return cty.NilVal, fmt.Errorf("expected %s, got %s", ty.FriendlyName(), v.Type().FriendlyName())
	}

	vt := v.Type()
	if !vt.IsListType() && !vt.IsTupleType() && !vt.IsSetType() {
		return cty.NilVal, fmt.Errorf("expected %s, got %s", ty.FriendlyName(), vt.FriendlyName())
	}

	elemType := ty.ElementType()
	if v.LengthInt() == 0 {
		return cty.ListValEmpty(elemType), nil
	}

	elems := make([]cty.Value, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() || !elem.Type().Equals(elemType) {
			return cty.NilVal, fmt.Errorf("expected %s, got an element of type %s", ty.FriendlyName(), elem.Type().FriendlyName())
		}
		elems = append(elems, elem)
	}
	return cty.ListVal(elems), nil
}
