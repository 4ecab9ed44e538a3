package schema

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Patch is a decoded batch of field updates. A null value resets the field
// to its default.
type Patch map[string]cty.Value

// DecodePatch decodes a JSON object into a Patch. Unknown fields and values
// of the wrong type are reported as field errors; the returned patch then
// holds only the fields that decoded cleanly.
func (s *Schema) DecodePatch(data []byte) (Patch, FieldErrors) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Patch{}, nil
	}

	ty, err := ctyjson.ImpliedType(data)
	if err != nil || !ty.IsObjectType() {
		return nil, FieldErrors{newFieldError("", CodeInvalidType, "config must be a JSON object")}
	}
	obj, err := ctyjson.Unmarshal(data, ty)
	if err != nil {
		return nil, FieldErrors{newFieldError("", CodeInvalidType, "config must be a JSON object: %v", err)}
	}

	names := make([]string, 0, len(ty.AttributeTypes()))
	for name := range ty.AttributeTypes() {
		names = append(names, name)
	}
	sort.Strings(names)

	patch := make(Patch, len(names))
	var errs FieldErrors
	for _, name := range names {
		f, ok := s.Field(name)
		if !ok {
			errs = append(errs, newFieldError(name, CodeUnknownField, "unknown field"))
			continue
		}
		v, err := Conform(obj.GetAttr(name), f.Type)
		if err != nil {
			errs = append(errs, newFieldError(name, CodeInvalidType, "%v", err))
			continue
		}
		patch[name] = v
	}
	return patch, errs
}

// Apply returns a new config holding base with the patch applied on top.
// Fields absent from both base and patch take their defaults, so the result
// always has exactly the schema's attributes. base may be cty.NilVal.
func (s *Schema) Apply(base cty.Value, patch Patch) cty.Value {
	if len(s.fields) == 0 {
		return cty.EmptyObjectVal
	}

	hasBase := base.Type() != cty.NilType && base.IsKnown() && !base.IsNull() && base.Type().IsObjectType()
	vals := make(map[string]cty.Value, len(s.fields))
	for _, f := range s.fields {
		v := f.Default
		if hasBase && base.Type().HasAttribute(f.Name) {
			if bv := base.GetAttr(f.Name); !bv.IsNull() && bv.Type().Equals(f.Type) {
				v = bv
			}
		}
		if pv, ok := patch[f.Name]; ok {
			if pv.IsNull() {
				v = f.Default
			} else {
				v = pv
			}
		}
		vals[f.Name] = v
	}
	return cty.ObjectVal(vals)
}

// Decode reads a stored JSON config and fills missing fields with their
// defaults. Fields that fail to decode keep their default and are reported.
// The result is not validated; callers decide whether to call Validate.
func (s *Schema) Decode(data []byte) (cty.Value, FieldErrors) {
	patch, errs := s.DecodePatch(data)
	return s.Apply(cty.NilVal, patch), errs
}

// Encode serialises a config value as a JSON object.
func (s *Schema) Encode(v cty.Value) ([]byte, error) {
	if !v.Type().Equals(s.Type()) {
		conformed, err := s.conformObject(v)
		if err != nil {
			return nil, err
		}
		v = conformed
	}
	return ctyjson.Marshal(v, s.Type())
}

func (s *Schema) conformObject(v cty.Value) (cty.Value, error) {
	if v.Type() == cty.NilType || v.IsNull() || !v.Type().IsObjectType() {
		return cty.NilVal, fmt.Errorf("config must be an object")
	}
	patch := make(Patch, len(s.fields))
	for name := range v.Type().AttributeTypes() {
		f, ok := s.Field(name)
		if !ok {
			return cty.NilVal, fmt.Errorf("unknown field %q", name)
		}
		cv, err := Conform(v.GetAttr(name), f.Type)
		if err != nil {
			return cty.NilVal, fmt.Errorf("field %q: %w", name, err)
		}
		patch[name] = cv
	}
	return s.Apply(cty.NilVal, patch), nil
}
