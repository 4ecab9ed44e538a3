package schema

import (
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// Schema is the ordered set of fields that make up an organism's config.
// It is immutable after construction.
type Schema struct {
	fields []*Field
	index  map[string]int
}

// New builds a schema from fields in declaration order. Field names must be
// unique and every field must carry a default of its own type.
func New(fields ...*Field) (*Schema, error) {
	s := &Schema{
		fields: make([]*Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f == nil || f.Name == "" {
			return nil, fmt.Errorf("schema field must have a name")
		}
		if _, exists := s.index[f.Name]; exists {
			return nil, fmt.Errorf("duplicate schema field %q", f.Name)
		}
		if f.Type == cty.NilType {
			return nil, fmt.Errorf("schema field %q has no type", f.Name)
		}
		if f.Default.Type() == cty.NilType || f.Default.IsNull() {
			f.Default = ZeroValue(f.Type)
		}
		if !f.Default.Type().Equals(f.Type) {
			return nil, fmt.Errorf("schema field %q: default is %s, want %s", f.Name, f.Default.Type().FriendlyName(), f.Type.FriendlyName())
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustNew is like New but panics on error. It is intended for tests and
// statically known schemas.
func MustNew(fields ...*Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []*Field {
	return slices.Clone(s.fields)
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Type returns the cty object type every config value of this schema has.
func (s *Schema) Type() cty.Type {
	attrs := make(map[string]cty.Type, len(s.fields))
	for _, f := range s.fields {
		attrs[f.Name] = f.Type
	}
	return cty.Object(attrs)
}

// Defaults returns the default config: an object holding every field's default.
func (s *Schema) Defaults() cty.Value {
	if len(s.fields) == 0 {
		return cty.EmptyObjectVal
	}
	vals := make(map[string]cty.Value, len(s.fields))
	for _, f := range s.fields {
		vals[f.Name] = f.Default
	}
	return cty.ObjectVal(vals)
}
