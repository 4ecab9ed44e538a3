package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/specialistvlad/pagegrid/internal/model"
	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/zclconf/go-cty/cty/gocty"
)

// checkParity performs a strict check between a descriptor's fields and the
// renderer's input struct. It checks both the presence of fields and the
// compatibility of their types.
func checkParity(desc *model.Descriptor, rr *organism.RegisteredRenderer) []string {
	var errs []string

	inputType := rr.InputType
	if inputType == nil || inputType.Kind() != reflect.Struct {
		if desc.Schema.Len() > 0 {
			errs = append(errs, "descriptor declares fields, but the Go renderer has no input struct")
		}
		return errs
	}

	goInputs := make(map[string]reflect.StructField)
	for i := 0; i < inputType.NumField(); i++ {
		field := inputType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get("cty"), ",")[0]
		if tagName != "" && tagName != "-" {
			goInputs[tagName] = field
		}
	}

	// Check for presence mismatches
	goNames := make([]string, 0, len(goInputs))
	for name := range goInputs {
		goNames = append(goNames, name)
	}
	sort.Strings(goNames)
	for _, name := range goNames {
		if _, ok := desc.Schema.Field(name); !ok {
			errs = append(errs, fmt.Sprintf("Go struct has field for '%s' which is not declared in the descriptor", name))
		}
	}

	// Check for type mismatches, in declaration order
	for _, f := range desc.Schema.Fields() {
		goField, ok := goInputs[f.Name]
		if !ok {
			errs = append(errs, fmt.Sprintf("descriptor declares field '%s' which is not found in the Go struct", f.Name))
			continue
		}

		goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("field '%s': could not imply cty type from Go field type %s: %v", f.Name, goField.Type, err))
			continue
		}

		if !f.Type.Equals(goFieldType) {
			errs = append(errs, fmt.Sprintf("field '%s': type mismatch. Descriptor requires '%s' but Go struct field '%s' provides '%s'",
				f.Name, f.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			continue
		}

		if isIntegerKind(goField.Type) && !f.Integer {
			errs = append(errs, fmt.Sprintf("field '%s': Go struct field '%s' is an integer, so the descriptor must declare 'integer = true'", f.Name, goField.Name))
		}
	}

	return errs
}

func isIntegerKind(t reflect.Type) bool {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
