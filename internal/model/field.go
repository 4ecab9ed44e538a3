// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses `field` blocks into schema fields.
//
// Each field block declares one configurable value of an organism: its type,
// its default and the constraints the editor enforces. Constraints are only
// accepted on types they make sense for, so a descriptor cannot silently
// declare `max_length` on a number.
package model

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/pagegrid/internal/hclutil"
	"github.com/specialistvlad/pagegrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// fieldBodySchema is the HCL schema for the body of a `field` block.
var fieldBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "type"},
		{Name: "label"},
		{Name: "description"},
		{Name: "required"},
		{Name: "default"},
		{Name: "min"},
		{Name: "max"},
		{Name: "integer"},
		{Name: "min_length"},
		{Name: "max_length"},
		{Name: "max_items"},
		{Name: "one_of"},
		{Name: "format"},
	},
}

type typeClass int

const (
	classString typeClass = 1 << iota
	classNumber
	classList
)

// constraintClasses lists which field types each constraint applies to.
var constraintClasses = []struct {
	attr    string
	applies typeClass
}{
	{"min", classNumber},
	{"max", classNumber},
	{"integer", classNumber},
	{"min_length", classString},
	{"max_length", classString},
	{"one_of", classString},
	{"format", classString},
	{"max_items", classList},
}

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func classOf(ty cty.Type) typeClass {
	var c typeClass
	if ty.IsListType() {
		c |= classList
		ty = ty.ElementType()
	}
	switch {
	case ty.Equals(cty.String):
		c |= classString
	case ty.Equals(cty.Number):
		c |= classNumber
	}
	return c
}

// parseFields decodes all 'field' blocks of an organism body in declaration
// order.
func parseFields(blocks hcl.Blocks) ([]*schema.Field, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	fields := make([]*schema.Field, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))

	for _, block := range blocks {
		// The schema guarantees us one label.
		name := block.Labels[0]

		if seen[name] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate field definition",
				Detail:   fmt.Sprintf("A field named '%s' has already been defined.", name),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[name] = true

		if !fieldNamePattern.MatchString(name) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid field name",
				Detail:   fmt.Sprintf("The field name %q must be a lowercase identifier like \"cta_button_url\".", name),
				Subject:  block.LabelRanges[0].Ptr(),
			})
			continue
		}

		f, fieldDiags := parseField(block, name)
		diags = append(diags, fieldDiags...)
		if fieldDiags.HasErrors() {
			continue
		}
		fields = append(fields, f)
	}

	return fields, diags
}

func parseField(block *hcl.Block, name string) (*schema.Field, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	content, contentDiags := block.Body.Content(fieldBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}
	attrs := content.Attributes

	// Manually check for the required 'type' attribute for a better error.
	typeAttr, exists := attrs["type"]
	if !exists {
		missingItemRange := block.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'type' attribute",
			Detail:   "The 'type' attribute is required for all field blocks.",
			Subject:  &missingItemRange,
		})
		return nil, diags
	}

	ty, typeDiags := hclutil.HCLTypeToCtyType(typeAttr.Expr)
	diags = append(diags, typeDiags...)
	if typeDiags.HasErrors() {
		return nil, diags
	}

	class := classOf(ty)
	for _, c := range constraintClasses {
		attr, ok := attrs[c.attr]
		if !ok || class&c.applies != 0 {
			continue
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Constraint not applicable",
			Detail:   fmt.Sprintf("The '%s' constraint cannot be used on field '%s' of type %s.", c.attr, name, hclutil.TypeName(ty)),
			Subject:  attr.NameRange.Ptr(),
		})
	}
	if attr, ok := attrs["format"]; ok && ty.IsListType() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Constraint not applicable",
			Detail:   fmt.Sprintf("The 'format' constraint cannot be used on list field '%s'.", name),
			Subject:  attr.NameRange.Ptr(),
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}

	f := &schema.Field{Name: name, Type: ty}

	decode := func(attrName string, target any) {
		if attr, ok := attrs[attrName]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, target)...)
		}
	}
	decode("label", &f.Label)
	decode("description", &f.Description)
	decode("required", &f.Required)
	decode("integer", &f.Integer)
	decode("min_length", &f.MinLength)
	decode("max_length", &f.MaxLength)
	decode("max_items", &f.MaxItems)
	decode("one_of", &f.OneOf)
	if _, ok := attrs["min"]; ok {
		f.Min = new(float64)
		decode("min", f.Min)
	}
	if _, ok := attrs["max"]; ok {
		f.Max = new(float64)
		decode("max", f.Max)
	}
	if attr, ok := attrs["format"]; ok {
		var raw string
		decode("format", &raw)
		format, err := schema.ParseFormat(raw)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid format",
				Detail:   err.Error(),
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
		f.Format = format
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid range",
			Detail:   fmt.Sprintf("Field '%s' declares min %g greater than max %g.", name, *f.Min, *f.Max),
			Subject:  &block.DefRange,
		})
	}

	if defaultAttr, ok := attrs["default"]; ok {
		// A nil eval context is used because defaults must be literal values.
		val, valDiags := defaultAttr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if !valDiags.HasErrors() {
			conformed, err := schema.Conform(val, ty)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid default value type",
					Detail:   fmt.Sprintf("The default value for '%s' is not compatible with its type, '%s': %s.", name, hclutil.TypeName(ty), err),
					Subject:  defaultAttr.Expr.Range().Ptr(),
				})
			} else {
				f.Default = conformed
			}
		}
	}

	return f, diags
}
