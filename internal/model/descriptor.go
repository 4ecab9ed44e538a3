// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Descriptor, the parsed form of one `organism` block,
// and the parser that builds descriptors from an HCL file.
//
// A descriptor file holds one or more blocks of the form:
//
//	organism "hero-section" {
//	  display_name = "Hero Section"
//	  category     = "sections"
//	  capabilities = ["draggable", "configurable"]
//
//	  field "title" {
//	    type     = string
//	    required = true
//	    default  = "Welcome"
//	  }
//	}
//
// Problems are reported as hcl.Diagnostics with source ranges. A block with
// errors is dropped while the rest of the file is still parsed, so a single
// pass reports everything that is wrong.
package model

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/hclutil"
	"github.com/specialistvlad/pagegrid/internal/schema"
)

// DefaultVersion is assumed for descriptors that do not declare a version.
const DefaultVersion = "1.0.0"

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)

// Descriptor is the format-agnostic representation of an organism descriptor.
type Descriptor struct {
	Metadata
	Schema        *schema.Schema
	FSInformation *FSInfo
	// DefRange is the range of the `organism "id"` header.
	DefRange hcl.Range
}

// Source names where the descriptor was declared, as "file:line".
func (d *Descriptor) Source() string {
	return hclutil.Position(d.DefRange)
}

// NewDescriptors parses every organism block of hclFile and returns an error
// if any of them is malformed.
func NewDescriptors(ctx context.Context, hclFile *hcl.File, filePath string) ([]*Descriptor, error) {
	descriptors, diags := ParseDescriptorFile(ctx, hclFile, filePath)
	if diags.HasErrors() {
		return nil, diags
	}
	return descriptors, nil
}

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "organism", LabelNames: []string{"id"}},
	},
}

var organismBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// display_name and category are required, but their presence is
		// checked manually for a clearer message.
		{Name: "display_name"},
		{Name: "category"},
		{Name: "version"},
		{Name: "thumbnail"},
		{Name: "description"},
		{Name: "capabilities"},
		{Name: "aliases"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "field", LabelNames: []string{"name"}},
	},
}

// ParseDescriptorFile decodes all organism blocks of a file. Descriptors that
// parsed cleanly are returned even when other blocks produced errors.
func ParseDescriptorFile(ctx context.Context, hclFile *hcl.File, filePath string) ([]*Descriptor, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing organism descriptors from file", "file_path", filePath)

	var allDiags hcl.Diagnostics
	if hclFile == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
			Detail:   fmt.Sprintf("No parsed content was provided for %s.", filePath),
		})
		return nil, allDiags
	}

	content, diags := hclFile.Body.Content(rootSchema)
	allDiags = append(allDiags, diags...)

	descriptors := make([]*Descriptor, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		d, blockDiags := parseOrganismBlock(block, filePath)
		allDiags = append(allDiags, blockDiags...)
		if blockDiags.HasErrors() {
			continue // Skip this organism but keep parsing the others.
		}
		descriptors = append(descriptors, d)
	}

	if len(descriptors) == 0 && !allDiags.HasErrors() {
		logger.Warn("Descriptor file declares no organisms", "file_path", filePath)
	}
	logger.Debug("Parsed organism descriptors", "file_path", filePath, "count", len(descriptors))
	return descriptors, allDiags
}

func parseOrganismBlock(block *hcl.Block, filePath string) (*Descriptor, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	id := block.Labels[0]
	if !ValidID(id) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid organism id",
			Detail:   fmt.Sprintf("The id %q must be lowercase words separated by single dashes, like \"hero-section\".", id),
			Subject:  block.LabelRanges[0].Ptr(),
		})
	}

	content, contentDiags := block.Body.Content(organismBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	d := &Descriptor{
		Metadata: Metadata{
			ID:           id,
			Version:      DefaultVersion,
			Capabilities: []string{},
		},
		FSInformation: NewFSInfo(filePath),
		DefRange:      block.DefRange,
	}

	for _, name := range []string{"display_name", "category"} {
		if _, ok := content.Attributes[name]; !ok {
			missing := block.Body.MissingItemRange()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Missing '%s' attribute", name),
				Detail:   fmt.Sprintf("Organism %q must declare '%s'.", id, name),
				Subject:  &missing,
			})
		}
	}

	stringAttrs := []struct {
		name   string
		target *string
	}{
		{"display_name", &d.DisplayName},
		{"category", &d.Category},
		{"version", &d.Version},
		{"thumbnail", &d.Thumbnail},
		{"description", &d.Description},
	}
	for _, sa := range stringAttrs {
		if attr, ok := content.Attributes[sa.name]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, sa.target)...)
		}
	}
	if attr, ok := content.Attributes["display_name"]; ok && d.DisplayName == "" && !diags.HasErrors() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Empty 'display_name' attribute",
			Detail:   "The display name is shown in the builder palette and must not be empty.",
			Subject:  attr.Expr.Range().Ptr(),
		})
	}
	if attr, ok := content.Attributes["version"]; ok && !versionPattern.MatchString(d.Version) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid version",
			Detail:   fmt.Sprintf("The version %q is not a semantic version like \"1.2.0\".", d.Version),
			Subject:  attr.Expr.Range().Ptr(),
		})
	}

	if attr, ok := content.Attributes["capabilities"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &d.Capabilities)...)
	}
	if attr, ok := content.Attributes["aliases"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &d.Aliases)...)
		for _, alias := range d.Aliases {
			if !ValidID(alias) || alias == id {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid alias",
					Detail:   fmt.Sprintf("The alias %q of organism %q must be a well-formed id different from the organism id.", alias, id),
					Subject:  attr.Expr.Range().Ptr(),
				})
			}
		}
	}

	fields, fieldDiags := parseFields(content.Blocks.OfType("field"))
	diags = append(diags, fieldDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	s, err := schema.New(fields...)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid configuration schema",
			Detail:   err.Error(),
			Subject:  block.DefRange.Ptr(),
		})
		return nil, diags
	}
	d.Schema = s

	return d, diags
}
