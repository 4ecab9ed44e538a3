// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"regexp"
	"slices"
)

// Well-known capability tags. Descriptors may declare others; the builder
// ignores tags it does not understand.
const (
	CapabilityDraggable    = "draggable"
	CapabilityConfigurable = "configurable"
	CapabilityRepeatable   = "repeatable"
)

// idPattern is the shape of an OrganismId and of every alias.
var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidID reports whether s is a well-formed organism id.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}

// Metadata is the immutable palette entry of an organism.
type Metadata struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Category     string   `json:"category"`
	Version      string   `json:"version,omitempty"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities"`
	Aliases      []string `json:"aliases,omitempty"`
}

// HasCapability reports whether the organism declares the given tag.
func (m Metadata) HasCapability(tag string) bool {
	return slices.Contains(m.Capabilities, tag)
}

// Clone returns a deep copy, so callers can never mutate registry state.
func (m Metadata) Clone() Metadata {
	m.Capabilities = slices.Clone(m.Capabilities)
	m.Aliases = slices.Clone(m.Aliases)
	return m
}
