// Package hclutil collects small helpers for decoding organism descriptors
// with hashicorp/hcl: type keyword translation, unique block lookup and
// source range formatting used in diagnostics.
package hclutil
