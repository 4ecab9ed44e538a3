// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of organism descriptors, the
// static HCL files that declare what an organism is and how it is configured.
//
// # Core Concepts
//
//   - Metadata: the identity of an organism as shown in the builder palette
//     (id, display name, category, thumbnail, capabilities, aliases).
//
//   - Descriptor: Metadata plus the organism's configuration schema, parsed
//     from one `organism` block.
//
//   - FSInfo: links every Descriptor back to the file it was declared in, so
//     collisions and parity problems can name both sides.
//
// The package only turns HCL into typed values and reports hcl.Diagnostics.
// Cross-descriptor checks such as id collisions belong to the registry.
package model
