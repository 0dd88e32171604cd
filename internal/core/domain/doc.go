// Package domain defines the core business entities for loam.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - EntityMetadata: A catalog row mapping a logical entity to its table
//   - HierarchyNode: One node of a tree extracted from flat rows
//   - Table: Rows produced by a connector, ready for bulk load
//   - ImportResult: The phase-tagged outcome of an import run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
