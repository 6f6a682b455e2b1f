// Package merge combines canonical descriptor trees that declare the same
// protobuf package into a single rendered and fingerprinted schema.
//
// Inputs are grouped by declared package name, each group is unioned
// independently, and groups are processed in parallel. Structurally
// identical duplicate declarations are deduplicated silently; declarations
// that share a name but differ structurally abort the owning group with a
// TypeConflict while other groups still succeed.
package merge
