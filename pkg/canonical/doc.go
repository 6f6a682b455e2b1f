// Package canonical validates descriptor trees and produces their canonical
// form.
//
// # Canonical order
//
// All sibling declarations are ordered by kind (message < enum < service,
// which the tree encodes structurally) and then lexicographically by name.
// Fields sort by declared number, enum values by number then name, options
// by key, and imports form a sorted set. The order is a pure function of the
// tree's content; source declaration order never survives.
//
// # Validation
//
// Canonicalize checks the tree's structural invariants before normalizing:
// field number uniqueness across fields, reserved ranges, and extension
// ranges; sibling name uniqueness per declaration kind; identifier and
// package syntax; enum number uniqueness when aliasing is disallowed.
// Violations are reported as *ValidationError with a kind and the dotted
// location of the offending declaration. Nothing is silently corrected.
//
// Canonicalize never mutates its input; it returns a fresh tree with
// implicit values made explicit and non-semantic annotations removed. It is
// idempotent: canonicalizing a canonical tree returns an equal tree.
package canonical
