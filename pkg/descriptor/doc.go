// Package descriptor defines the in-memory representation of a parsed
// protobuf schema file and the parser adapter that produces it.
//
// # Overview
//
// A File is the root of a descriptor tree: the declared package, syntax
// edition, imports, top-level messages, enums, services, and file options.
// The tree is independent of source formatting; comments and the originating
// file path are carried only as non-semantic annotations and never take part
// in ordering, rendering, or fingerprinting.
//
// Parse turns proto source text into a File using protocompile. A parsed
// tree preserves declaration order as written; use the canonical package to
// obtain the sorted, validated normal form.
package descriptor
