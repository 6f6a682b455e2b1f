// Package regulate is the high-level entry point tying parsing,
// canonicalization, merging, rendering and fingerprinting together behind a
// single Engine with an expiring in-memory result cache.
//
// Callers that only need one-off operations can use the package-level
// functions, which share a default engine.
package regulate
