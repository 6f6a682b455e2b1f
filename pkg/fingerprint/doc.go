// Package fingerprint computes fixed-size, semantically stable identifiers
// for canonical descriptor trees.
//
// The hash is taken over a deterministic byte encoding of the tree's
// structure, never over rendered text, so formatting style changes cannot
// move fingerprints. All determinism lives in the encoding: every list is
// emitted in canonical order and every element is tagged and
// length-prefixed, so the hash itself is a plain SHA-256 digest.
//
// CRITICAL INVARIANT: inputs must already be canonical. Fingerprinting a
// non-canonical tree hashes whatever order the lists happen to be in.
// Changing the encoding invalidates every stored fingerprint; bump
// AlgorithmVersion when it changes.
package fingerprint
