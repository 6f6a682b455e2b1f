// Package cli provides the proto-regulate command-line interface.
//
// # Commands
//
// normalize: canonicalize one file to stdout or a file
//
//	proto-regulate normalize --file user.proto
//	proto-regulate normalize --file user.proto --output user.canonical.proto
//
// Directory mode merges every proto file under --dir by declared package and
// writes one file per package into --output:
//
//	proto-regulate normalize --dir ./proto --output ./canonical
//	proto-regulate normalize --dir ./proto --output ./canonical --watch
//
// merge: merge explicit files (or a directory) by declared package
//
//	proto-regulate merge user.proto account.proto
//	proto-regulate merge --dir ./proto --output ./merged
//
// Without --output the merged schemas go to stdout, each preceded by its
// package and fingerprint.
//
// fingerprint: print the canonical fingerprint of a file
//
//	proto-regulate fingerprint --file user.proto
//
// inspect: dump the parsed descriptor tree as JSON
//
//	proto-regulate inspect --file user.proto --canonical
//
// # Configuration
//
// Settings come from an optional YAML file (--config) overlaid with
// PROTO_REGULATE_* environment variables; see pkg/config.
package cli
