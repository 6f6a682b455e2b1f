// Package render serializes canonical descriptor trees back to proto source
// text in a fixed, versioned style.
//
// Declaration order in the output exactly follows the tree; render a
// canonical tree to get canonical text. Structurally equal inputs always
// produce byte-identical output. StyleVersion pins the formatting rules;
// increment it when the output format changes.
package render
