package merge

import (
	"fmt"
	"strings"
)

// InputError tags an error with the index of the input that caused it.
type InputError struct {
	Index int
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// TypeConflict reports two or more inputs declaring the same top-level name
// in one package with structurally different definitions. Members holds the
// indices of every input that declared the name.
type TypeConflict struct {
	Package string
	Name    string
	Members []int
}

func (e *TypeConflict) Error() string {
	return fmt.Sprintf("package %q: conflicting declarations of %q across inputs %v",
		e.Package, e.Name, e.Members)
}

// OptionConflict reports the same file option set to different values by
// members of one package group.
type OptionConflict struct {
	Package string
	Key     string
}

func (e *OptionConflict) Error() string {
	return fmt.Sprintf("package %q: conflicting values for option %q", e.Package, e.Key)
}

// SyntaxConflict reports members of one package group declaring different
// syntax levels.
type SyntaxConflict struct {
	Package  string
	Syntaxes []string
}

func (e *SyntaxConflict) Error() string {
	return fmt.Sprintf("package %q: mixed syntax levels %s",
		e.Package, strings.Join(e.Syntaxes, ", "))
}
