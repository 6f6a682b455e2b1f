package merge

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/actor-rtc/proto-regulate/pkg/canonical"
	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
	"github.com/actor-rtc/proto-regulate/pkg/fingerprint"
	"github.com/actor-rtc/proto-regulate/pkg/render"
)

// Options configures a merge run.
type Options struct {
	// MaxWorkers caps the number of package groups merged concurrently.
	MaxWorkers int
}

// DefaultOptions returns the default merge configuration.
func DefaultOptions() *Options {
	return &Options{
		MaxWorkers: runtime.GOMAXPROCS(0),
	}
}

// Result is the merged schema for one package group.
type Result struct {
	// Package is the declared package name, empty for files without one.
	Package     string
	Content     string
	Fingerprint fingerprint.Value
	// Warnings records declarations that were deduplicated silently.
	Warnings []string
}

type member struct {
	index int
	file  *descriptor.File
}

// ByPackage canonicalizes every input tree, groups the trees by declared
// package, and merges each group into one rendered schema. Inputs with no
// package form their own group under the empty key.
//
// Groups are independent: a conflict in one group does not prevent others
// from merging. The returned results cover every group that succeeded,
// sorted by package name; the returned error, if any, is the failure of the
// first (lowest-sorting) group that did not.
func ByPackage(files []*descriptor.File, opts *Options) ([]Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	canon := make([]*descriptor.File, len(files))
	for i, file := range files {
		c, err := canonical.Canonicalize(file)
		if err != nil {
			return nil, &InputError{Index: i, Err: err}
		}
		canon[i] = c
	}

	groups := make(map[string][]member)
	for i, file := range canon {
		groups[file.Package] = append(groups[file.Package], member{index: i, file: file})
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := make([]*Result, len(keys))
	failures := make([]error, len(keys))

	g, _ := errgroup.WithContext(context.Background())
	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			result, err := mergeGroup(key, groups[key])
			if err != nil {
				failures[i] = err
				return nil
			}
			merged[i] = result
			return nil
		})
	}
	_ = g.Wait() // workers report through failures, never through errgroup

	results := make([]Result, 0, len(keys))
	var firstErr error
	for i := range keys {
		if failures[i] != nil {
			if firstErr == nil {
				firstErr = failures[i]
			}
			continue
		}
		results = append(results, *merged[i])
	}
	return results, firstErr
}

// Texts parses each source text and merges the parsed trees with ByPackage.
func Texts(texts []string, opts *Options) ([]Result, error) {
	files := make([]*descriptor.File, len(texts))
	for i, text := range texts {
		file, err := descriptor.Parse(fmt.Sprintf("input-%d.proto", i), text)
		if err != nil {
			return nil, &InputError{Index: i, Err: err}
		}
		files[i] = file
	}
	return ByPackage(files, opts)
}

// occurrence is one top-level declaration contributed by a group member.
// enc is the structural encoding used for identity: two declarations are
// the same exactly when their encodings are byte-equal.
type occurrence struct {
	kind    string
	name    string
	enc     string
	members []int

	message *descriptor.Message
	enum    *descriptor.Enum
	service *descriptor.Service
}

// declKey scopes declaration identity per kind, mirroring the validator's
// per-kind sibling uniqueness: message Foo and enum Foo may coexist.
func declKey(name, kind string) string {
	return name + "\x00" + kind
}

func mergeGroup(pkg string, members []member) (*Result, error) {
	if err := checkSyntax(pkg, members); err != nil {
		return nil, err
	}

	merged := &descriptor.File{
		Package: pkg,
		Syntax:  members[0].file.Syntax,
	}
	for _, m := range members {
		merged.Imports = append(merged.Imports, m.file.Imports...)
	}

	options, err := unionOptions(pkg, members)
	if err != nil {
		return nil, err
	}
	merged.Options = options

	decls := make(map[string][]*occurrence)
	keys := make([]string, 0)
	record := func(occ *occurrence, index int) {
		key := declKey(occ.name, occ.kind)
		existing := decls[key]
		for _, prev := range existing {
			if prev.enc == occ.enc {
				prev.members = append(prev.members, index)
				return
			}
		}
		if len(existing) == 0 {
			keys = append(keys, key)
		}
		occ.members = []int{index}
		decls[key] = append(existing, occ)
	}
	for _, m := range members {
		for _, msg := range m.file.Messages {
			record(&occurrence{
				kind:    "message",
				name:    msg.Name,
				enc:     string(fingerprint.EncodeMessage(msg)),
				message: msg,
			}, m.index)
		}
		for _, enum := range m.file.Enums {
			record(&occurrence{
				kind: "enum",
				name: enum.Name,
				enc:  string(fingerprint.EncodeEnum(enum)),
				enum: enum,
			}, m.index)
		}
		for _, svc := range m.file.Services {
			record(&occurrence{
				kind:    "service",
				name:    svc.Name,
				enc:     string(fingerprint.EncodeService(svc)),
				service: svc,
			}, m.index)
		}
	}

	sort.Strings(keys)
	var warnings []string
	for _, key := range keys {
		variants := decls[key]
		if len(variants) > 1 {
			indices := make([]int, 0)
			for _, v := range variants {
				indices = append(indices, v.members...)
			}
			sort.Ints(indices)
			return nil, &TypeConflict{Package: pkg, Name: variants[0].name, Members: indices}
		}
		occ := variants[0]
		if len(occ.members) > 1 {
			sort.Ints(occ.members)
			warnings = append(warnings, fmt.Sprintf(
				"%s %q declared identically by inputs %v, kept one", occ.kind, occ.name, occ.members))
		}
		switch occ.kind {
		case "message":
			merged.Messages = append(merged.Messages, occ.message)
		case "enum":
			merged.Enums = append(merged.Enums, occ.enum)
		case "service":
			merged.Services = append(merged.Services, occ.service)
		}
	}

	extensions, extWarnings, err := unionExtensions(pkg, members)
	if err != nil {
		return nil, err
	}
	merged.Extensions = extensions
	warnings = append(warnings, extWarnings...)

	// The union is built from canonical parts but is not itself ordered.
	canon, err := canonical.Canonicalize(merged)
	if err != nil {
		return nil, err
	}
	content, err := render.File(canon)
	if err != nil {
		return nil, err
	}
	return &Result{
		Package:     pkg,
		Content:     content,
		Fingerprint: fingerprint.Compute(canon),
		Warnings:    warnings,
	}, nil
}

func checkSyntax(pkg string, members []member) error {
	seen := make(map[string]bool)
	syntaxes := make([]string, 0, 2)
	for _, m := range members {
		s := m.file.Syntax.String()
		if !seen[s] {
			seen[s] = true
			syntaxes = append(syntaxes, s)
		}
	}
	if len(syntaxes) > 1 {
		sort.Strings(syntaxes)
		return &SyntaxConflict{Package: pkg, Syntaxes: syntaxes}
	}
	return nil
}

// unionOptions merges file options across the group. The same key must carry
// a structurally equal value everywhere it appears; the conflict scan is
// name-sorted so the reported key does not depend on input order.
func unionOptions(pkg string, members []member) ([]descriptor.Option, error) {
	byKey := make(map[string][]descriptor.Option)
	keys := make([]string, 0)
	for _, m := range members {
		for _, opt := range m.file.Options {
			if _, ok := byKey[opt.Name]; !ok {
				keys = append(keys, opt.Name)
			}
			byKey[opt.Name] = append(byKey[opt.Name], opt)
		}
	}
	sort.Strings(keys)
	options := make([]descriptor.Option, 0, len(keys))
	for _, key := range keys {
		values := byKey[key]
		for _, opt := range values[1:] {
			if opt.Value != values[0].Value || opt.Kind != values[0].Kind {
				return nil, &OptionConflict{Package: pkg, Key: key}
			}
		}
		options = append(options, values[0])
	}
	return options, nil
}

// extVariant is one extension field contributed by a group member, identified
// by (extendee, field number) with the field encoding as the identity.
type extVariant struct {
	extendee string
	enc      string
	members  []int
	field    *descriptor.Field
}

// unionExtensions merges extension fields across the group by (extendee,
// field number). The same number on the same extendee must carry a
// structurally equal field everywhere it appears. The result is one block
// per extendee; canonicalization orders blocks and fields afterwards.
func unionExtensions(pkg string, members []member) ([]*descriptor.Extension, []string, error) {
	byNumber := make(map[string][]*extVariant)
	keys := make([]string, 0)
	for _, m := range members {
		for _, ext := range m.file.Extensions {
			for _, field := range ext.Fields {
				key := fmt.Sprintf("%s\x00%010d", ext.Extendee, field.Number)
				enc := string(fingerprint.EncodeField(field))
				variants := byNumber[key]
				matched := false
				for _, prev := range variants {
					if prev.enc == enc {
						prev.members = append(prev.members, m.index)
						matched = true
						break
					}
				}
				if matched {
					continue
				}
				if len(variants) == 0 {
					keys = append(keys, key)
				}
				byNumber[key] = append(variants, &extVariant{
					extendee: ext.Extendee,
					enc:      enc,
					members:  []int{m.index},
					field:    field,
				})
			}
		}
	}

	sort.Strings(keys)
	var warnings []string
	fields := make(map[string][]*descriptor.Field)
	extendees := make([]string, 0)
	for _, key := range keys {
		variants := byNumber[key]
		if len(variants) > 1 {
			indices := make([]int, 0)
			for _, v := range variants {
				indices = append(indices, v.members...)
			}
			sort.Ints(indices)
			name := fmt.Sprintf("%s extension %d", variants[0].extendee, variants[0].field.Number)
			return nil, nil, &TypeConflict{Package: pkg, Name: name, Members: indices}
		}
		v := variants[0]
		if len(v.members) > 1 {
			sort.Ints(v.members)
			warnings = append(warnings, fmt.Sprintf(
				"extension %d on %q declared identically by inputs %v, kept one",
				v.field.Number, v.extendee, v.members))
		}
		if _, ok := fields[v.extendee]; !ok {
			extendees = append(extendees, v.extendee)
		}
		fields[v.extendee] = append(fields[v.extendee], v.field)
	}

	extensions := make([]*descriptor.Extension, 0, len(extendees))
	for _, extendee := range extendees {
		extensions = append(extensions, &descriptor.Extension{
			Extendee: extendee,
			Fields:   fields[extendee],
		})
	}
	return extensions, warnings, nil
}
