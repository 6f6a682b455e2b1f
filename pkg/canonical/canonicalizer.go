package canonical

import (
	"sort"
	"strings"

	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

// Canonicalize validates a descriptor tree and returns its canonical form:
// every declaration list sorted into the canonical order, implicit values
// made explicit, and non-semantic annotations removed. The input is never
// mutated.
func Canonicalize(file *descriptor.File) (*descriptor.File, error) {
	if err := validate(file); err != nil {
		return nil, err
	}

	canonical := &descriptor.File{
		Package:    file.Package,
		Syntax:     file.Syntax,
		Imports:    canonicalImports(file.Imports),
		Options:    canonicalOptions(file.Options),
		Messages:   canonicalMessages(file.Messages, file.Syntax),
		Enums:      canonicalEnums(file.Enums),
		Services:   canonicalServices(file.Services),
		Extensions: canonicalExtensions(file.Extensions, file.Syntax),
	}
	return canonical, nil
}

// canonicalExtensions merges extend blocks per extendee, sorts blocks by
// extendee and fields by number.
func canonicalExtensions(extensions []*descriptor.Extension, syntax descriptor.Syntax) []*descriptor.Extension {
	if len(extensions) == 0 {
		return nil
	}
	byExtendee := make(map[string]*descriptor.Extension)
	order := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		block, ok := byExtendee[ext.Extendee]
		if !ok {
			block = &descriptor.Extension{Extendee: ext.Extendee}
			byExtendee[ext.Extendee] = block
			order = append(order, ext.Extendee)
		}
		block.Fields = append(block.Fields, ext.Fields...)
	}
	sort.Strings(order)
	out := make([]*descriptor.Extension, 0, len(order))
	for _, extendee := range order {
		block := byExtendee[extendee]
		block.Fields = canonicalFields(block.Fields, syntax)
		out = append(out, block)
	}
	return out
}

// canonicalImports deduplicates imports by path and sorts them. A path
// imported both plainly and publicly keeps the stronger modifier.
func canonicalImports(imports []descriptor.Import) []descriptor.Import {
	byPath := make(map[string]descriptor.Import, len(imports))
	for _, imp := range imports {
		merged := byPath[imp.Path]
		merged.Path = imp.Path
		merged.Public = merged.Public || imp.Public
		merged.Weak = merged.Weak || imp.Weak
		byPath[imp.Path] = merged
	}
	out := make([]descriptor.Import, 0, len(byPath))
	for _, imp := range byPath {
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func canonicalOptions(options []descriptor.Option) []descriptor.Option {
	if len(options) == 0 {
		return nil
	}
	out := make([]descriptor.Option, len(options))
	copy(out, options)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func canonicalMessages(messages []*descriptor.Message, syntax descriptor.Syntax) []*descriptor.Message {
	if len(messages) == 0 {
		return nil
	}
	out := make([]*descriptor.Message, len(messages))
	for i, msg := range messages {
		out[i] = canonicalMessage(msg, syntax)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func canonicalMessage(msg *descriptor.Message, syntax descriptor.Syntax) *descriptor.Message {
	out := &descriptor.Message{
		Name:            msg.Name,
		Fields:          canonicalFields(msg.Fields, syntax),
		Oneofs:          canonicalOneofs(msg.Oneofs, syntax),
		Nested:          canonicalMessages(msg.Nested, syntax),
		Enums:           canonicalEnums(msg.Enums),
		Extensions:      canonicalExtensions(msg.Extensions, syntax),
		ReservedRanges:  canonicalRanges(msg.ReservedRanges),
		ReservedNames:   canonicalNames(msg.ReservedNames),
		ExtensionRanges: canonicalRanges(msg.ExtensionRanges),
		Options:         canonicalOptions(msg.Options),
	}
	return out
}

func canonicalFields(fields []*descriptor.Field, syntax descriptor.Syntax) []*descriptor.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]*descriptor.Field, len(fields))
	for i, field := range fields {
		out[i] = canonicalField(field, syntax)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func canonicalField(field *descriptor.Field, syntax descriptor.Syntax) *descriptor.Field {
	out := &descriptor.Field{
		Name:        field.Name,
		Number:      field.Number,
		TypeName:    field.TypeName,
		Kind:        field.Kind,
		Cardinality: field.Cardinality,
		Default:     field.Default,
		JSONName:    field.JSONName,
		Options:     canonicalOptions(field.Options),
	}
	// Make implicit defaults explicit: an unlabeled proto2 field is
	// optional, and a field without a JSON name gets the derived one.
	if syntax == descriptor.SyntaxProto2 && out.Cardinality == descriptor.CardinalitySingular {
		out.Cardinality = descriptor.CardinalityOptional
	}
	if out.JSONName == "" {
		out.JSONName = JSONName(out.Name)
	}
	return out
}

func canonicalOneofs(oneofs []*descriptor.Oneof, syntax descriptor.Syntax) []*descriptor.Oneof {
	if len(oneofs) == 0 {
		return nil
	}
	out := make([]*descriptor.Oneof, len(oneofs))
	for i, oneof := range oneofs {
		out[i] = &descriptor.Oneof{
			Name:   oneof.Name,
			Fields: canonicalFields(oneof.Fields, syntax),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func canonicalEnums(enums []*descriptor.Enum) []*descriptor.Enum {
	if len(enums) == 0 {
		return nil
	}
	out := make([]*descriptor.Enum, len(enums))
	for i, enum := range enums {
		values := make([]descriptor.EnumValue, len(enum.Values))
		for j, value := range enum.Values {
			values[j] = descriptor.EnumValue{
				Name:    value.Name,
				Number:  value.Number,
				Options: canonicalOptions(value.Options),
			}
		}
		sort.Slice(values, func(a, b int) bool {
			if values[a].Number != values[b].Number {
				return values[a].Number < values[b].Number
			}
			return values[a].Name < values[b].Name
		})
		out[i] = &descriptor.Enum{
			Name:           enum.Name,
			Values:         values,
			AllowAlias:     enum.AllowAlias,
			ReservedRanges: canonicalRanges(enum.ReservedRanges),
			ReservedNames:  canonicalNames(enum.ReservedNames),
			Options:        canonicalOptions(enum.Options),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func canonicalServices(services []*descriptor.Service) []*descriptor.Service {
	if len(services) == 0 {
		return nil
	}
	out := make([]*descriptor.Service, len(services))
	for i, svc := range services {
		methods := make([]*descriptor.Method, len(svc.Methods))
		for j, method := range svc.Methods {
			methods[j] = &descriptor.Method{
				Name:            method.Name,
				InputType:       method.InputType,
				OutputType:      method.OutputType,
				ClientStreaming: method.ClientStreaming,
				ServerStreaming: method.ServerStreaming,
				Options:         canonicalOptions(method.Options),
			}
		}
		sort.Slice(methods, func(a, b int) bool { return methods[a].Name < methods[b].Name })
		out[i] = &descriptor.Service{
			Name:    svc.Name,
			Methods: methods,
			Options: canonicalOptions(svc.Options),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func canonicalRanges(ranges []descriptor.Range) []descriptor.Range {
	if len(ranges) == 0 {
		return nil
	}
	out := make([]descriptor.Range, len(ranges))
	copy(out, ranges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

func canonicalNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}

// JSONName derives the default JSON name for a field: snake_case converted
// to lowerCamelCase, matching protoc's derivation.
func JSONName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upperNext := false
	for _, ch := range name {
		switch {
		case ch == '_':
			upperNext = true
		case upperNext && ch >= 'a' && ch <= 'z':
			b.WriteRune(ch - 'a' + 'A')
			upperNext = false
		default:
			b.WriteRune(ch)
			upperNext = false
		}
	}
	return b.String()
}
