package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/actor-rtc/proto-regulate/pkg/canonical"
	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

// StyleVersion pins the output format. Increment when the rendered text of
// an unchanged tree would change.
const StyleVersion = "1.0.0"

// Max declarable field number; reserved and extension ranges ending here
// render as "to max".
const maxFieldNumber = 536870911

// UnrepresentableError reports a tree construct the renderer has no textual
// form for.
type UnrepresentableError struct {
	Construct string
}

func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf("cannot render %s", e.Construct)
}

// Renderer serializes descriptor trees to proto source text.
type Renderer struct {
	indent string
}

// NewRenderer creates a renderer using the fixed two-space style.
func NewRenderer() *Renderer {
	return &Renderer{indent: "  "}
}

// File is a convenience wrapper around NewRenderer().Render.
func File(file *descriptor.File) (string, error) {
	return NewRenderer().Render(file)
}

// Render serializes a tree. Declarations are emitted in tree order; pass a
// canonical tree to obtain canonical text.
func (r *Renderer) Render(file *descriptor.File) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "syntax = %q;\n", file.Syntax.String())

	if file.Package != "" {
		fmt.Fprintf(&b, "\npackage %s;\n", file.Package)
	}

	if len(file.Imports) > 0 {
		b.WriteString("\n")
		for _, imp := range file.Imports {
			modifier := ""
			if imp.Public {
				modifier = "public "
			} else if imp.Weak {
				modifier = "weak "
			}
			fmt.Fprintf(&b, "import %s%q;\n", modifier, imp.Path)
		}
	}

	if len(file.Options) > 0 {
		b.WriteString("\n")
		for _, opt := range file.Options {
			value, err := optionValue(opt)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "option %s = %s;\n", opt.Name, value)
		}
	}

	for _, msg := range file.Messages {
		b.WriteString("\n")
		if err := r.writeMessage(&b, msg, file.Syntax, 0); err != nil {
			return "", err
		}
	}
	for _, enum := range file.Enums {
		b.WriteString("\n")
		if err := r.writeEnum(&b, enum, 0); err != nil {
			return "", err
		}
	}
	for _, ext := range file.Extensions {
		b.WriteString("\n")
		if err := r.writeExtension(&b, ext, file.Syntax, 0); err != nil {
			return "", err
		}
	}
	for _, svc := range file.Services {
		b.WriteString("\n")
		if err := r.writeService(&b, svc); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

func (r *Renderer) writeMessage(b *strings.Builder, msg *descriptor.Message, syntax descriptor.Syntax, depth int) error {
	indent := strings.Repeat(r.indent, depth)
	fmt.Fprintf(b, "%smessage %s {\n", indent, msg.Name)

	inner := indent + r.indent
	for _, opt := range msg.Options {
		value, err := optionValue(opt)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%soption %s = %s;\n", inner, opt.Name, value)
	}
	for _, enum := range msg.Enums {
		if err := r.writeEnum(b, enum, depth+1); err != nil {
			return err
		}
	}
	for _, nested := range msg.Nested {
		if err := r.writeMessage(b, nested, syntax, depth+1); err != nil {
			return err
		}
	}
	for _, field := range msg.Fields {
		if err := r.writeField(b, field, syntax, depth+1, false); err != nil {
			return err
		}
	}
	for _, oneof := range msg.Oneofs {
		fmt.Fprintf(b, "%soneof %s {\n", inner, oneof.Name)
		for _, field := range oneof.Fields {
			if err := r.writeField(b, field, syntax, depth+2, true); err != nil {
				return err
			}
		}
		fmt.Fprintf(b, "%s}\n", inner)
	}
	for _, ext := range msg.Extensions {
		if err := r.writeExtension(b, ext, syntax, depth+1); err != nil {
			return err
		}
	}
	for _, ext := range msg.ExtensionRanges {
		fmt.Fprintf(b, "%sextensions %s;\n", inner, formatRange(ext, maxFieldNumber))
	}
	if len(msg.ReservedRanges) > 0 {
		parts := make([]string, len(msg.ReservedRanges))
		for i, res := range msg.ReservedRanges {
			parts[i] = formatRange(res, maxFieldNumber)
		}
		fmt.Fprintf(b, "%sreserved %s;\n", inner, strings.Join(parts, ", "))
	}
	if len(msg.ReservedNames) > 0 {
		parts := make([]string, len(msg.ReservedNames))
		for i, name := range msg.ReservedNames {
			parts[i] = fmt.Sprintf("%q", name)
		}
		fmt.Fprintf(b, "%sreserved %s;\n", inner, strings.Join(parts, ", "))
	}

	fmt.Fprintf(b, "%s}\n", indent)
	return nil
}

// writeField emits one field declaration. Fields inside a oneof never take
// a label, whatever their cardinality says.
func (r *Renderer) writeField(b *strings.Builder, field *descriptor.Field, syntax descriptor.Syntax, depth int, inOneof bool) error {
	indent := strings.Repeat(r.indent, depth)

	label := ""
	if !inOneof {
		switch field.Cardinality {
		case descriptor.CardinalityRepeated:
			label = "repeated "
		case descriptor.CardinalityRequired:
			label = "required "
		case descriptor.CardinalityOptional:
			label = "optional "
		}
	}

	fmt.Fprintf(b, "%s%s%s %s = %d", indent, label, field.TypeName, field.Name, field.Number)

	opts, err := fieldOptionList(field, syntax)
	if err != nil {
		return err
	}
	if len(opts) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(opts, ", "))
	}
	b.WriteString(";\n")
	return nil
}

// fieldOptionList builds the bracketed option list for a field: declared
// options first (already key-sorted in canonical trees), then the proto2
// default, then an explicit json_name when it differs from the derived one.
func fieldOptionList(field *descriptor.Field, syntax descriptor.Syntax) ([]string, error) {
	var opts []string
	for _, opt := range field.Options {
		value, err := optionValue(opt)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fmt.Sprintf("%s = %s", opt.Name, value))
	}
	if field.Default != "" && syntax == descriptor.SyntaxProto2 {
		if field.Kind == descriptor.KindScalar && (field.TypeName == "string" || field.TypeName == "bytes") {
			opts = append(opts, fmt.Sprintf("default = %q", field.Default))
		} else {
			opts = append(opts, fmt.Sprintf("default = %s", field.Default))
		}
	}
	if field.JSONName != "" && field.JSONName != canonical.JSONName(field.Name) {
		opts = append(opts, fmt.Sprintf("json_name = %q", field.JSONName))
	}
	return opts, nil
}

func (r *Renderer) writeExtension(b *strings.Builder, ext *descriptor.Extension, syntax descriptor.Syntax, depth int) error {
	indent := strings.Repeat(r.indent, depth)
	fmt.Fprintf(b, "%sextend %s {\n", indent, ext.Extendee)
	for _, field := range ext.Fields {
		if err := r.writeField(b, field, syntax, depth+1, false); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, "%s}\n", indent)
	return nil
}

func (r *Renderer) writeEnum(b *strings.Builder, enum *descriptor.Enum, depth int) error {
	indent := strings.Repeat(r.indent, depth)
	inner := indent + r.indent
	fmt.Fprintf(b, "%senum %s {\n", indent, enum.Name)

	if enum.AllowAlias {
		fmt.Fprintf(b, "%soption allow_alias = true;\n", inner)
	}
	for _, opt := range enum.Options {
		value, err := optionValue(opt)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%soption %s = %s;\n", inner, opt.Name, value)
	}
	for _, value := range enum.Values {
		fmt.Fprintf(b, "%s%s = %d", inner, value.Name, value.Number)
		opts := make([]string, 0, len(value.Options))
		for _, opt := range value.Options {
			rendered, err := optionValue(opt)
			if err != nil {
				return err
			}
			opts = append(opts, fmt.Sprintf("%s = %s", opt.Name, rendered))
		}
		if len(opts) > 0 {
			fmt.Fprintf(b, " [%s]", strings.Join(opts, ", "))
		}
		b.WriteString(";\n")
	}
	if len(enum.ReservedRanges) > 0 {
		parts := make([]string, len(enum.ReservedRanges))
		for i, res := range enum.ReservedRanges {
			parts[i] = formatRange(res, math.MaxInt32)
		}
		fmt.Fprintf(b, "%sreserved %s;\n", inner, strings.Join(parts, ", "))
	}
	if len(enum.ReservedNames) > 0 {
		parts := make([]string, len(enum.ReservedNames))
		for i, name := range enum.ReservedNames {
			parts[i] = fmt.Sprintf("%q", name)
		}
		fmt.Fprintf(b, "%sreserved %s;\n", inner, strings.Join(parts, ", "))
	}

	fmt.Fprintf(b, "%s}\n", indent)
	return nil
}

func (r *Renderer) writeService(b *strings.Builder, svc *descriptor.Service) error {
	fmt.Fprintf(b, "service %s {\n", svc.Name)

	for _, opt := range svc.Options {
		value, err := optionValue(opt)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%soption %s = %s;\n", r.indent, opt.Name, value)
	}
	for _, method := range svc.Methods {
		input := method.InputType
		if method.ClientStreaming {
			input = "stream " + input
		}
		output := method.OutputType
		if method.ServerStreaming {
			output = "stream " + output
		}
		fmt.Fprintf(b, "%srpc %s(%s) returns (%s)", r.indent, method.Name, input, output)
		if len(method.Options) > 0 {
			b.WriteString(" {\n")
			for _, opt := range method.Options {
				value, err := optionValue(opt)
				if err != nil {
					return err
				}
				fmt.Fprintf(b, "%s%soption %s = %s;\n", r.indent, r.indent, opt.Name, value)
			}
			fmt.Fprintf(b, "%s}\n", r.indent)
		} else {
			b.WriteString(";\n")
		}
	}

	b.WriteString("}\n")
	return nil
}

// optionValue renders an option value according to its kind.
func optionValue(opt descriptor.Option) (string, error) {
	switch opt.Kind {
	case descriptor.OptionString:
		return fmt.Sprintf("%q", opt.Value), nil
	case descriptor.OptionIdent, descriptor.OptionInt, descriptor.OptionFloat, descriptor.OptionBool:
		return opt.Value, nil
	default:
		return "", &UnrepresentableError{
			Construct: fmt.Sprintf("option %q with value kind %d", opt.Name, opt.Kind),
		}
	}
}

func formatRange(r descriptor.Range, max int32) string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	if r.End == max {
		return fmt.Sprintf("%d to max", r.Start)
	}
	return fmt.Sprintf("%d to %d", r.Start, r.End)
}
