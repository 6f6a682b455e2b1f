package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
)

// fromFileDescriptorProto converts a compiled FileDescriptorProto into a
// descriptor tree. Synthetic constructs the compiler introduces (map entry
// messages, proto3 optional oneofs) are folded back into their source form.
func fromFileDescriptorProto(fdp *descriptorpb.FileDescriptorProto) *File {
	syntax := SyntaxProto2
	if fdp.GetSyntax() == "proto3" {
		syntax = SyntaxProto3
	}

	file := &File{
		Package: fdp.GetPackage(),
		Syntax:  syntax,
	}

	file.Imports = make([]Import, 0, len(fdp.GetDependency()))
	for _, dep := range fdp.GetDependency() {
		file.Imports = append(file.Imports, Import{Path: dep})
	}
	for _, idx := range fdp.GetPublicDependency() {
		if int(idx) < len(file.Imports) {
			file.Imports[idx].Public = true
		}
	}
	for _, idx := range fdp.GetWeakDependency() {
		if int(idx) < len(file.Imports) {
			file.Imports[idx].Weak = true
		}
	}

	file.Options = fileOptions(fdp.GetOptions())

	for _, md := range fdp.GetMessageType() {
		file.Messages = append(file.Messages, convertMessage(md, syntax))
	}
	for _, ed := range fdp.GetEnumType() {
		file.Enums = append(file.Enums, convertEnum(ed))
	}
	for _, sd := range fdp.GetService() {
		file.Services = append(file.Services, convertService(sd))
	}
	file.Extensions = convertExtensions(fdp.GetExtension(), syntax)

	return file
}

// convertExtensions folds extension field declarations into extend blocks,
// one block per extendee in first-seen order.
func convertExtensions(fds []*descriptorpb.FieldDescriptorProto, syntax Syntax) []*Extension {
	var out []*Extension
	byExtendee := make(map[string]*Extension)
	for _, fd := range fds {
		if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_GROUP {
			continue
		}
		extendee := strings.TrimPrefix(fd.GetExtendee(), ".")
		block, ok := byExtendee[extendee]
		if !ok {
			block = &Extension{Extendee: extendee}
			byExtendee[extendee] = block
			out = append(out, block)
		}
		block.Fields = append(block.Fields, convertField(fd, syntax, nil))
	}
	return out
}

func convertMessage(md *descriptorpb.DescriptorProto, syntax Syntax) *Message {
	msg := &Message{Name: md.GetName()}

	// Map entry messages are synthetic; their fields fold back into
	// map<K, V> field declarations on the enclosing message.
	mapEntries := make(map[string]*descriptorpb.DescriptorProto)
	for _, nested := range md.GetNestedType() {
		if nested.GetOptions().GetMapEntry() {
			mapEntries[nested.GetName()] = nested
		}
	}

	for _, od := range md.GetOneofDecl() {
		msg.Oneofs = append(msg.Oneofs, &Oneof{Name: od.GetName()})
	}

	syntheticOneofs := make(map[int32]bool)
	for _, fd := range md.GetField() {
		if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_GROUP {
			// proto2 groups are not representable in this tree.
			continue
		}
		field := convertField(fd, syntax, mapEntries)
		if fd.OneofIndex != nil && !fd.GetProto3Optional() {
			idx := fd.GetOneofIndex()
			if int(idx) < len(msg.Oneofs) {
				msg.Oneofs[idx].Fields = append(msg.Oneofs[idx].Fields, field)
			}
			continue
		}
		if fd.OneofIndex != nil {
			syntheticOneofs[fd.GetOneofIndex()] = true
		}
		msg.Fields = append(msg.Fields, field)
	}

	// Drop oneof groups that exist only to back proto3 optional fields,
	// then drop any group left empty after group-field filtering.
	kept := msg.Oneofs[:0]
	for idx, oneof := range msg.Oneofs {
		if syntheticOneofs[int32(idx)] || len(oneof.Fields) == 0 {
			continue
		}
		kept = append(kept, oneof)
	}
	msg.Oneofs = kept

	for _, nested := range md.GetNestedType() {
		if nested.GetOptions().GetMapEntry() {
			continue
		}
		msg.Nested = append(msg.Nested, convertMessage(nested, syntax))
	}
	for _, ed := range md.GetEnumType() {
		msg.Enums = append(msg.Enums, convertEnum(ed))
	}
	msg.Extensions = convertExtensions(md.GetExtension(), syntax)

	for _, r := range md.GetReservedRange() {
		// Message reserved ranges are end-exclusive in descriptor form.
		msg.ReservedRanges = append(msg.ReservedRanges, Range{Start: r.GetStart(), End: r.GetEnd() - 1})
	}
	msg.ReservedNames = append(msg.ReservedNames, md.GetReservedName()...)
	for _, r := range md.GetExtensionRange() {
		msg.ExtensionRanges = append(msg.ExtensionRanges, Range{Start: r.GetStart(), End: r.GetEnd() - 1})
	}

	msg.Options = messageOptions(md.GetOptions())
	return msg
}

func convertField(fd *descriptorpb.FieldDescriptorProto, syntax Syntax, mapEntries map[string]*descriptorpb.DescriptorProto) *Field {
	field := &Field{
		Name:     fd.GetName(),
		Number:   fd.GetNumber(),
		Default:  fd.GetDefaultValue(),
		JSONName: fd.GetJsonName(),
	}

	switch fd.GetLabel() {
	case descriptorpb.FieldDescriptorProto_LABEL_REPEATED:
		field.Cardinality = CardinalityRepeated
	case descriptorpb.FieldDescriptorProto_LABEL_REQUIRED:
		field.Cardinality = CardinalityRequired
	case descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL:
		// proto3 marks every singular field LABEL_OPTIONAL; only an
		// explicit `optional` keyword sets proto3_optional.
		if syntax == SyntaxProto3 && !fd.GetProto3Optional() {
			field.Cardinality = CardinalitySingular
		} else {
			field.Cardinality = CardinalityOptional
		}
	}

	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		typeName := strings.TrimPrefix(fd.GetTypeName(), ".")
		if entry, ok := mapEntries[lastComponent(typeName)]; ok && field.Cardinality == CardinalityRepeated {
			field.Kind = KindScalar
			field.Cardinality = CardinalitySingular
			field.TypeName = mapTypeName(entry)
		} else {
			field.Kind = KindMessage
			field.TypeName = typeName
		}
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		field.Kind = KindEnum
		field.TypeName = strings.TrimPrefix(fd.GetTypeName(), ".")
	default:
		field.Kind = KindScalar
		field.TypeName = scalarTypeName(fd.GetType())
	}

	field.Options = fieldOptions(fd.GetOptions())
	return field
}

// mapTypeName renders a synthetic map entry message back into map<K, V>
// notation.
func mapTypeName(entry *descriptorpb.DescriptorProto) string {
	var key, value string
	for _, fd := range entry.GetField() {
		typeName := scalarTypeName(fd.GetType())
		if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE ||
			fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_ENUM {
			typeName = strings.TrimPrefix(fd.GetTypeName(), ".")
		}
		switch fd.GetName() {
		case "key":
			key = typeName
		case "value":
			value = typeName
		}
	}
	return fmt.Sprintf("map<%s, %s>", key, value)
}

func lastComponent(typeName string) string {
	if idx := strings.LastIndexByte(typeName, '.'); idx >= 0 {
		return typeName[idx+1:]
	}
	return typeName
}

func convertEnum(ed *descriptorpb.EnumDescriptorProto) *Enum {
	enum := &Enum{
		Name:       ed.GetName(),
		AllowAlias: ed.GetOptions().GetAllowAlias(),
	}
	for _, vd := range ed.GetValue() {
		value := EnumValue{Name: vd.GetName(), Number: vd.GetNumber()}
		if vd.GetOptions().GetDeprecated() {
			value.Options = append(value.Options, Option{Name: "deprecated", Value: "true", Kind: OptionBool})
		}
		enum.Values = append(enum.Values, value)
	}
	for _, r := range ed.GetReservedRange() {
		// Enum reserved ranges are end-inclusive in descriptor form.
		enum.ReservedRanges = append(enum.ReservedRanges, Range{Start: r.GetStart(), End: r.GetEnd()})
	}
	enum.ReservedNames = append(enum.ReservedNames, ed.GetReservedName()...)
	if ed.GetOptions().GetDeprecated() {
		enum.Options = append(enum.Options, Option{Name: "deprecated", Value: "true", Kind: OptionBool})
	}
	return enum
}

func convertService(sd *descriptorpb.ServiceDescriptorProto) *Service {
	svc := &Service{Name: sd.GetName()}
	for _, md := range sd.GetMethod() {
		method := &Method{
			Name:            md.GetName(),
			InputType:       strings.TrimPrefix(md.GetInputType(), "."),
			OutputType:      strings.TrimPrefix(md.GetOutputType(), "."),
			ClientStreaming: md.GetClientStreaming(),
			ServerStreaming: md.GetServerStreaming(),
		}
		if md.GetOptions().GetDeprecated() {
			method.Options = append(method.Options, Option{Name: "deprecated", Value: "true", Kind: OptionBool})
		}
		svc.Methods = append(svc.Methods, method)
	}
	if sd.GetOptions().GetDeprecated() {
		svc.Options = append(svc.Options, Option{Name: "deprecated", Value: "true", Kind: OptionBool})
	}
	return svc
}

func scalarTypeName(t descriptorpb.FieldDescriptorProto_Type) string {
	switch t {
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return "double"
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return "float"
	case descriptorpb.FieldDescriptorProto_TYPE_INT64:
		return "int64"
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64:
		return "uint64"
	case descriptorpb.FieldDescriptorProto_TYPE_INT32:
		return "int32"
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return "fixed64"
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		return "fixed32"
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return "bool"
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return "string"
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return "bytes"
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32:
		return "uint32"
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return "sfixed32"
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return "sfixed64"
	case descriptorpb.FieldDescriptorProto_TYPE_SINT32:
		return "sint32"
	case descriptorpb.FieldDescriptorProto_TYPE_SINT64:
		return "sint64"
	default:
		return "unknown"
	}
}

func fileOptions(opts *descriptorpb.FileOptions) []Option {
	if opts == nil {
		return nil
	}
	var out []Option
	str := func(name string, val *string) {
		if val != nil {
			out = append(out, Option{Name: name, Value: *val, Kind: OptionString})
		}
	}
	boolean := func(name string, val *bool) {
		if val != nil {
			out = append(out, Option{Name: name, Value: strconv.FormatBool(*val), Kind: OptionBool})
		}
	}

	str("csharp_namespace", opts.CsharpNamespace)
	str("go_package", opts.GoPackage)
	str("java_outer_classname", opts.JavaOuterClassname)
	str("java_package", opts.JavaPackage)
	str("objc_class_prefix", opts.ObjcClassPrefix)
	str("php_namespace", opts.PhpNamespace)
	str("ruby_package", opts.RubyPackage)
	str("swift_prefix", opts.SwiftPrefix)
	boolean("cc_enable_arenas", opts.CcEnableArenas)
	boolean("deprecated", opts.Deprecated)
	boolean("java_multiple_files", opts.JavaMultipleFiles)
	if opts.OptimizeFor != nil {
		out = append(out, Option{Name: "optimize_for", Value: opts.GetOptimizeFor().String(), Kind: OptionIdent})
	}
	return out
}

func messageOptions(opts *descriptorpb.MessageOptions) []Option {
	if opts == nil {
		return nil
	}
	var out []Option
	if opts.GetMessageSetWireFormat() {
		out = append(out, Option{Name: "message_set_wire_format", Value: "true", Kind: OptionBool})
	}
	if opts.GetDeprecated() {
		out = append(out, Option{Name: "deprecated", Value: "true", Kind: OptionBool})
	}
	return out
}

func fieldOptions(opts *descriptorpb.FieldOptions) []Option {
	if opts == nil {
		return nil
	}
	var out []Option
	if opts.GetDeprecated() {
		out = append(out, Option{Name: "deprecated", Value: "true", Kind: OptionBool})
	}
	if opts.Packed != nil {
		out = append(out, Option{Name: "packed", Value: strconv.FormatBool(opts.GetPacked()), Kind: OptionBool})
	}
	return out
}
