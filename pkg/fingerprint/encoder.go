package fingerprint

import (
	"encoding/binary"

	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

// Node tags keep encodings of different declaration kinds from colliding.
const (
	tagFile    = 'F'
	tagImport  = 'I'
	tagOption  = 'O'
	tagMessage = 'M'
	tagField   = 'f'
	tagOneof   = 'o'
	tagEnum    = 'E'
	tagValue   = 'v'
	tagService = 'S'
	tagMethod  = 'm'
	tagRange   = 'r'
	tagExtend  = 'x'
)

// encoder builds a length-prefixed, tag-framed byte form of a canonical
// tree. Field emission order is fixed; list order is whatever the tree
// carries, which for canonical trees is the canonical order.
type encoder struct {
	buf []byte
}

func (e *encoder) tag(t byte) {
	e.buf = append(e.buf, t)
}

func (e *encoder) str(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) num(n int32) {
	e.buf = binary.AppendVarint(e.buf, int64(n))
}

func (e *encoder) count(n int) {
	e.buf = binary.AppendUvarint(e.buf, uint64(n))
}

func (e *encoder) boolean(b bool) {
	if b {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) file(file *descriptor.File) {
	e.tag(tagFile)
	e.str(AlgorithmVersion)
	e.str(file.Package)
	e.str(file.Syntax.String())

	e.count(len(file.Imports))
	for _, imp := range file.Imports {
		e.tag(tagImport)
		e.str(imp.Path)
		e.boolean(imp.Public)
		e.boolean(imp.Weak)
	}

	e.options(file.Options)

	e.count(len(file.Messages))
	for _, msg := range file.Messages {
		e.message(msg)
	}
	e.count(len(file.Enums))
	for _, enum := range file.Enums {
		e.enum(enum)
	}
	e.count(len(file.Services))
	for _, svc := range file.Services {
		e.service(svc)
	}
	e.extensions(file.Extensions)
}

func (e *encoder) extensions(extensions []*descriptor.Extension) {
	e.count(len(extensions))
	for _, ext := range extensions {
		e.tag(tagExtend)
		e.str(ext.Extendee)
		e.count(len(ext.Fields))
		for _, field := range ext.Fields {
			e.field(field)
		}
	}
}

func (e *encoder) options(options []descriptor.Option) {
	e.count(len(options))
	for _, opt := range options {
		e.tag(tagOption)
		e.str(opt.Name)
		e.str(opt.Value)
		e.buf = append(e.buf, byte(opt.Kind))
	}
}

func (e *encoder) message(msg *descriptor.Message) {
	e.tag(tagMessage)
	e.str(msg.Name)

	e.count(len(msg.Fields))
	for _, field := range msg.Fields {
		e.field(field)
	}
	e.count(len(msg.Oneofs))
	for _, oneof := range msg.Oneofs {
		e.tag(tagOneof)
		e.str(oneof.Name)
		e.count(len(oneof.Fields))
		for _, field := range oneof.Fields {
			e.field(field)
		}
	}
	e.count(len(msg.Nested))
	for _, nested := range msg.Nested {
		e.message(nested)
	}
	e.count(len(msg.Enums))
	for _, enum := range msg.Enums {
		e.enum(enum)
	}
	e.extensions(msg.Extensions)
	e.ranges(msg.ReservedRanges)
	e.count(len(msg.ReservedNames))
	for _, name := range msg.ReservedNames {
		e.str(name)
	}
	e.ranges(msg.ExtensionRanges)
	e.options(msg.Options)
}

func (e *encoder) field(field *descriptor.Field) {
	e.tag(tagField)
	e.num(field.Number)
	e.str(field.Name)
	e.str(field.TypeName)
	e.buf = append(e.buf, byte(field.Kind), byte(field.Cardinality))
	e.str(field.Default)
	e.str(field.JSONName)
	e.options(field.Options)
}

func (e *encoder) enum(enum *descriptor.Enum) {
	e.tag(tagEnum)
	e.str(enum.Name)
	e.boolean(enum.AllowAlias)
	e.count(len(enum.Values))
	for _, value := range enum.Values {
		e.tag(tagValue)
		e.str(value.Name)
		e.num(value.Number)
		e.options(value.Options)
	}
	e.ranges(enum.ReservedRanges)
	e.count(len(enum.ReservedNames))
	for _, name := range enum.ReservedNames {
		e.str(name)
	}
	e.options(enum.Options)
}

func (e *encoder) service(svc *descriptor.Service) {
	e.tag(tagService)
	e.str(svc.Name)
	e.count(len(svc.Methods))
	for _, method := range svc.Methods {
		e.tag(tagMethod)
		e.str(method.Name)
		e.str(method.InputType)
		e.str(method.OutputType)
		e.boolean(method.ClientStreaming)
		e.boolean(method.ServerStreaming)
		e.options(method.Options)
	}
	e.options(svc.Options)
}

func (e *encoder) ranges(ranges []descriptor.Range) {
	e.count(len(ranges))
	for _, r := range ranges {
		e.tag(tagRange)
		e.num(r.Start)
		e.num(r.End)
	}
}
