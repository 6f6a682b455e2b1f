package canonical

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

func requireKind(t *testing.T, err error, kind ErrorKind) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
	assert.Equal(t, kind, verr.Kind)
	return verr
}

func fileWithMessage(msg *descriptor.Message) *descriptor.File {
	return &descriptor.File{
		Package:  "demo",
		Syntax:   descriptor.SyntaxProto3,
		Messages: []*descriptor.Message{msg},
	}
}

func TestValidate_DuplicateFieldNumber(t *testing.T) {
	_, err := Canonicalize(fileWithMessage(&descriptor.Message{
		Name: "User",
		Fields: []*descriptor.Field{
			{Name: "a", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
			{Name: "b", Number: 1, TypeName: "int32", Kind: descriptor.KindScalar},
		},
	}))
	verr := requireKind(t, err, KindDuplicateFieldNumber)
	assert.Equal(t, "demo.User.b", verr.Location)
}

func TestValidate_DuplicateNumberAcrossOneof(t *testing.T) {
	_, err := Canonicalize(fileWithMessage(&descriptor.Message{
		Name: "User",
		Fields: []*descriptor.Field{
			{Name: "a", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
		},
		Oneofs: []*descriptor.Oneof{
			{
				Name: "choice",
				Fields: []*descriptor.Field{
					{Name: "b", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
				},
			},
		},
	}))
	requireKind(t, err, KindDuplicateFieldNumber)
}

func TestValidate_DuplicateSiblingName(t *testing.T) {
	_, err := Canonicalize(&descriptor.File{
		Package: "demo",
		Syntax:  descriptor.SyntaxProto3,
		Messages: []*descriptor.Message{
			{Name: "User"},
			{Name: "User"},
		},
	})
	requireKind(t, err, KindDuplicateName)
}

func TestValidate_SameNameDifferentKindAllowed(t *testing.T) {
	// sibling uniqueness is per declaration kind
	_, err := Canonicalize(&descriptor.File{
		Package:  "demo",
		Syntax:   descriptor.SyntaxProto3,
		Messages: []*descriptor.Message{{Name: "Thing"}},
		Enums: []*descriptor.Enum{
			{Name: "Thing", Values: []descriptor.EnumValue{{Name: "THING_UNKNOWN", Number: 0}}},
		},
	})
	assert.NoError(t, err)
}

func TestValidate_InvalidIdentifier(t *testing.T) {
	_, err := Canonicalize(fileWithMessage(&descriptor.Message{
		Name: "User",
		Fields: []*descriptor.Field{
			{Name: "1bad", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
		},
	}))
	requireKind(t, err, KindInvalidIdentifier)
}

func TestValidate_InvalidPackage(t *testing.T) {
	_, err := Canonicalize(&descriptor.File{
		Package: "demo..v1",
		Syntax:  descriptor.SyntaxProto3,
	})
	requireKind(t, err, KindInvalidPackage)
}

func TestValidate_EmptyPackageAllowed(t *testing.T) {
	_, err := Canonicalize(&descriptor.File{Syntax: descriptor.SyntaxProto3})
	assert.NoError(t, err)
}

func TestValidate_EnumValueConflict(t *testing.T) {
	enum := &descriptor.Enum{
		Name: "Status",
		Values: []descriptor.EnumValue{
			{Name: "STATUS_A", Number: 1},
			{Name: "STATUS_B", Number: 1},
		},
	}
	_, err := Canonicalize(&descriptor.File{
		Package: "demo",
		Syntax:  descriptor.SyntaxProto3,
		Enums:   []*descriptor.Enum{enum},
	})
	requireKind(t, err, KindEnumValueConflict)

	// the same numbers are fine once aliasing is allowed
	enum.AllowAlias = true
	_, err = Canonicalize(&descriptor.File{
		Package: "demo",
		Syntax:  descriptor.SyntaxProto3,
		Enums:   []*descriptor.Enum{enum},
	})
	assert.NoError(t, err)
}

func TestValidate_ReservedNameCollision(t *testing.T) {
	_, err := Canonicalize(fileWithMessage(&descriptor.Message{
		Name:          "User",
		ReservedNames: []string{"name"},
		Fields: []*descriptor.Field{
			{Name: "name", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
		},
	}))
	requireKind(t, err, KindReservedCollision)
}

func TestValidate_ReservedRangeCollision(t *testing.T) {
	_, err := Canonicalize(fileWithMessage(&descriptor.Message{
		Name:           "User",
		ReservedRanges: []descriptor.Range{{Start: 5, End: 10}},
		Fields: []*descriptor.Field{
			{Name: "name", Number: 7, TypeName: "string", Kind: descriptor.KindScalar},
		},
	}))
	requireKind(t, err, KindDuplicateFieldNumber)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{
		Kind:     KindDuplicateName,
		Location: "demo.User",
		Message:  `duplicate message name "User"`,
	}
	assert.Contains(t, err.Error(), "DUPLICATE_NAME")
	assert.Contains(t, err.Error(), "demo.User")
}

func TestValidate_DuplicateExtensionNumber(t *testing.T) {
	_, err := Canonicalize(&descriptor.File{
		Package: "demo",
		Syntax:  descriptor.SyntaxProto2,
		Extensions: []*descriptor.Extension{
			{
				Extendee: "demo.Base",
				Fields: []*descriptor.Field{
					{Name: "extra", Number: 100, TypeName: "string", Kind: descriptor.KindScalar, Cardinality: descriptor.CardinalityOptional},
				},
			},
			{
				Extendee: "demo.Base",
				Fields: []*descriptor.Field{
					{Name: "clash", Number: 100, TypeName: "int32", Kind: descriptor.KindScalar, Cardinality: descriptor.CardinalityOptional},
				},
			},
		},
	})
	verr := requireKind(t, err, KindDuplicateFieldNumber)
	assert.Equal(t, "demo.demo.Base.clash", verr.Location)
}
