package descriptor

// Syntax identifies the protobuf language edition of a schema file.
type Syntax int

const (
	SyntaxProto2 Syntax = iota
	SyntaxProto3
)

func (s Syntax) String() string {
	if s == SyntaxProto3 {
		return "proto3"
	}
	return "proto2"
}

// Cardinality describes how many values a field may carry.
type Cardinality int

const (
	CardinalitySingular Cardinality = iota
	CardinalityOptional
	CardinalityRepeated
	CardinalityRequired
)

func (c Cardinality) String() string {
	return []string{"singular", "optional", "repeated", "required"}[c]
}

// FieldKind tags what a field's type name refers to.
type FieldKind int

const (
	KindScalar FieldKind = iota
	KindMessage
	KindEnum
)

func (k FieldKind) String() string {
	return []string{"scalar", "message", "enum"}[k]
}

// OptionKind tags the textual form of an option value. The renderer uses it
// to decide quoting; it is part of the option's identity.
type OptionKind int

const (
	OptionString OptionKind = iota
	OptionIdent
	OptionInt
	OptionFloat
	OptionBool
)

func (k OptionKind) String() string {
	return []string{"string", "ident", "int", "float", "bool"}[k]
}

// File is the root of a descriptor tree for one schema file.
type File struct {
	// Package is the declared package name. Empty when the file declares
	// no package; such files are still valid and merge under the empty key.
	Package    string
	Syntax     Syntax
	Imports    []Import
	Messages   []*Message
	Enums      []*Enum
	Services   []*Service
	Extensions []*Extension
	Options    []Option

	// SourceFile and Comments are non-semantic annotations. They never
	// influence ordering, canonical text, or fingerprints, and the
	// canonicalizer strips them.
	SourceFile string
	Comments   []string
}

// Import is a single import statement.
type Import struct {
	Path   string
	Public bool
	Weak   bool
}

// Option is a declared option with a typed textual value.
type Option struct {
	Name  string
	Value string
	Kind  OptionKind
}

// Range is an inclusive number range used for reserved numbers and
// extension ranges.
type Range struct {
	Start int32
	End   int32
}

// Message is a message declaration, possibly nested.
type Message struct {
	Name            string
	Fields          []*Field
	Oneofs          []*Oneof
	Nested          []*Message
	Enums           []*Enum
	Extensions      []*Extension
	ReservedRanges  []Range
	ReservedNames   []string
	ExtensionRanges []Range
	Options         []Option

	Comments []string
}

// Extension is one extend block: fields added to another message. A file may
// carry several blocks for the same extendee; canonicalization merges them.
type Extension struct {
	Extendee string
	Fields   []*Field

	Comments []string
}

// Field is a single field declaration. Number is the field's stable
// identity; declaration order carries no meaning after canonicalization.
type Field struct {
	Name        string
	Number      int32
	TypeName    string
	Kind        FieldKind
	Cardinality Cardinality
	Default     string
	JSONName    string
	Options     []Option

	Comments []string
}

// Oneof groups fields into a oneof block.
type Oneof struct {
	Name   string
	Fields []*Field

	Comments []string
}

// Enum is an enum declaration.
type Enum struct {
	Name           string
	Values         []EnumValue
	AllowAlias     bool
	ReservedRanges []Range
	ReservedNames  []string
	Options        []Option

	Comments []string
}

// EnumValue is a single enum value. Numbers need not be unique when the
// enclosing enum allows aliasing.
type EnumValue struct {
	Name    string
	Number  int32
	Options []Option
}

// Service is a service declaration.
type Service struct {
	Name    string
	Methods []*Method
	Options []Option

	Comments []string
}

// Method is a single RPC method.
type Method struct {
	Name            string
	InputType       string
	OutputType      string
	ClientStreaming bool
	ServerStreaming bool
	Options         []Option

	Comments []string
}
