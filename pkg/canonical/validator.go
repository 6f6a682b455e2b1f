package canonical

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

// ErrorKind classifies a validation failure.
type ErrorKind int

const (
	KindDuplicateFieldNumber ErrorKind = iota
	KindDuplicateName
	KindInvalidIdentifier
	KindInvalidPackage
	KindEnumValueConflict
	KindReservedCollision
)

func (k ErrorKind) String() string {
	return []string{
		"DUPLICATE_FIELD_NUMBER",
		"DUPLICATE_NAME",
		"INVALID_IDENTIFIER",
		"INVALID_PACKAGE",
		"ENUM_VALUE_CONFLICT",
		"RESERVED_COLLISION",
	}[k]
}

// ValidationError reports a structural defect in one descriptor tree.
// Location is the dotted path of the offending declaration.
type ValidationError struct {
	Kind     ErrorKind
	Location string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Location, e.Message)
}

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func isValidIdentifier(name string) bool {
	return identRegex.MatchString(name)
}

func isValidPackageName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if !isValidIdentifier(part) {
			return false
		}
	}
	return true
}

// validate checks the invariants canonicalization relies on. It returns the
// first violation found in declaration order.
func validate(file *descriptor.File) error {
	if file.Package != "" && !isValidPackageName(file.Package) {
		return &ValidationError{
			Kind:     KindInvalidPackage,
			Location: "package",
			Message:  fmt.Sprintf("malformed package name %q", file.Package),
		}
	}

	if err := checkSiblingNames(file.Messages, file.Enums, file.Services, file.Package); err != nil {
		return err
	}
	for _, msg := range file.Messages {
		if err := validateMessage(msg, scopedName(file.Package, msg.Name)); err != nil {
			return err
		}
	}
	for _, enum := range file.Enums {
		if err := validateEnum(enum, scopedName(file.Package, enum.Name)); err != nil {
			return err
		}
	}
	for _, svc := range file.Services {
		if err := validateService(svc, scopedName(file.Package, svc.Name)); err != nil {
			return err
		}
	}
	if err := validateExtensions(file.Extensions, file.Package); err != nil {
		return err
	}
	return nil
}

// validateExtensions checks extension fields within one scope. Numbers must
// be unique per extendee across all blocks of the scope.
func validateExtensions(extensions []*descriptor.Extension, scope string) error {
	type extKey struct {
		extendee string
		number   int32
	}
	numbers := make(map[extKey]string)
	for _, ext := range extensions {
		if !isValidPackageName(ext.Extendee) {
			return &ValidationError{
				Kind:     KindInvalidIdentifier,
				Location: scopedName(scope, ext.Extendee),
				Message:  fmt.Sprintf("malformed extendee name %q", ext.Extendee),
			}
		}
		for _, field := range ext.Fields {
			fieldLoc := scopedName(scope, ext.Extendee) + "." + field.Name
			if !isValidIdentifier(field.Name) {
				return &ValidationError{
					Kind:     KindInvalidIdentifier,
					Location: fieldLoc,
					Message:  fmt.Sprintf("malformed extension field name %q", field.Name),
				}
			}
			if field.Number < 1 {
				return &ValidationError{
					Kind:     KindDuplicateFieldNumber,
					Location: fieldLoc,
					Message:  fmt.Sprintf("extension field number %d is invalid (must be >= 1)", field.Number),
				}
			}
			key := extKey{extendee: ext.Extendee, number: field.Number}
			if prev, ok := numbers[key]; ok {
				return &ValidationError{
					Kind:     KindDuplicateFieldNumber,
					Location: fieldLoc,
					Message:  fmt.Sprintf("extension number %d for %q is already used by field %q", field.Number, ext.Extendee, prev),
				}
			}
			numbers[key] = field.Name
		}
	}
	return nil
}

func scopedName(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

// checkSiblingNames enforces name uniqueness among direct siblings of the
// same declaration kind within one scope.
func checkSiblingNames(messages []*descriptor.Message, enums []*descriptor.Enum, services []*descriptor.Service, scope string) error {
	check := func(kind string, names []string) error {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			if !isValidIdentifier(name) {
				return &ValidationError{
					Kind:     KindInvalidIdentifier,
					Location: scopedName(scope, name),
					Message:  fmt.Sprintf("malformed %s name %q", kind, name),
				}
			}
			if seen[name] {
				return &ValidationError{
					Kind:     KindDuplicateName,
					Location: scopedName(scope, name),
					Message:  fmt.Sprintf("duplicate %s name %q", kind, name),
				}
			}
			seen[name] = true
		}
		return nil
	}

	msgNames := make([]string, len(messages))
	for i, m := range messages {
		msgNames[i] = m.Name
	}
	if err := check("message", msgNames); err != nil {
		return err
	}
	enumNames := make([]string, len(enums))
	for i, e := range enums {
		enumNames[i] = e.Name
	}
	if err := check("enum", enumNames); err != nil {
		return err
	}
	svcNames := make([]string, len(services))
	for i, s := range services {
		svcNames[i] = s.Name
	}
	return check("service", svcNames)
}

func validateMessage(msg *descriptor.Message, location string) error {
	reservedNames := make(map[string]bool, len(msg.ReservedNames))
	for _, name := range msg.ReservedNames {
		reservedNames[name] = true
	}

	// Field numbers must be unique across declared fields, reserved
	// ranges, and extension ranges of this message.
	numbers := make(map[int32]string)
	fieldNames := make(map[string]bool)
	allFields := make([]*descriptor.Field, 0, len(msg.Fields))
	allFields = append(allFields, msg.Fields...)
	for _, oneof := range msg.Oneofs {
		if !isValidIdentifier(oneof.Name) {
			return &ValidationError{
				Kind:     KindInvalidIdentifier,
				Location: location + "." + oneof.Name,
				Message:  fmt.Sprintf("malformed oneof name %q", oneof.Name),
			}
		}
		allFields = append(allFields, oneof.Fields...)
	}

	for _, field := range allFields {
		fieldLoc := location + "." + field.Name
		if !isValidIdentifier(field.Name) {
			return &ValidationError{
				Kind:     KindInvalidIdentifier,
				Location: fieldLoc,
				Message:  fmt.Sprintf("malformed field name %q", field.Name),
			}
		}
		if field.Number < 1 {
			return &ValidationError{
				Kind:     KindDuplicateFieldNumber,
				Location: fieldLoc,
				Message:  fmt.Sprintf("field number %d is invalid (must be >= 1)", field.Number),
			}
		}
		if prev, ok := numbers[field.Number]; ok {
			return &ValidationError{
				Kind:     KindDuplicateFieldNumber,
				Location: fieldLoc,
				Message:  fmt.Sprintf("field number %d is already used by field %q", field.Number, prev),
			}
		}
		numbers[field.Number] = field.Name

		if fieldNames[field.Name] {
			return &ValidationError{
				Kind:     KindDuplicateName,
				Location: fieldLoc,
				Message:  fmt.Sprintf("duplicate field name %q", field.Name),
			}
		}
		fieldNames[field.Name] = true

		if reservedNames[field.Name] {
			return &ValidationError{
				Kind:     KindReservedCollision,
				Location: fieldLoc,
				Message:  fmt.Sprintf("field name %q is reserved", field.Name),
			}
		}
		for _, r := range msg.ReservedRanges {
			if field.Number >= r.Start && field.Number <= r.End {
				return &ValidationError{
					Kind:     KindDuplicateFieldNumber,
					Location: fieldLoc,
					Message:  fmt.Sprintf("field number %d falls in reserved range %d to %d", field.Number, r.Start, r.End),
				}
			}
		}
		for _, r := range msg.ExtensionRanges {
			if field.Number >= r.Start && field.Number <= r.End {
				return &ValidationError{
					Kind:     KindDuplicateFieldNumber,
					Location: fieldLoc,
					Message:  fmt.Sprintf("field number %d falls in extension range %d to %d", field.Number, r.Start, r.End),
				}
			}
		}
	}

	if err := checkSiblingNames(msg.Nested, msg.Enums, nil, location); err != nil {
		return err
	}
	if err := validateExtensions(msg.Extensions, location); err != nil {
		return err
	}
	for _, nested := range msg.Nested {
		if err := validateMessage(nested, location+"."+nested.Name); err != nil {
			return err
		}
	}
	for _, enum := range msg.Enums {
		if err := validateEnum(enum, location+"."+enum.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateEnum(enum *descriptor.Enum, location string) error {
	numbers := make(map[int32]string)
	names := make(map[string]bool)
	for _, value := range enum.Values {
		valueLoc := location + "." + value.Name
		if !isValidIdentifier(value.Name) {
			return &ValidationError{
				Kind:     KindInvalidIdentifier,
				Location: valueLoc,
				Message:  fmt.Sprintf("malformed enum value name %q", value.Name),
			}
		}
		if names[value.Name] {
			return &ValidationError{
				Kind:     KindDuplicateName,
				Location: valueLoc,
				Message:  fmt.Sprintf("duplicate enum value name %q", value.Name),
			}
		}
		names[value.Name] = true
		if prev, ok := numbers[value.Number]; ok && !enum.AllowAlias {
			return &ValidationError{
				Kind:     KindEnumValueConflict,
				Location: valueLoc,
				Message:  fmt.Sprintf("enum value number %d is already used by %q and allow_alias is not set", value.Number, prev),
			}
		}
		numbers[value.Number] = value.Name
	}
	return nil
}

func validateService(svc *descriptor.Service, location string) error {
	names := make(map[string]bool)
	for _, method := range svc.Methods {
		methodLoc := location + "." + method.Name
		if !isValidIdentifier(method.Name) {
			return &ValidationError{
				Kind:     KindInvalidIdentifier,
				Location: methodLoc,
				Message:  fmt.Sprintf("malformed method name %q", method.Name),
			}
		}
		if names[method.Name] {
			return &ValidationError{
				Kind:     KindDuplicateName,
				Location: methodLoc,
				Message:  fmt.Sprintf("duplicate method name %q", method.Name),
			}
		}
		names[method.Name] = true
	}
	return nil
}
