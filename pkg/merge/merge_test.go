package merge

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

const userSource = `syntax = "proto3";
package foo.bar;
message User {
  string name = 1;
}
`

const profileSource = `syntax = "proto3";
package foo.bar;
message Profile {
  int32 age = 1;
}
`

func TestTexts_MergesOnePackage(t *testing.T) {
	results, err := Texts([]string{userSource, profileSource}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, "foo.bar", result.Package)
	assert.Contains(t, result.Content, "message User")
	assert.Contains(t, result.Content, "message Profile")
	// declarations come out name-sorted
	assert.Less(t, strings.Index(result.Content, "message Profile"),
		strings.Index(result.Content, "message User"))
	assert.Empty(t, result.Warnings)
}

func TestTexts_OrderIndependent(t *testing.T) {
	forward, err := Texts([]string{userSource, profileSource}, nil)
	require.NoError(t, err)
	reverse, err := Texts([]string{profileSource, userSource}, nil)
	require.NoError(t, err)

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.Equal(t, forward[0].Content, reverse[0].Content)
	assert.True(t, forward[0].Fingerprint.Equal(reverse[0].Fingerprint))
}

func TestTexts_DedupesIdenticalDeclarations(t *testing.T) {
	results, err := Texts([]string{userSource, userSource}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 1, strings.Count(results[0].Content, "message User"))
	require.Len(t, results[0].Warnings, 1)
	assert.Contains(t, results[0].Warnings[0], `"User"`)
}

func TestTexts_TypeConflict(t *testing.T) {
	conflicting := `syntax = "proto3";
package foo.bar;
message User {
  string name = 1;
  string email = 2;
}
`
	for _, inputs := range [][]string{
		{userSource, conflicting},
		{conflicting, userSource},
	} {
		results, err := Texts(inputs, nil)
		require.Error(t, err)
		assert.Empty(t, results)

		var conflict *TypeConflict
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "foo.bar", conflict.Package)
		assert.Equal(t, "User", conflict.Name)
		assert.Equal(t, []int{0, 1}, conflict.Members)
	}
}

func TestTexts_PartialSuccessAcrossGroups(t *testing.T) {
	otherPackage := `syntax = "proto3";
package zoo;
message Keeper {
  string name = 1;
}
`
	conflicting := `syntax = "proto3";
package foo.bar;
message User {
  int64 name = 1;
}
`
	results, err := Texts([]string{userSource, conflicting, otherPackage}, nil)
	require.Error(t, err)

	var conflict *TypeConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "foo.bar", conflict.Package)

	// the conflict-free group still merged
	require.Len(t, results, 1)
	assert.Equal(t, "zoo", results[0].Package)
}

func TestTexts_ResultsSortedByPackage(t *testing.T) {
	alpha := `syntax = "proto3";
package alpha;
message A { string a = 1; }
`
	results, err := Texts([]string{userSource, alpha, profileSource}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Package)
	assert.Equal(t, "foo.bar", results[1].Package)
}

func TestTexts_EmptyPackageGroup(t *testing.T) {
	floating := `syntax = "proto3";
message Floating { string id = 1; }
`
	results, err := Texts([]string{floating, userSource}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// the empty key sorts first
	assert.Equal(t, "", results[0].Package)
	assert.Contains(t, results[0].Content, "message Floating")
	assert.NotContains(t, results[0].Content, "package")
}

func TestTexts_ImportsUnioned(t *testing.T) {
	a := `syntax = "proto3";
package foo.bar;
import "google/protobuf/timestamp.proto";
message Event { google.protobuf.Timestamp at = 1; }
`
	b := `syntax = "proto3";
package foo.bar;
import "google/protobuf/duration.proto";
message Window { google.protobuf.Duration length = 1; }
`
	results, err := Texts([]string{a, b}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	content := results[0].Content
	assert.Contains(t, content, `import "google/protobuf/duration.proto";`)
	assert.Contains(t, content, `import "google/protobuf/timestamp.proto";`)
	assert.Less(t, strings.Index(content, "duration.proto"), strings.Index(content, "timestamp.proto"))
}

func TestTexts_OptionConflict(t *testing.T) {
	a := `syntax = "proto3";
package foo.bar;
option go_package = "foo/bar";
message A { string a = 1; }
`
	b := `syntax = "proto3";
package foo.bar;
option go_package = "bar/foo";
message B { string b = 1; }
`
	_, err := Texts([]string{a, b}, nil)
	var conflict *OptionConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "foo.bar", conflict.Package)
	assert.Equal(t, "go_package", conflict.Key)
}

func TestTexts_SameOptionValueMergesCleanly(t *testing.T) {
	a := `syntax = "proto3";
package foo.bar;
option go_package = "foo/bar";
message A { string a = 1; }
`
	b := `syntax = "proto3";
package foo.bar;
option go_package = "foo/bar";
message B { string b = 1; }
`
	results, err := Texts([]string{a, b}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, strings.Count(results[0].Content, "go_package"))
}

func TestTexts_SyntaxConflict(t *testing.T) {
	legacy := `syntax = "proto2";
package foo.bar;
message Old { optional string id = 1; }
`
	_, err := Texts([]string{userSource, legacy}, nil)
	var conflict *SyntaxConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "foo.bar", conflict.Package)
	assert.Equal(t, []string{"proto2", "proto3"}, conflict.Syntaxes)
}

func TestTexts_ParseErrorTagged(t *testing.T) {
	_, err := Texts([]string{userSource, "message {"}, nil)
	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, 1, inputErr.Index)
}

func TestByPackage_ValidationErrorTagged(t *testing.T) {
	bad := &descriptor.File{
		Package: "foo.bar",
		Syntax:  descriptor.SyntaxProto3,
		Messages: []*descriptor.Message{
			{
				Name: "User",
				Fields: []*descriptor.Field{
					{Name: "a", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
					{Name: "b", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
				},
			},
		},
	}
	good := &descriptor.File{Package: "foo.bar", Syntax: descriptor.SyntaxProto3}

	results, err := ByPackage([]*descriptor.File{good, bad}, nil)
	assert.Nil(t, results)
	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, 1, inputErr.Index)
}

func TestByPackage_WorkerCap(t *testing.T) {
	files := []*descriptor.File{
		{Package: "a", Syntax: descriptor.SyntaxProto3},
		{Package: "b", Syntax: descriptor.SyntaxProto3},
		{Package: "c", Syntax: descriptor.SyntaxProto3},
	}
	results, err := ByPackage(files, &Options{MaxWorkers: 1})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

const extBaseSource = `syntax = "proto2";
package ext.demo;
message Base {
  optional string name = 1;
  extensions 100 to 200;
}
`

func TestTexts_ExtensionsUnioned(t *testing.T) {
	first := extBaseSource + `extend Base {
  optional string extra = 100;
}
`
	second := extBaseSource + `extend Base {
  optional int32 weight = 101;
}
`
	results, err := Texts([]string{first, second}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	content := results[0].Content
	assert.Contains(t, content, "extend ext.demo.Base {")
	assert.Contains(t, content, "optional string extra = 100;")
	assert.Contains(t, content, "optional int32 weight = 101;")
	// the shared Base declaration dedupes, the extension fields union
	assert.Equal(t, 1, strings.Count(content, "extend ext.demo.Base {"))
}

func TestTexts_ExtensionConflict(t *testing.T) {
	first := extBaseSource + `extend Base {
  optional string extra = 100;
}
`
	second := extBaseSource + `extend Base {
  optional int32 extra = 100;
}
`
	_, err := Texts([]string{first, second}, nil)
	require.Error(t, err)
	var conflict *TypeConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "ext.demo", conflict.Package)
	assert.Contains(t, conflict.Name, "extension 100")
	assert.Equal(t, []int{0, 1}, conflict.Members)
}

func TestTexts_DedupesIdenticalExtensions(t *testing.T) {
	source := extBaseSource + `extend Base {
  optional string extra = 100;
}
`
	results, err := Texts([]string{source, source}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 1, strings.Count(results[0].Content, "optional string extra = 100;"))
	found := false
	for _, warning := range results[0].Warnings {
		if strings.Contains(warning, "extension 100") {
			found = true
		}
	}
	assert.True(t, found, "expected a dedupe warning for extension 100")
}

func TestByPackage_SameNameDifferentKindMerges(t *testing.T) {
	withMessage := &descriptor.File{
		Package: "foo.bar",
		Syntax:  descriptor.SyntaxProto3,
		Messages: []*descriptor.Message{
			{
				Name: "Shape",
				Fields: []*descriptor.Field{
					{Name: "label", Number: 1, TypeName: "string", Kind: descriptor.KindScalar},
				},
			},
		},
	}
	withEnum := &descriptor.File{
		Package: "foo.bar",
		Syntax:  descriptor.SyntaxProto3,
		Enums: []*descriptor.Enum{
			{
				Name: "Shape",
				Values: []descriptor.EnumValue{
					{Name: "SHAPE_UNKNOWN", Number: 0},
				},
			},
		},
	}

	results, err := ByPackage([]*descriptor.File{withMessage, withEnum}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// a message and an enum may share a name, that is not a conflict
	assert.Contains(t, results[0].Content, "message Shape {")
	assert.Contains(t, results[0].Content, "enum Shape {")
	assert.Empty(t, results[0].Warnings)
}
