package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMerge_ExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	writeProto(t, dir, "user.proto", `syntax = "proto3";
package demo;
message User { string name = 1; }
`)
	writeProto(t, dir, "profile.proto", `syntax = "proto3";
package demo;
message Profile { int32 age = 1; }
`)

	err := runMerge([]string{
		"-output", outDir,
		filepath.Join(dir, "user.proto"),
		filepath.Join(dir, "profile.proto"),
	})
	require.NoError(t, err)

	merged, err := os.ReadFile(filepath.Join(outDir, "demo.proto"))
	require.NoError(t, err)
	assert.Contains(t, string(merged), "message Profile")
	assert.Contains(t, string(merged), "message User")
}

func TestRunMerge_DirMode(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	writeProto(t, dir, "a.proto", `syntax = "proto3";
package alpha;
message A { string id = 1; }
`)
	writeProto(t, dir, "b.proto", `syntax = "proto3";
package beta;
message B { string id = 1; }
`)

	err := runMerge([]string{"-dir", dir, "-output", outDir})
	require.NoError(t, err)

	for _, name := range []string{"alpha.proto", "beta.proto"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "expected %s", name)
	}
}

func TestRunMerge_NoInputsFails(t *testing.T) {
	err := runMerge(nil)
	assert.Error(t, err)
}
