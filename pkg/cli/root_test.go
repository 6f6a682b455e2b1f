package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()
	require.NotNil(t, root)
	assert.Equal(t, "proto-regulate", root.Name)

	for _, name := range []string{"normalize", "merge", "fingerprint", "inspect"} {
		cmd, ok := root.Subcommands[name]
		require.True(t, ok, "missing subcommand %s", name)
		assert.NotNil(t, cmd.Run)
		assert.NotEmpty(t, cmd.Description)
	}
}

func TestPackageFileName(t *testing.T) {
	tests := []struct {
		pkg  string
		want string
	}{
		{"", "default.proto"},
		{"foo", "foo.proto"},
		{"foo.bar.v1", "foo_bar_v1.proto"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, packageFileName(tt.pkg))
	}
}
