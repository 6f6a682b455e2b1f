package descriptor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protodesc"
)

// dummyImportContent stands in for imports we cannot resolve. Parsing only
// needs the imported file to exist; cross-file type resolution is out of
// scope for this engine.
const dummyImportContent = `syntax = "proto3";`

// Parse compiles proto source text into a descriptor tree.
//
// Imports other than the google/protobuf well-known files are satisfied with
// empty placeholder files, so the input may import schemas that are not part
// of the call. References INTO such imports still fail to resolve; callers
// that need import resolution must pre-compile a full file set themselves.
func Parse(filename, content string) (*File, error) {
	if filename == "" {
		filename = "input.proto"
	}

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: func(path string) (io.ReadCloser, error) {
				switch {
				case path == filename:
					return io.NopCloser(strings.NewReader(content)), nil
				case strings.HasPrefix(path, "google/protobuf/"):
					// Defer to the standard import resolver.
					return nil, os.ErrNotExist
				default:
					return io.NopCloser(strings.NewReader(dummyImportContent)), nil
				}
			},
		}),
		SourceInfoMode: protocompile.SourceInfoNone,
	}

	files, err := compiler.Compile(context.Background(), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("parse %s: no file produced", filename)
	}

	file := fromFileDescriptorProto(protodesc.ToFileDescriptorProto(files[0]))
	file.SourceFile = filename
	return file, nil
}
