package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/actor-rtc/proto-regulate/pkg/canonical"
	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

func newInspectCommand() *Command {
	cmd := &Command{
		Name:        "inspect",
		Description: "Dump the parsed descriptor tree of a proto file as JSON",
		Flags:       flag.NewFlagSet("inspect", flag.ExitOnError),
		Run:         runInspect,
	}

	cmd.Flags.String("file", "", "Proto file to inspect")
	cmd.Flags.Bool("canonical", false, "Canonicalize the tree before dumping")

	return cmd
}

func runInspect(args []string) error {
	flags := flag.NewFlagSet("inspect", flag.ExitOnError)
	file := flags.String("file", "", "Proto file to inspect")
	canonicalize := flags.Bool("canonical", false, "Canonicalize the tree before dumping")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *file, err)
	}

	tree, err := descriptor.Parse(*file, string(content))
	if err != nil {
		return err
	}
	if *canonicalize {
		tree, err = canonical.Canonicalize(tree)
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
