package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/actor-rtc/proto-regulate/pkg/config"
	"github.com/actor-rtc/proto-regulate/pkg/regulate"
)

func newFingerprintCommand() *Command {
	cmd := &Command{
		Name:        "fingerprint",
		Description: "Print the canonical fingerprint of a proto file",
		Flags:       flag.NewFlagSet("fingerprint", flag.ExitOnError),
		Run:         runFingerprint,
	}

	cmd.Flags.String("file", "", "Proto file to fingerprint")
	cmd.Flags.String("config", "", "Path to YAML config file")

	return cmd
}

func runFingerprint(args []string) error {
	flags := flag.NewFlagSet("fingerprint", flag.ExitOnError)
	file := flags.String("file", "", "Proto file to fingerprint")
	configPath := flags.String("config", "", "Path to YAML config file")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *file, err)
	}

	engine := regulate.NewEngine(cfg.RegulateConfig())
	value, err := engine.FingerprintText(*file, string(content))
	if err != nil {
		return err
	}

	fmt.Println(value.String())
	return nil
}
