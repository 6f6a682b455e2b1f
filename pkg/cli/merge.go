package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/actor-rtc/proto-regulate/pkg/config"
	"github.com/actor-rtc/proto-regulate/pkg/regulate"
)

func newMergeCommand() *Command {
	cmd := &Command{
		Name:        "merge",
		Description: "Merge proto files by declared package",
		Flags:       flag.NewFlagSet("merge", flag.ExitOnError),
		Run:         runMerge,
	}

	cmd.Flags.String("dir", "", "Directory of proto files to merge")
	cmd.Flags.String("output", "", "Output directory, one file per package (default: stdout)")
	cmd.Flags.String("config", "", "Path to YAML config file")
	cmd.Flags.Bool("verbose", false, "Enable debug logging")

	return cmd
}

func runMerge(args []string) error {
	flags := flag.NewFlagSet("merge", flag.ExitOnError)
	dir := flags.String("dir", "", "Directory of proto files to merge")
	output := flags.String("output", "", "Output directory, one file per package (default: stdout)")
	configPath := flags.String("config", "", "Path to YAML config file")
	verbose := flags.Bool("verbose", false, "Enable debug logging")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, *verbose)
	engine := regulate.NewEngine(cfg.RegulateConfig())

	var texts []string
	if *dir != "" {
		var paths []string
		paths, texts, err = collectProtoFiles(*dir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no proto files found in %s", *dir)
		}
		logger.WithField("count", len(paths)).Debug("Collected proto files")
	} else {
		paths := flags.Args()
		if len(paths) == 0 {
			return fmt.Errorf("proto files or -dir required")
		}
		texts = make([]string, len(paths))
		for i, path := range paths {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			texts[i] = string(content)
		}
	}

	results, mergeErr := engine.MergeTexts(texts)
	if mergeErr != nil {
		logger.WithError(mergeErr).Error("Merge failed for at least one package")
	}
	for _, result := range results {
		for _, warning := range result.Warnings {
			logger.WithField("package", result.Package).Warn(warning)
		}
	}

	if *output == "" {
		for _, result := range results {
			fmt.Printf("// package: %s\n// fingerprint: %s\n%s\n",
				result.Package, result.Fingerprint.String(), result.Content)
		}
		return mergeErr
	}

	if err := os.MkdirAll(*output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, result := range results {
		target := filepath.Join(*output, packageFileName(result.Package))
		if !cfg.Output.Overwrite {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("refusing to overwrite %s", target)
			}
		}
		if err := os.WriteFile(target, []byte(result.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		logger.WithFields(logrus.Fields{
			"package":     result.Package,
			"output":      target,
			"fingerprint": result.Fingerprint.String(),
		}).Info("Wrote merged package")
	}
	return mergeErr
}
