package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/actor-rtc/proto-regulate/pkg/config"
	"github.com/actor-rtc/proto-regulate/pkg/regulate"
)

func newNormalizeCommand() *Command {
	cmd := &Command{
		Name:        "normalize",
		Description: "Normalize a proto file, or merge a directory by package",
		Flags:       flag.NewFlagSet("normalize", flag.ExitOnError),
		Run:         runNormalize,
	}

	cmd.Flags.String("file", "", "Proto file to normalize")
	cmd.Flags.String("dir", "", "Directory of proto files to merge by package")
	cmd.Flags.String("output", "", "Output file (file mode) or directory (dir mode)")
	cmd.Flags.String("config", "", "Path to YAML config file")
	cmd.Flags.Bool("watch", false, "Re-run when proto files in the directory change")
	cmd.Flags.Bool("verbose", false, "Enable debug logging")

	return cmd
}

func runNormalize(args []string) error {
	flags := flag.NewFlagSet("normalize", flag.ExitOnError)
	file := flags.String("file", "", "Proto file to normalize")
	dir := flags.String("dir", "", "Directory of proto files to merge by package")
	output := flags.String("output", "", "Output file (file mode) or directory (dir mode)")
	configPath := flags.String("config", "", "Path to YAML config file")
	watch := flags.Bool("watch", false, "Re-run when proto files in the directory change")
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

	switch {
	case *file != "" && *dir != "":
		return fmt.Errorf("-file and -dir are mutually exclusive")
	case *file != "":
		return normalizeFile(engine, logger, *file, *output)
	case *dir != "":
		outDir := *output
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if outDir == "" {
			return fmt.Errorf("-output directory is required with -dir")
		}
		if *watch {
			return watchDirectory(engine, logger, cfg, *dir, outDir)
		}
		return normalizeDirectory(engine, logger, cfg, *dir, outDir)
	default:
		return fmt.Errorf("one of -file or -dir is required")
	}
}

func normalizeFile(engine *regulate.Engine, logger *logrus.Logger, path, output string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := engine.Normalize(path, string(content))
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"file":        path,
		"fingerprint": result.Fingerprint.String(),
	}).Debug("Normalized proto file")

	if output == "" {
		fmt.Print(result.Content)
		return nil
	}
	if err := os.WriteFile(output, []byte(result.Content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	logger.WithField("output", output).Info("Wrote normalized proto file")
	return nil
}

func normalizeDirectory(engine *regulate.Engine, logger *logrus.Logger, cfg *config.Config, dir, outDir string) error {
	paths, texts, err := collectProtoFiles(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no proto files found in %s", dir)
	}
	logger.WithField("count", len(paths)).Debug("Collected proto files")

	results, mergeErr := engine.MergeTexts(texts)
	if mergeErr != nil {
		logger.WithError(mergeErr).Error("Merge failed for at least one package")
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, result := range results {
		for _, warning := range result.Warnings {
			logger.WithField("package", result.Package).Warn(warning)
		}
		target := filepath.Join(outDir, packageFileName(result.Package))
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

// watchDirectory runs one directory pass, then re-runs on every change to a
// proto file under dir until interrupted.
func watchDirectory(engine *regulate.Engine, logger *logrus.Logger, cfg *config.Config, dir, outDir string) error {
	if err := normalizeDirectory(engine, logger, cfg, dir, outDir); err != nil {
		logger.WithError(err).Error("Initial run failed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := setupWatcher(watcher, dir); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	logger.WithField("dir", dir).Info("Watching for proto file changes")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if (event.Op&(fsnotify.Write|fsnotify.Create) != 0) && filepath.Ext(event.Name) == ".proto" {
				logger.WithField("file", event.Name).Info("Modified file")
				if err := normalizeDirectory(engine, logger, cfg, dir, outDir); err != nil {
					logger.WithError(err).Error("Run failed")
				}
			}
			// Also watch new directories
			if event.Op&fsnotify.Create != 0 {
				fi, err := os.Stat(event.Name)
				if err == nil && fi.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.WithError(err).Warn("Error watching new directory")
					}
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("Watcher error")
		}
	}
}

// setupWatcher recursively adds all directories to the watcher
func setupWatcher(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// collectProtoFiles returns all proto files under dir in sorted path order,
// with their contents.
func collectProtoFiles(dir string) ([]string, []string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".proto" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find proto files: %w", err)
	}
	sort.Strings(paths)

	texts := make([]string, len(paths))
	for i, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		texts[i] = string(content)
	}
	return paths, texts, nil
}

// packageFileName is the output file for a merged package: dots become
// underscores, the empty package becomes "default".
func packageFileName(pkg string) string {
	if pkg == "" {
		return "default.proto"
	}
	return strings.ReplaceAll(pkg, ".", "_") + ".proto"
}
