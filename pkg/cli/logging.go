package cli

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/actor-rtc/proto-regulate/pkg/config"
)

// newLogger builds a logrus logger from the logging section of the config.
// The verbose flag forces debug level regardless of configuration.
func newLogger(cfg *config.Config, verbose bool) *logrus.Logger {
	logger := logrus.New()

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if strings.ToLower(cfg.Logging.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
