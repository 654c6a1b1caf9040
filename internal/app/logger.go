package app

import (
	"strings"

	"github.com/mailforge/mailforge/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level and
// environment, defaulting to info.
func ConfigureLogging(level, environment string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level, environment)
}
