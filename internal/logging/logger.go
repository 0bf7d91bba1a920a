package logging

import (
	"os"

	"github.com/rs/zerolog"

	"butternut/internal/config"
)

// NewLogger creates a structured zerolog.Logger tagged with service context
// from the config.
func NewLogger(cfg config.AppConfig) zerolog.Logger {
	ctx := zerolog.New(os.Stdout).With().Timestamp()

	if cfg.Name != "" {
		ctx = ctx.Str("service", cfg.Name)
	}
	if cfg.Environment != "" {
		ctx = ctx.Str("env", cfg.Environment)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
