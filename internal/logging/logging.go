package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"rental-inventory-api/internal/config"

	"github.com/rs/zerolog"
)

// New constructs the service logger from config. JSON to stdout by
// default; unknown levels fall back to info.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	output := io.Writer(os.Stdout)
	if strings.ToLower(strings.TrimSpace(cfg.Format)) == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", "rental-inventory-api").
		Logger()
}
