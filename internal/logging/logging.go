package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kutbudev/cardboard/internal/config"
)

// New builds the process logger. Format "json" writes one JSON object per
// line; anything else writes human readable console output.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
