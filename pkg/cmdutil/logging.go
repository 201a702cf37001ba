package cmdutil

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogLevelEmbed is the log level flag shared by all binaries.
type LogLevelEmbed struct {
	LogLevel string `optional:"" env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log verbosity"`
}

// NewLogger returns a human readable logger on stderr. Stdout is left for
// command output.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
