// Package logger builds the root zerolog instance every component derives
// its own tagged logger from.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger creates the process logger. An unparseable level falls back to
// debug rather than failing startup.
func NewLogger(logLevel string) zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("service", "sql-user-backend").
		Logger()
}
