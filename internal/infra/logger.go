package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the process logger. Every entry carries the process name
// (api, worker, migrate) so the three binaries can share one log stream.
func NewLogger(appEnv, process string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv, process)
}

func newLogger(out io.Writer, appEnv, process string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch appEnv {
	case "development":
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "test":
		level = zerolog.Disabled
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "marketfund").
		Str("process", process).
		Logger()
}
