// Package log builds the zerolog loggers used by the msdata command.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChrisMcGann/msdata/internal/config"
)

// NewLogger creates a logger writing to stderr based on configuration.
func NewLogger(cfg config.EnvConfig) zerolog.Logger {
	return NewLoggerWithWriter(os.Stderr, cfg.Format(), cfg.LogLevel)
}

// NewLoggerWithWriter creates a logger that writes to the specified writer.
func NewLoggerWithWriter(w io.Writer, format config.LogFormat, level string) zerolog.Logger {
	if format != config.LogFormatJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
