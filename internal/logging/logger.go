package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Settings is the subset of configuration the logger needs.
type Settings interface {
	GetEnv() string
	GetLogLevel() string
	GetAppName() string
	GetVersion() string
}

// New builds the process logger. DEV gets coloured console output, every
// other environment writes JSON lines to stdout. The returned logger is also
// installed as the zerolog global so packages using zerolog/log agree with it.
func New(s Settings) zerolog.Logger {
	return NewWithWriter(s, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(s Settings, out io.Writer) zerolog.Logger {
	var w io.Writer = out
	if s.GetEnv() == "DEV" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).
		Level(ParseLevel(s.GetLogLevel())).
		With().
		Timestamp().
		Str("service", s.GetAppName()).
		Str("version", s.GetVersion()).
		Logger()

	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
