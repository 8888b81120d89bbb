package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/bookstore-auth/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type settings struct {
	env   string
	level string
}

func (s settings) GetEnv() string      { return s.env }
func (s settings) GetLogLevel() string { return s.level }
func (s settings) GetAppName() string  { return "bookstore-auth" }
func (s settings) GetVersion() string  { return "test" }

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, logging.ParseLevel(in), in)
	}
}

func TestNewWithWriter_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(settings{env: "PROD", level: "info"}, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("user", "a@b.com").Msg("login")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "login", line["message"])
	require.Equal(t, "bookstore-auth", line["service"])
	require.Equal(t, "test", line["version"])
	require.Equal(t, "a@b.com", line["user"])
}

func TestNewWithWriter_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(settings{env: "DEV", level: "debug"}, &buf)

	logger.Debug().Msg("visible")
	require.Contains(t, buf.String(), "visible")
	require.False(t, json.Valid(buf.Bytes()))
}
