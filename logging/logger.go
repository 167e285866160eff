// Package logging builds the zerolog loggers shared by the CLI and the HTTP service
package logging

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "DATAMOSH_LOG_LEVEL"
	EnvLogNoColor = "DATAMOSH_LOG_NOCOLOR"
)

type Config struct {
	Level   zerolog.Level
	NoColor bool
	Out     io.Writer
}

func DefaultConfig(out io.Writer) Config {
	return Config{Level: zerolog.InfoLevel, Out: out}
}

// ApplyEnv overrides cfg from the environment; unparsable values are ignored
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if lvl, ok := ParseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// New returns a console logger tagged with app and a fresh run id
func New(app string, cfg Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        cfg.Out,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Str("app", app).
		Str("run", uuid.NewString()).
		Logger()
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
