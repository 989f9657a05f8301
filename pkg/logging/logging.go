// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel overrides Config.Level when set.
const EnvLevel = "SHELLAGENT_LOG_LEVEL"

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects level and output format.
type Config struct {
	Level  string `yaml:"level" toml:"level"`   // trace|debug|info|warn|error|disabled
	Format string `yaml:"format" toml:"format"` // console|json
}

// DefaultConfig logs at info level to a human-readable console writer.
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatConsole}
}

// New returns a logger writing to out. The EnvLevel environment variable, if
// set, wins over cfg.Level.
func New(cfg Config, out io.Writer) (zerolog.Logger, error) {
	raw := cfg.Level
	if v := strings.TrimSpace(os.Getenv(EnvLevel)); v != "" {
		raw = v
	}
	level, err := ParseLevel(raw)
	if err != nil {
		return zerolog.Nop(), err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("app", "shellagent").Logger(), nil
}

// ParseLevel accepts zerolog level names plus a few aliases. Empty means info.
func ParseLevel(raw string) (zerolog.Level, error) {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "off", "none", "disable":
		return zerolog.Disabled, nil
	default:
		lvl, err := zerolog.ParseLevel(s)
		if err != nil {
			return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", raw)
		}
		return lvl, nil
	}
}
