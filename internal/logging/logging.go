// Package logging holds the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger. It is safe to use before Init; the package
// init installs an info-level console logger.
var Logger zerolog.Logger

// Config controls level and output format.
type Config struct {
	Level      string
	Pretty     bool
	TimeFormat string
	Output     io.Writer // defaults to os.Stderr
}

// DefaultConfig is info level, human-readable output.
func DefaultConfig() Config {
	return Config{Level: "info", Pretty: true, TimeFormat: time.RFC3339}
}

// Init replaces the global logger. An unknown level falls back to info.
func Init(cfg Config) {
	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}
	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: tf}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// With returns a child logger carrying the given job name.
func With(job string) zerolog.Logger {
	return Logger.With().Str("job", job).Logger()
}

func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }
func Fatal() *zerolog.Event { return Logger.Fatal() }

func init() {
	Init(DefaultConfig())
}
