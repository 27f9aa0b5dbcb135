// Package logger builds the zerolog logger shared by every component.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options select the log level and output format
type Options struct {
	Level  string    // trace, debug, info, warn, error
	Format string    // console or json
	Out    io.Writer // defaults to stderr
}

// New builds a timestamped logger. Unknown levels are an error; an empty
// level means info.
func New(o Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if o.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(o.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", o.Level, err)
		}
		level = l
	}

	out := o.Out
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(o.Format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want console or json", o.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// Component derives a child logger tagged with a component name
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
