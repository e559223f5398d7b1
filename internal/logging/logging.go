// Package logging builds the zerolog loggers used across evtwin.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Level  string
	Format string

	// Output defaults to stderr.
	Output io.Writer
	// Tee, when set, also receives every entry without colour, e.g. a log file.
	Tee io.Writer
}

func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if cfg.Format != FormatJSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if cfg.Tee != nil {
		var tee io.Writer = cfg.Tee
		if cfg.Format != FormatJSON {
			tee = zerolog.ConsoleWriter{Out: cfg.Tee, TimeFormat: time.RFC3339, NoColor: true}
		}
		w = zerolog.MultiLevelWriter(w, tee)
	}

	return zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

func Nop() zerolog.Logger { return zerolog.Nop() }
