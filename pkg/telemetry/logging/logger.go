package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"tork-hq/governance/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs as logfmt key=value pairs.
	FormatText LogFormat = "text"
	// FormatConsole outputs compact logs for a terminal, without timestamps.
	FormatConsole LogFormat = "console"
)

// Config contains configuration for New.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string

	// Format is the output format ("json", "text", "console").
	Format string

	// AddSource includes file and line number in logs.
	AddSource bool

	// RedactPII scrubs PII and secrets from every logged string.
	RedactPII bool

	// Redactor overrides the default core-pack redactor.
	Redactor *Redactor

	// Writer is the output writer. Default: os.Stderr
	Writer io.Writer
}

// FromConfig converts the logging section of a configuration file.
func FromConfig(c config.LoggingConfig) Config {
	return Config{
		Level:     c.Level,
		Format:    c.Format,
		AddSource: c.AddSource,
		RedactPII: c.RedactEnabled(),
	}
}

// New builds a slog.Logger. When RedactPII is set, every string attribute
// and the message pass through the redactor before they are written, so
// values attached with With are scrubbed as well.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	var redactor *Redactor
	if cfg.RedactPII {
		redactor = cfg.Redactor
		if redactor == nil {
			if redactor, err = DefaultRedactor(); err != nil {
				return nil, err
			}
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var replace []func([]string, slog.Attr) slog.Attr
	if redactor != nil {
		replace = append(replace, redactor.ReplaceAttr)
	}
	if format == FormatConsole {
		replace = append(replace, dropTime)
	}
	if len(replace) > 0 {
		opts.ReplaceAttr = chain(replace)
	}

	var handler slog.Handler
	switch format {
	case FormatText, FormatConsole:
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(&contextHandler{Handler: handler}), nil
}

// Discard returns a logger that writes nothing.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func chain(fns []func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		for _, fn := range fns {
			a = fn(groups, a)
		}
		return a
	}
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// ParseLevel parses a log level string into slog.Level. The empty string
// is info.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
