// Package logging builds the slog loggers used by the CLI and the servers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the handler: "text" or "json".
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type options struct {
	w      io.Writer
	format Format
}

// Option configures New.
type Option func(*options)

// WithWriter redirects the output. Stderr is the default, leaving Stdout to
// command output and the MCP stdio transport.
func WithWriter(w io.Writer) Option { return func(o *options) { o.w = w } }

// WithFormat selects the handler format.
func WithFormat(f Format) Option { return func(o *options) { o.format = f } }

// New creates the application logger. The "error" key is renamed "err".
func New(level slog.Level, opts ...Option) *slog.Logger {
	o := options{w: os.Stderr, format: FormatText}
	for _, opt := range opts {
		opt(&o)
	}
	ho := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if o.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(o.w, ho))
	}
	return slog.New(slog.NewTextHandler(o.w, ho))
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// ParseFormat accepts "", "text" and "json".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}
