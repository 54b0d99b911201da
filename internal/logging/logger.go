// Package logging builds the structured logger used by the valact CLI.
//
// Output goes to stderr by default so that stdout carries only results
// (premiums, ledgers) and can be piped.
//
//	logger, err := logging.New(logging.Options{Level: "debug", Format: "json"}, os.Stderr)
//	logger.Info("batch solved", "cases", n)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options selects level and output format.
type Options struct {
	Level  string // "debug", "info", "warn", "error"; empty means info
	Format string // "text" or "json"; empty means text
}

// ParseLevel maps a level name to its slog.Level. Names are case-insensitive.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// New returns a logger writing to w.
func New(opts Options, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	ho := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, ho)
	case "json":
		h = slog.NewJSONHandler(w, ho)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return slog.New(h).With("service", "valact"), nil
}
