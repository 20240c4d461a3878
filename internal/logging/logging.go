// Package logging builds the process logger: leveled, human readable lines fanned
// out to the console and to rotated log files.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"basic-agent-service/internal/config"
)

// Setup creates a logger based on configuration. The returned cleanup closes file outputs.
func Setup(cfg *config.Config) (*slog.Logger, func()) {
	var writers []io.Writer
	var closers []io.Closer
	outputs := strings.Split(cfg.Log.Output, ",")

	for _, output := range outputs {
		output = strings.TrimSpace(output)
		if output == "" {
			continue
		}

		var w io.Writer
		switch output {
		case "stderr":
			w = consoleWriter(os.Stderr, cfg.Log.Format)
		case "stdout":
			w = consoleWriter(os.Stdout, cfg.Log.Format)
		default:
			// lumberjack opens in append mode and rotates by size
			l := &lumberjack.Logger{
				Filename:   output,
				MaxSize:    cfg.Log.Rotation.MaxSize,
				MaxBackups: cfg.Log.Rotation.MaxBackups,
				MaxAge:     cfg.Log.Rotation.MaxAge,
				Compress:   cfg.Log.Rotation.Compress,
			}
			w = l
			closers = append(closers, l)
		}
		writers = append(writers, w)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	handler := NewHandler(io.MultiWriter(writers...), cfg.Log.Format, cfg.GetLogLevel(), cfg.Log.QuietComponents)

	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	return slog.New(handler), cleanup
}

// NewHandler builds the slog handler used by Setup. Records from quiet components
// are dropped below WARN.
func NewHandler(w io.Writer, format string, level slog.Level, quiet []string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if len(quiet) == 0 {
		return handler
	}
	set := make(map[string]struct{}, len(quiet))
	for _, c := range quiet {
		set[c] = struct{}{}
	}
	return &componentFilter{next: handler, quiet: set}
}

// componentFilter raises the minimum level to WARN for loggers whose
// "component" attribute is in the quiet set.
type componentFilter struct {
	next    slog.Handler
	quiet   map[string]struct{}
	muted   bool
	inGroup bool
}

func (h *componentFilter) Enabled(ctx context.Context, level slog.Level) bool {
	if h.muted && level < slog.LevelWarn {
		return false
	}
	return h.next.Enabled(ctx, level)
}

func (h *componentFilter) Handle(ctx context.Context, r slog.Record) error {
	if !h.muted && !h.inGroup && r.Level < slog.LevelWarn {
		muted := false
		r.Attrs(func(a slog.Attr) bool {
			if h.isQuiet(a) {
				muted = true
				return false
			}
			return true
		})
		if muted {
			return nil
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *componentFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	muted := h.muted
	if !h.inGroup {
		for _, a := range attrs {
			if h.isQuiet(a) {
				muted = true
			}
		}
	}
	return &componentFilter{next: h.next.WithAttrs(attrs), quiet: h.quiet, muted: muted, inGroup: h.inGroup}
}

func (h *componentFilter) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &componentFilter{next: h.next.WithGroup(name), quiet: h.quiet, muted: h.muted, inGroup: true}
}

func (h *componentFilter) isQuiet(a slog.Attr) bool {
	if a.Key != "component" {
		return false
	}
	_, ok := h.quiet[a.Value.String()]
	return ok
}

// Component returns a child logger tagged with the given component name
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

var _ slog.Handler = (*componentFilter)(nil)
