package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

type loggerOptions struct {
	Debug bool
	Json  bool
}

// newLogger logs at warn level unless debug is requested
func newLogger(wrt io.Writer, opts loggerOptions) *slog.Logger {

	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}

	if opts.Json {
		return slog.New(slog.NewJSONHandler(wrt, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(tint.NewHandler(wrt, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339Nano,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				attr.Value = slog.TimeValue(attr.Value.Time().UTC())
			}
			return attr
		},
	}))
}
