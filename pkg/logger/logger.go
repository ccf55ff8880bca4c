// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog logger; development environments log at debug level.
func New(env string) *slog.Logger {
	return newWithWriter(os.Stdout, env)
}

func newWithWriter(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "development" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup builds the logger and installs it as the slog default.
func Setup(env string) *slog.Logger {
	l := New(env).With("env", env)
	slog.SetDefault(l)
	return l
}
