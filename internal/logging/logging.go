package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
)

var (
	// Logger is the global structured logger
	Logger *slog.Logger

	// Verbose enables debug logging
	Verbose bool
)

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Options controls Setup.
type Options struct {
	Verbose bool
	JSON    bool
	NoColor bool
}

// Setup configures the structured logger and the user output colors.
// A nil writer falls back to stderr.
func Setup(opts Options, w io.Writer) {
	Verbose = opts.Verbose

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		Logger = slog.New(slog.NewJSONHandler(w, handlerOpts))
	} else {
		Logger = slog.New(slog.NewTextHandler(w, handlerOpts))
	}

	// JSON mode is meant for machines; keep the user stream plain too.
	if opts.NoColor || opts.JSON {
		color.NoColor = true
	}
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// With returns a logger with additional attributes
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}
