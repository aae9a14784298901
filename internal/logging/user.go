package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// User-facing output, kept apart from structured logs. Info and success go
// to Stdout; warnings and errors go to Stderr.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var (
	infoPrefix    = color.New(color.FgBlue).SprintFunc()
	successPrefix = color.New(color.FgGreen).SprintFunc()
	warnPrefix    = color.New(color.FgYellow).SprintFunc()
	errorPrefix   = color.New(color.FgRed).SprintFunc()
	dim           = color.New(color.Faint).SprintFunc()
	accent        = color.New(color.FgCyan).SprintFunc()
)

// UserInfo prints an info message to stdout.
func UserInfo(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", infoPrefix("ℹ"), fmt.Sprintf(format, args...))
}

// UserSuccess prints a success message to stdout.
func UserSuccess(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", successPrefix("✓"), fmt.Sprintf(format, args...))
}

// UserWarning prints a warning message to stderr.
func UserWarning(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, "%s %s\n", warnPrefix("⚠"), fmt.Sprintf(format, args...))
}

// UserError prints an error message to stderr.
func UserError(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, "%s %s\n", errorPrefix("✗"), fmt.Sprintf(format, args...))
}

// UserHint prints a dimmed secondary line to stdout.
func UserHint(format string, args ...interface{}) {
	fmt.Fprintln(Stdout, dim(fmt.Sprintf(format, args...)))
}

// Highlight renders s in the accent color (URLs, commands).
func Highlight(s string) string {
	return accent(s)
}
