// Package log is a thin verbosity-aware wrapper around log/slog. Warnings
// and errors are always visible; -v adds progress and counts, -vv adds cache
// and API operation detail.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Verbosity levels.
const (
	LevelQuiet = iota // default: warnings and errors only
	LevelInfo         // -v: progress, cache hits, counts
	LevelDebug        // -vv: API calls, cache operations, retries
)

var (
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	inProgress bool // tracks an unfinished progress line
)

// Initialize sets up the global logger with the given verbosity level.
func Initialize(level int, w io.Writer) {
	verbosity = level
	output = w

	slogLevel := slog.LevelWarn
	switch {
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slogLevel,
	}))
}

// Info logs at info level (-v).
func Info(msg string, args ...any) {
	if verbosity >= LevelInfo {
		clearProgress()
		logger.Info(msg, args...)
	}
}

// Debug logs at debug level (-vv).
func Debug(msg string, args ...any) {
	if verbosity >= LevelDebug {
		clearProgress()
		logger.Debug(msg, args...)
	}
}

// Warn logs at warn level (always visible).
func Warn(msg string, args ...any) {
	clearProgress()
	logger.Warn(msg, args...)
}

// Error logs at error level (always visible).
func Error(msg string, args ...any) {
	clearProgress()
	logger.Error(msg, args...)
}

// Progress prints a progress message with carriage return (no newline).
// Only shown at info level or higher.
func Progress(format string, args ...any) {
	if verbosity >= LevelInfo {
		inProgress = true
		_, _ = fmt.Fprintf(output, "\r"+format, args...)
	}
}

// ProgressDone completes a progress line with "done" and a newline.
func ProgressDone() {
	if verbosity >= LevelInfo && inProgress {
		_, _ = fmt.Fprintln(output, " done")
		inProgress = false
	}
}

// ProgressClear erases the current progress line.
func ProgressClear() {
	if inProgress {
		_, _ = fmt.Fprint(output, "\r\033[K")
		inProgress = false
	}
}

// clearProgress ensures log lines don't write over a progress line.
func clearProgress() {
	if inProgress {
		_, _ = fmt.Fprintln(output)
		inProgress = false
	}
}

// IsInfo returns true if info-level logging is enabled.
func IsInfo() bool {
	return verbosity >= LevelInfo
}

// IsDebug returns true if debug-level logging is enabled.
func IsDebug() bool {
	return verbosity >= LevelDebug
}

// Verbosity returns the current verbosity level.
func Verbosity() int {
	return verbosity
}

// SetOutput changes the output writer (useful for testing).
func SetOutput(w io.Writer) {
	output = w
}

func init() {
	output = os.Stderr
	verbosity = LevelQuiet
	logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
