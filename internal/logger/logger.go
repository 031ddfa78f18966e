// Package logger provides verbose logging for regdesk.
// When verbose mode is enabled via the --verbose flag, debug and progress
// messages are printed to stderr to help users follow the ingestion pipeline
// and the agent loop. Errors are always printed.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	handler slog.Handler
)

func init() {
	handler = newHandler(output)
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// Terminal output: time is noise next to the message.
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	handler = newHandler(w)
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(slog.LevelDebug, false, format, args...)
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(slog.LevelInfo, false, format, args...)
}

// Warn logs a warning if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(slog.LevelWarn, false, format, args...)
}

// Error logs an error regardless of verbose mode.
func Error(format string, args ...any) {
	logf(slog.LevelError, true, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// With returns a structured logger carrying attrs, gated like Debug.
// Callers that log many related events (one pipeline run, one session)
// use it to tag every line.
func With(attrs ...any) *Scoped {
	return &Scoped{attrs: attrs}
}

// Scoped is a logger bound to a fixed set of attributes.
type Scoped struct {
	attrs []any
}

// Debug logs a message with the scoped attributes if verbose mode is enabled.
func (s *Scoped) Debug(msg string, args ...any) {
	s.log(slog.LevelDebug, false, msg, args...)
}

// Info logs a message with the scoped attributes if verbose mode is enabled.
func (s *Scoped) Info(msg string, args ...any) {
	s.log(slog.LevelInfo, false, msg, args...)
}

// Warn logs a warning with the scoped attributes if verbose mode is enabled.
func (s *Scoped) Warn(msg string, args ...any) {
	s.log(slog.LevelWarn, false, msg, args...)
}

// Error logs an error with the scoped attributes regardless of verbose mode.
func (s *Scoped) Error(msg string, args ...any) {
	s.log(slog.LevelError, true, msg, args...)
}

func (s *Scoped) log(level slog.Level, always bool, msg string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && !always {
		return
	}
	slog.New(handler).With(s.attrs...).Log(context.Background(), level, msg, args...)
}

func logf(level slog.Level, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && !always {
		return
	}
	slog.New(handler).Log(context.Background(), level, fmt.Sprintf(format, args...))
}
