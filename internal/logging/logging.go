// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a slog level.
// Unknown or empty values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger at the given level. sink is "stderr" (default),
// "stdout" or "file:/path/to/log"; a file that cannot be opened falls back to
// stderr. The returned closer releases the file, if any.
func New(level, sink string) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	switch {
	case sink == "stdout":
		w = os.Stdout
	case strings.HasPrefix(sink, "file:"):
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
		} else {
			w = f
			closer = f
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})), closer
}

// Discard returns a logger that drops everything. Components fall back to it
// when constructed with a nil logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
