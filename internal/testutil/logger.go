// Package testutil carries shared helpers for the package test suites.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug-level logger routed through t.Log, so
// compiler traces interleave with test output and surface only on
// failure or under -v. Timestamps are dropped; the test runner prints
// its own.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	h := slog.NewTextHandler(tlogWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(h)
}

// tlogWriter adapts testing.TB to io.Writer. The handler terminates
// every record with a newline; t.Log adds another, so it comes off.
type tlogWriter struct {
	t testing.TB
}

func (w tlogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
