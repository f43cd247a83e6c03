package renderpool

import (
	"context"
	"log/slog"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// loggerOrNop returns l, or a logger that discards everything when l is nil.
func loggerOrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(nopHandler{})
	}
	return l
}
