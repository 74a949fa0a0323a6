package xslog

import (
	"context"
	"log/slog"
	"strings"
)

var _ slog.Handler = (*FilterHandler)(nil)

type FilterFunc func(ctx context.Context, record slog.Record) bool

func NewFilterHandler(handler slog.Handler, filter FilterFunc) *FilterHandler {
	return &FilterHandler{handler: handler, filter: filter}
}

// FilterHandler drops records for which the filter returns false.
type FilterHandler struct {
	handler slog.Handler
	filter  FilterFunc
}

func (f *FilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.handler.Enabled(ctx, level)
}

func (f *FilterHandler) Handle(ctx context.Context, record slog.Record) error {
	if f.filter != nil && !f.filter(ctx, record) {
		return nil
	}
	return f.handler.Handle(ctx, record)
}

func (f *FilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewFilterHandler(f.handler.WithAttrs(attrs), f.filter)
}

func (f *FilterHandler) WithGroup(name string) slog.Handler {
	return NewFilterHandler(f.handler.WithGroup(name), f.filter)
}

// DropDebugPaths drops records below info level whose string attribute key starts with one of prefixes.
// It keeps access logs for static files and live streams out of normal debug output.
func DropDebugPaths(key string, prefixes ...string) FilterFunc {
	return func(ctx context.Context, record slog.Record) bool {
		if record.Level >= slog.LevelInfo {
			return true
		}
		keep := true
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key != key {
				return true
			}
			value := attr.Value.String()
			for _, prefix := range prefixes {
				if strings.HasPrefix(value, prefix) {
					keep = false
					return false
				}
			}
			return true
		})
		return keep
	}
}
