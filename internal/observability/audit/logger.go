// Package audit implements ports.ActionLogger as structured slog lines with a
// counter per event.
package audit

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

// tagFields are copied onto the audit counter; everything else is log-only
// to keep metric cardinality bounded.
//
//nolint:gochecknoglobals // fixed allowlist
var tagFields = []string{"reason", "target", "step", "result", "role"}

// Logger writes one INFO line per action. It never fails the caller.
type Logger struct {
	logger *slog.Logger
	sink   statsd.Sink
}

var _ ports.ActionLogger = (*Logger)(nil)

// New returns an audit logger. A nil logger uses slog.Default; a nil sink skips metrics.
func New(logger *slog.Logger, sink statsd.Sink) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "audit"), sink: sink}
}

// Action records event with its fields.
func (l *Logger) Action(ctx context.Context, event string, fields map[string]any) {
	if l == nil || event == "" {
		return
	}

	keys := slices.Sorted(maps.Keys(fields))
	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("event", event))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "action", attrs...)

	if l.sink == nil {
		return
	}
	tags := make(map[string]string)
	for _, k := range tagFields {
		if s, ok := fields[k].(string); ok && s != "" {
			tags[k] = s
		}
	}
	l.sink.Count("action."+event, 1, tags)
}
