package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger. Handy during
// development to watch traffic on the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a SlogAdapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter logging at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event as one structured record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Instrument != "" {
		attrs = append(attrs, slog.String("instrument", event.Instrument))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	switch {
	case event.Line != nil:
		attrs = append(attrs,
			slog.Int("size", event.Line.Size),
			slog.String("text", event.Line.Text),
		)
		if event.Line.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Unit != nil:
		u := event.Unit
		attrs = append(attrs,
			slog.Int("unit", u.Index),
			slog.String("header", u.Header),
		)
		if u.Path != "" {
			attrs = append(attrs, slog.String("path", u.Path))
		}
		if u.Code != nil {
			attrs = append(attrs, slog.Int("code", *u.Code), slog.String("kind", u.Kind))
		}
		if u.Response != "" {
			attrs = append(attrs, slog.String("response", u.Response))
		}
		if u.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *u.ProcessingTime))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), a.level, "scpi", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
