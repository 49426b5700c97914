package audit

import (
	"context"
	"log/slog"

	"github.com/you/otams/domain"
	"github.com/you/otams/internal/observability"
)

// Logger implements domain.AuditLogger by writing structured slog records
// and counting events in Prometheus.
type Logger struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLogger creates an audit logger. metrics may be nil.
func NewLogger(logger *slog.Logger, metrics *observability.Metrics) domain.AuditLogger {
	return &Logger{logger: logger.With("component", "audit"), metrics: metrics}
}

// LogEvent implements domain.AuditLogger
func (l *Logger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	attrs := []slog.Attr{
		slog.String("event_type", string(event.EventType)),
		slog.Bool("success", event.Success),
		slog.Time("event_time", event.Timestamp),
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", event.Email))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip", event.IPAddress))
	}
	if event.ErrorMsg != "" {
		attrs = append(attrs, slog.String("error", event.ErrorMsg))
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata)*2)
		for k, v := range event.Metadata {
			meta = append(meta, k, v)
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "audit event", attrs...)

	if l.metrics != nil {
		l.metrics.RecordAuthEvent(string(event.EventType), event.Success)
	}
	return nil
}
