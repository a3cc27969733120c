package audit

import (
	"context"
	"log/slog"
)

// Compile-time interface check.
var _ Hook = (*LoggerHook)(nil)

// LoggerHook mirrors audit events into structured logs.
type LoggerHook struct {
	logger *slog.Logger
	types  []EventType
}

// NewLoggerHook logs every event type. Pass types to restrict delivery.
func NewLoggerHook(logger *slog.Logger, types ...EventType) *LoggerHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggerHook{logger: logger, types: types}
}

func (h *LoggerHook) EventTypes() []EventType { return h.types }

func (h *LoggerHook) OnEvent(ctx context.Context, ev Event) error {
	attrs := []any{
		"audit_id", ev.AuditID,
		"target", ev.Target,
	}
	switch ev.Type {
	case EventStarted:
		h.logger.InfoContext(ctx, "audit started", attrs...)
	case EventModuleDone:
		attrs = append(attrs, "module", ev.Module, "tier", ev.Tier, "failed", ev.Failed)
		if ev.Error != "" {
			attrs = append(attrs, "error", ev.Error)
		}
		h.logger.DebugContext(ctx, "module done", attrs...)
	case EventStageComplete:
		attrs = append(attrs, "stage", ev.Stage, "findings", ev.Findings, "duration_ms", ev.DurationMs)
		h.logger.InfoContext(ctx, "stage complete", attrs...)
	case EventFinished:
		attrs = append(attrs, "mode", ev.Mode, "score", ev.Score, "findings", ev.Findings, "duration_ms", ev.DurationMs)
		h.logger.InfoContext(ctx, "audit finished", attrs...)
	case EventError:
		attrs = append(attrs, "error", ev.Error)
		h.logger.WarnContext(ctx, "audit error", attrs...)
	}
	return nil
}
