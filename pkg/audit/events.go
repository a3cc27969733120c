// Package audit orchestrates a full page audit: tiered execution,
// enrichment, threat correlation and cross-agent validation, with
// lifecycle events fanned out to observability hooks.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// EventType identifies an audit lifecycle event.
type EventType string

const (
	// EventStarted fires once when an audit begins.
	EventStarted EventType = "started"
	// EventModuleDone fires after each analysis module completes or fails.
	EventModuleDone EventType = "module_done"
	// EventStageComplete fires after each pipeline stage (execute,
	// enrich, correlate, validate).
	EventStageComplete EventType = "stage_complete"
	// EventFinished fires once when the audit completes.
	EventFinished EventType = "finished"
	// EventError fires when a recoverable failure is logged.
	EventError EventType = "error"
)

// Event is a single audit lifecycle notification. Fields are populated
// per type; zero values mean not-applicable.
type Event struct {
	Type      EventType `json:"type"`
	AuditID   string    `json:"audit_id"`
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`

	Module     string  `json:"module,omitempty"`
	Tier       string  `json:"tier,omitempty"`
	Stage      string  `json:"stage,omitempty"`
	Failed     bool    `json:"failed,omitempty"`
	Mode       string  `json:"mode,omitempty"`
	Findings   int     `json:"findings,omitempty"`
	Score      float64 `json:"score,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Hook receives audit lifecycle events. Hooks must be safe for
// concurrent use; module events from concurrent tiers may arrive from
// multiple goroutines.
type Hook interface {
	// OnEvent handles one event. Errors are logged, never propagated;
	// a failing hook cannot fail the audit.
	OnEvent(ctx context.Context, event Event) error

	// EventTypes filters delivery. Nil or empty means all events.
	EventTypes() []EventType
}

// emitter fans events out to hooks, containing panics and logging
// errors so observability can never break an audit.
type emitter struct {
	hooks  []Hook
	logger *slog.Logger
}

func (e *emitter) emit(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	for _, h := range e.hooks {
		if !hookWants(h, ev.Type) {
			continue
		}
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					e.logger.Error("audit hook panicked", "event", string(ev.Type), "panic", rec)
				}
			}()
			if err := h.OnEvent(ctx, ev); err != nil {
				e.logger.Warn("audit hook failed", "event", string(ev.Type), "error", err)
			}
		}()
	}
}

func hookWants(h Hook, t EventType) bool {
	types := h.EventTypes()
	if len(types) == 0 {
		return true
	}
	for _, et := range types {
		if et == t {
			return true
		}
	}
	return false
}
