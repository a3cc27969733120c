package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trustlens/trustlens/pkg/enrich"
	"github.com/trustlens/trustlens/pkg/executor"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
	"github.com/trustlens/trustlens/pkg/router"
	"github.com/trustlens/trustlens/pkg/threatintel"
	"github.com/trustlens/trustlens/pkg/validator"
)

// SecurityAgent is the agent name under which this engine's own
// findings enter cross-agent validation.
const SecurityAgent = "security"

// Result is the complete outcome of one audit.
type Result struct {
	AuditID     string                         `json:"audit_id"`
	Target      string                         `json:"target"`
	Security    *executor.SecurityResult       `json:"security"`
	Adjudicated []validator.AdjudicatedFinding `json:"adjudicated_findings"`
	StartedAt   time.Time                      `json:"started_at"`
	DurationMs  int64                          `json:"duration_ms"`
}

// Options configures an Orchestrator.
type Options struct {
	// Registry supplies the analysis modules. Required.
	Registry *registry.Registry

	// Timeouts overrides tier budgets; zero values keep defaults.
	Timeouts executor.TierTimeouts

	// EnableEnrichment toggles CWE/score enrichment.
	EnableEnrichment bool

	// EnableThreatCorrelation toggles reputation correlation. Also
	// requires IntelSource to be set.
	EnableThreatCorrelation bool

	// IntelSource is the reputation feed; wrapped in a read-through
	// cache internally. Nil disables correlation.
	IntelSource threatintel.Client

	// Router controls new-path rollout.
	Router router.Config

	// Hooks receive lifecycle events.
	Hooks []Hook

	Logger *slog.Logger
}

// Orchestrator drives a full audit: routing, execution, enrichment,
// correlation and cross-agent validation. It runs one audit at a
// time; concurrent Audit calls are serialized.
type Orchestrator struct {
	router    *router.Router
	validator *validator.Validator
	events    emitter
	logger    *slog.Logger

	mu        sync.Mutex
	curAudit  string
	curTarget string
}

// NewOrchestrator wires the full pipeline from options.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		validator: validator.New(logger),
		events:    emitter{hooks: opts.Hooks, logger: logger},
		logger:    logger,
	}

	exec := executor.New(opts.Registry, opts.Timeouts, logger)
	exec.OnModuleDone = o.onModuleDone

	var enricher *enrich.Enricher
	if opts.EnableEnrichment {
		enricher = enrich.New(logger)
	}
	var correlator *threatintel.Correlator
	if opts.EnableThreatCorrelation && opts.IntelSource != nil {
		cache := threatintel.NewCache(opts.IntelSource, logger)
		correlator = threatintel.NewCorrelator(cache, logger)
	}

	pipeline := NewPipeline(exec, enricher, correlator, logger)
	legacy := NewLegacyEngine(opts.Registry, 0, logger)
	legacy.OnModuleDone = o.onModuleDone
	o.router = router.New(opts.Router, pipeline.Execute, legacy.Run, logger)
	return o, nil
}

// Audit runs the engine over target, then adjudicates its findings
// together with the sibling agents' findings. siblings maps agent
// name to that agent's findings and may be nil.
func (o *Orchestrator) Audit(ctx context.Context, target *registry.Target, siblings map[string][]finding.Finding) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	auditID := uuid.NewString()
	o.curAudit, o.curTarget = auditID, target.URL
	defer func() { o.curAudit, o.curTarget = "", "" }()

	o.events.emit(ctx, Event{Type: EventStarted, AuditID: auditID, Target: target.URL})

	security, err := o.router.Run(ctx, target)
	if err != nil {
		o.events.emit(ctx, Event{
			Type: EventError, AuditID: auditID, Target: target.URL, Error: err.Error(),
		})
		return nil, fmt.Errorf("audit %s: %w", target.URL, err)
	}
	o.events.emit(ctx, Event{
		Type: EventStageComplete, AuditID: auditID, Target: target.URL,
		Stage: "execute", Findings: len(security.Findings),
		DurationMs: security.AnalysisTimeMs,
	})

	byAgent := make(map[string][]finding.Finding, len(siblings)+1)
	for agent, fs := range siblings {
		byAgent[agent] = fs
	}
	byAgent[SecurityAgent] = security.Findings

	adjudicated := o.validator.Validate(byAgent)
	o.events.emit(ctx, Event{
		Type: EventStageComplete, AuditID: auditID, Target: target.URL,
		Stage: "validate", Findings: len(adjudicated),
	})

	result := &Result{
		AuditID:     auditID,
		Target:      target.URL,
		Security:    security,
		Adjudicated: adjudicated,
		StartedAt:   start,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	o.events.emit(ctx, Event{
		Type: EventFinished, AuditID: auditID, Target: target.URL,
		Mode: security.Mode, Score: security.Score,
		Findings: len(adjudicated), DurationMs: result.DurationMs,
	})
	return result, nil
}

// Route exposes the routing decision for a target without running an
// audit, for dry-run inspection.
func (o *Orchestrator) Route(target string) router.Decision {
	return o.router.Route(target)
}

func (o *Orchestrator) onModuleDone(module string, tier registry.Tier, failed bool, err error) {
	ev := Event{
		Type:    EventModuleDone,
		AuditID: o.curAudit,
		Target:  o.curTarget,
		Module:  module,
		Tier:    string(tier),
		Failed:  failed,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	o.events.emit(context.Background(), ev)
}
