package audit

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trustlens/trustlens/pkg/enrich"
	"github.com/trustlens/trustlens/pkg/executor"
	"github.com/trustlens/trustlens/pkg/registry"
	"github.com/trustlens/trustlens/pkg/threatintel"
)

const tracerName = "github.com/trustlens/trustlens/pkg/audit"

// Pipeline is the new execution path: tiered execution followed by
// enrichment and threat correlation. A nil enricher or correlator
// disables that stage; both stages are additive and never drop
// findings.
type Pipeline struct {
	exec       *executor.Executor
	enricher   *enrich.Enricher
	correlator *threatintel.Correlator
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(exec *executor.Executor, enricher *enrich.Enricher, correlator *threatintel.Correlator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		exec:       exec,
		enricher:   enricher,
		correlator: correlator,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Execute runs the pipeline over the target. Only the executor stage
// can fail; an enrichment miss or an offline threat feed degrades to
// unadjusted findings.
func (p *Pipeline) Execute(ctx context.Context, target *registry.Target) (*executor.SecurityResult, error) {
	ctx, span := p.tracer.Start(ctx, "audit.pipeline",
		trace.WithAttributes(attribute.String("audit.target", target.URL)))
	defer span.End()

	result, err := p.runExecute(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution failed")
		return nil, err
	}

	if p.enricher != nil {
		_, enrichSpan := p.tracer.Start(ctx, "audit.enrich")
		result.Findings = p.enricher.EnrichAll(result.Findings)
		enrichSpan.End()
	}

	if p.correlator != nil {
		corrCtx, corrSpan := p.tracer.Start(ctx, "audit.correlate")
		boosted, corrErr := p.correlator.Correlate(corrCtx, target.URL, result.Findings)
		if corrErr != nil {
			// Missing threat data is a valid null result; a hard
			// lookup failure degrades to unboosted findings.
			corrSpan.RecordError(corrErr)
			p.logger.Warn("threat correlation skipped", "target", target.URL, "error", corrErr)
		} else {
			result.Findings = boosted
		}
		corrSpan.End()
	}

	span.SetAttributes(
		attribute.Int("audit.findings", len(result.Findings)),
		attribute.Float64("audit.score", result.Score),
		attribute.Int("audit.modules_failed", len(result.ModulesFailed)),
	)
	return result, nil
}

func (p *Pipeline) runExecute(ctx context.Context, target *registry.Target) (*executor.SecurityResult, error) {
	execCtx, span := p.tracer.Start(ctx, "audit.execute")
	defer span.End()

	result, err := p.exec.Execute(execCtx, target)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("audit.modules_run", len(result.ModulesRun)),
		attribute.Int("audit.modules_failed", len(result.ModulesFailed)),
	)
	return result, nil
}
