// Package executor runs registered analysis modules against one target
// under tiered time budgets. Fast and medium tiers run concurrently
// bounded by a tier-wide deadline; deep modules run sequentially with a
// per-module budget because they may share a browser or raw-socket
// resource that is not safe for unconstrained parallelism.
//
// A module failure — error, panic or timeout — is recorded and never
// aborts the batch; the audit always completes with whatever the
// surviving modules produced.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

// SecurityResult is the per-audit aggregate of the security phase.
// The executor owns it during construction; ownership transfers to the
// caller when Execute returns.
type SecurityResult struct {
	// Target is the audited URL.
	Target string `json:"target"`

	// Findings are the raw findings from all modules, pre-validation.
	Findings []finding.Finding `json:"findings"`

	// Score is the composite page trust score in [0, 1].
	Score float64 `json:"score"`

	// ModulesRun lists modules that completed, sorted by name.
	ModulesRun []string `json:"modules_run"`

	// ModulesFailed lists modules that errored, panicked or timed out,
	// sorted by name.
	ModulesFailed []string `json:"modules_failed"`

	// AnalysisTimeMs is the wall-clock duration of the whole phase.
	AnalysisTimeMs int64 `json:"analysis_time_ms"`

	// Mode records which execution path produced this result
	// (agent, legacy or legacy_fallback). Stamped by the router.
	Mode string `json:"mode,omitempty"`
}

// TierTimeouts overrides the per-tier budgets. Zero values keep the
// tier defaults (5s/15s/30s).
type TierTimeouts struct {
	Fast   time.Duration
	Medium time.Duration
	Deep   time.Duration
}

func (t TierTimeouts) forTier(tier registry.Tier) time.Duration {
	var d time.Duration
	switch tier {
	case registry.TierFast:
		d = t.Fast
	case registry.TierMedium:
		d = t.Medium
	case registry.TierDeep:
		d = t.Deep
	}
	if d <= 0 {
		d = tier.DefaultTimeout()
	}
	return d
}

// Executor schedules analysis modules by tier.
type Executor struct {
	registry *registry.Registry
	timeouts TierTimeouts
	logger   *slog.Logger

	// OnModuleDone, when set, is invoked after each module completes or
	// fails. Used by the orchestrator to emit progress events.
	OnModuleDone func(module string, tier registry.Tier, failed bool, err error)
}

// New creates an executor over the given registry.
func New(reg *registry.Registry, timeouts TierTimeouts, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{registry: reg, timeouts: timeouts, logger: logger}
}

// moduleOutcome is what one module run produced.
type moduleOutcome struct {
	name     string
	findings []finding.Finding
	score    float64
	err      error
}

// Execute runs all registered modules against the target and returns
// the finalized SecurityResult. No module error escapes; the returned
// error is non-nil only when ctx is already cancelled before any tier
// starts.
func (e *Executor) Execute(ctx context.Context, target *registry.Target) (*SecurityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &SecurityResult{
		Target:        target.URL,
		Findings:      []finding.Finding{},
		ModulesRun:    []string{},
		ModulesFailed: []string{},
	}

	tiers := e.registry.ByTier()
	var scores []float64

	collect := func(tier registry.Tier, outcomes []moduleOutcome) {
		for _, o := range outcomes {
			failed := o.err != nil
			if failed {
				result.ModulesFailed = append(result.ModulesFailed, o.name)
				e.logger.Warn("module failed",
					slog.String("module", o.name),
					slog.String("tier", string(tier)),
					slog.String("error", o.err.Error()))
			} else {
				result.ModulesRun = append(result.ModulesRun, o.name)
				result.Findings = append(result.Findings, o.findings...)
				scores = append(scores, o.score)
			}
			if e.OnModuleDone != nil {
				e.OnModuleDone(o.name, tier, failed, o.err)
			}
		}
	}

	collect(registry.TierFast, e.runConcurrent(ctx, registry.TierFast, tiers[registry.TierFast], target))
	collect(registry.TierMedium, e.runConcurrent(ctx, registry.TierMedium, tiers[registry.TierMedium], target))
	collect(registry.TierDeep, e.runSequential(ctx, tiers[registry.TierDeep], target))

	sort.Strings(result.ModulesRun)
	sort.Strings(result.ModulesFailed)
	result.Score = compositeScore(scores, len(result.ModulesFailed), result.Findings)
	result.AnalysisTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// runConcurrent launches every module of the tier at once and waits up
// to the tier-wide budget. Modules still running at the deadline are
// cancelled and recorded as failed; their late results are discarded.
func (e *Executor) runConcurrent(ctx context.Context, tier registry.Tier, mods []registry.Descriptor, target *registry.Target) []moduleOutcome {
	if len(mods) == 0 {
		return nil
	}

	budget := e.timeouts.forTier(tier)
	tierCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// Buffered so late goroutines never block after the deadline.
	ch := make(chan moduleOutcome, len(mods))
	for _, d := range mods {
		go func(d registry.Descriptor) {
			ch <- e.invoke(tierCtx, d, target)
		}(d)
	}

	outcomes := make([]moduleOutcome, 0, len(mods))
	done := make(map[string]bool, len(mods))
	for len(outcomes) < len(mods) {
		select {
		case o := <-ch:
			outcomes = append(outcomes, o)
			done[o.name] = true
		case <-tierCtx.Done():
			// Budget exhausted: everything unfinished is a failure.
			for _, d := range mods {
				if !done[d.Name] {
					outcomes = append(outcomes, moduleOutcome{
						name: d.Name,
						err:  fmt.Errorf("tier %s budget exceeded after %s", tier, budget),
					})
					done[d.Name] = true
				}
			}
			return outcomes
		}
	}
	return outcomes
}

// runSequential runs deep modules one at a time, each under its own
// budget. A failing or slow deep module never blocks the next one
// beyond its own timeout.
func (e *Executor) runSequential(ctx context.Context, mods []registry.Descriptor, target *registry.Target) []moduleOutcome {
	outcomes := make([]moduleOutcome, 0, len(mods))
	for _, d := range mods {
		modCtx, cancel := context.WithTimeout(ctx, d.Timeout)
		outcome := e.invoke(modCtx, d, target)
		cancel()
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// invoke runs one module, converting panics into recorded failures so
// a buggy check can never take down the audit.
func (e *Executor) invoke(ctx context.Context, d registry.Descriptor, target *registry.Target) (outcome moduleOutcome) {
	outcome.name = d.Name
	defer func() {
		if r := recover(); r != nil {
			outcome.err = fmt.Errorf("module panic: %v", r)
			outcome.findings = nil
		}
	}()

	findings, err := d.Module.Analyze(ctx, target)
	if err != nil {
		outcome.err = err
		return outcome
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		// Finished after cancellation: the tier already gave up on us.
		outcome.err = ctxErr
		return outcome
	}

	// Stamp provenance defaults the module may have omitted.
	for i := range findings {
		if findings[i].Source == "" {
			findings[i].Source = d.Name
		}
	}
	outcome.findings = findings
	outcome.score = defaults.ModuleScoreNeutral
	if scorer, ok := d.Module.(registry.Scorer); ok {
		outcome.score = clamp01(scorer.Score(findings))
	}
	return outcome
}

// compositeScore is the mean of per-module scores minus penalties for
// failed modules and critical findings, clamped to [0, 1].
func compositeScore(scores []float64, failed int, findings []finding.Finding) float64 {
	mean := defaults.ModuleScoreNeutral
	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		mean = sum / float64(len(scores))
	}

	criticals := 0
	for _, f := range findings {
		if f.Severity == finding.Critical {
			criticals++
		}
	}

	score := mean - defaults.FailurePenalty*float64(failed) - defaults.CriticalPenalty*float64(criticals)
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
