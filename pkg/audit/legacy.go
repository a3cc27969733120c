package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/executor"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

// legacyBudget is the single global deadline for a legacy run,
// covering all modules together.
const legacyBudget = 20 * time.Second

// LegacyEngine is the pre-tiering execution path kept for rollout
// fallback: fast and medium modules run sequentially under one global
// budget, deep modules are skipped, and no enrichment or correlation
// is applied. Output shape matches the new path so callers cannot
// tell the two apart except by the mode marker.
type LegacyEngine struct {
	registry *registry.Registry
	budget   time.Duration
	logger   *slog.Logger

	// OnModuleDone, when set, is invoked after each module completes,
	// fails or is skipped for budget. Same contract as the executor's
	// callback, so hook output keeps its shape on the fallback path.
	OnModuleDone func(module string, tier registry.Tier, failed bool, err error)
}

// NewLegacyEngine builds the fallback engine. A zero budget uses the
// default global deadline.
func NewLegacyEngine(reg *registry.Registry, budget time.Duration, logger *slog.Logger) *LegacyEngine {
	if budget <= 0 {
		budget = legacyBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyEngine{registry: reg, budget: budget, logger: logger}
}

// Run executes all fast and medium modules one after another.
func (e *LegacyEngine) Run(ctx context.Context, target *registry.Target) (*executor.SecurityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("legacy run aborted: %w", err)
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.budget)
	defer cancel()

	tiers := e.registry.ByTier()
	mods := make([]registry.Descriptor, 0, len(tiers[registry.TierFast])+len(tiers[registry.TierMedium]))
	mods = append(mods, tiers[registry.TierFast]...)
	mods = append(mods, tiers[registry.TierMedium]...)

	result := &executor.SecurityResult{
		Target:        target.URL,
		Findings:      []finding.Finding{},
		ModulesRun:    []string{},
		ModulesFailed: []string{},
	}
	for _, d := range mods {
		if err := ctx.Err(); err != nil {
			// Budget exhausted: everything not yet started is failed.
			result.ModulesFailed = append(result.ModulesFailed, d.Name)
			e.notify(d, true, err)
			continue
		}
		found, err := e.invoke(ctx, d, target)
		if err != nil {
			e.logger.Warn("legacy module failed", "module", d.Name, "error", err)
			result.ModulesFailed = append(result.ModulesFailed, d.Name)
			e.notify(d, true, err)
			continue
		}
		result.ModulesRun = append(result.ModulesRun, d.Name)
		result.Findings = append(result.Findings, found...)
		e.notify(d, false, nil)
	}
	sort.Strings(result.ModulesRun)
	sort.Strings(result.ModulesFailed)

	result.Score = legacyScore(result)
	result.AnalysisTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

func (e *LegacyEngine) notify(d registry.Descriptor, failed bool, err error) {
	if e.OnModuleDone != nil {
		e.OnModuleDone(d.Name, d.Tier, failed, err)
	}
}

func (e *LegacyEngine) invoke(ctx context.Context, d registry.Descriptor, target *registry.Target) (found []finding.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			found = nil
			err = fmt.Errorf("module panic: %v", rec)
		}
	}()
	found, err = d.Module.Analyze(ctx, target)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if found[i].Source == "" {
			found[i].Source = d.Name
		}
	}
	return found, nil
}

// legacyScore is the original additive score: start from 1.0 and
// subtract per failure and per critical finding. The new path's
// per-module mean replaced it, but fallback results keep the old
// arithmetic so historical baselines stay comparable.
func legacyScore(r *executor.SecurityResult) float64 {
	score := 1.0
	score -= defaults.FailurePenalty * float64(len(r.ModulesFailed))
	for _, f := range r.Findings {
		if f.Severity == finding.Critical {
			score -= defaults.CriticalPenalty
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
