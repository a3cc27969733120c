// Package router decides per audit whether the new execution pipeline
// or the legacy path handles a target, using deterministic hash-based
// routing with automatic fallback on failure.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spaolacci/murmur3"

	"github.com/trustlens/trustlens/pkg/executor"
	"github.com/trustlens/trustlens/pkg/registry"
)

// Mode identifies which path produced a result.
type Mode string

const (
	ModeAgent          Mode = "agent"
	ModeLegacy         Mode = "legacy"
	ModeLegacyFallback Mode = "legacy_fallback"
)

// Path runs a full audit over a target. Both the new pipeline and the
// legacy engine satisfy this signature.
type Path func(ctx context.Context, target *registry.Target) (*executor.SecurityResult, error)

// Config controls routing.
type Config struct {
	// UseNewPath is the master switch. When false every audit goes
	// straight to the legacy path regardless of rollout percentage.
	UseNewPath bool

	// RolloutPercentage is the fraction of targets, 0-100, routed to
	// the new path. Values outside the range are clamped.
	RolloutPercentage int
}

// Decision is the routing outcome for a target, exposed for logging.
type Decision struct {
	Target  string `json:"target"`
	Bucket  int    `json:"bucket"` // hash mapped to [0,100)
	NewPath bool   `json:"new_path"`
}

// Router wraps the two execution paths behind a single Run call.
type Router struct {
	cfg     Config
	newPath Path
	legacy  Path
	logger  *slog.Logger
}

// New builds a router over the two paths.
func New(cfg Config, newPath, legacy Path, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RolloutPercentage < 0 {
		cfg.RolloutPercentage = 0
	}
	if cfg.RolloutPercentage > 100 {
		cfg.RolloutPercentage = 100
	}
	return &Router{cfg: cfg, newPath: newPath, legacy: legacy, logger: logger}
}

// Route computes the deterministic routing decision for a target. The
// same target always lands in the same bucket, across calls and across
// process restarts, so routing-dependent bugs are reproducible.
func (r *Router) Route(target string) Decision {
	bucket := int(murmur3.Sum64([]byte(target)) % 100)
	return Decision{
		Target:  target,
		Bucket:  bucket,
		NewPath: r.cfg.UseNewPath && bucket < r.cfg.RolloutPercentage,
	}
}

// Run executes the audit via the routed path. A failure anywhere in
// the new path, including a panic, is caught, logged with the routing
// decision, and retried once on the legacy path; the caller sees only
// the mode marker. A legacy failure after fallback propagates as a
// hard error.
func (r *Router) Run(ctx context.Context, target *registry.Target) (*executor.SecurityResult, error) {
	decision := r.Route(target.URL)
	if !decision.NewPath {
		return r.runLegacy(ctx, target, ModeLegacy)
	}

	result, err := r.runNew(ctx, target)
	if err == nil {
		result.Mode = string(ModeAgent)
		return result, nil
	}

	r.logger.Error("new execution path failed, falling back to legacy",
		"target", decision.Target,
		"bucket", decision.Bucket,
		"rollout_percentage", r.cfg.RolloutPercentage,
		"error", err)
	return r.runLegacy(ctx, target, ModeLegacyFallback)
}

// runNew invokes the new path with panic containment so a crashing
// pipeline degrades into a fallback instead of taking the process down.
func (r *Router) runNew(ctx context.Context, target *registry.Target) (result *executor.SecurityResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("new path panic: %v", rec)
		}
	}()
	result, err = r.newPath(ctx, target)
	if err == nil && result == nil {
		err = fmt.Errorf("new path returned nil result")
	}
	return result, err
}

func (r *Router) runLegacy(ctx context.Context, target *registry.Target, mode Mode) (*executor.SecurityResult, error) {
	result, err := r.legacy(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("legacy path: %w", err)
	}
	result.Mode = string(mode)
	return result, nil
}
