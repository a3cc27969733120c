// Package defaults provides canonical default values for the audit
// engine. Reference these instead of hardcoding numbers so score
// weights and limits stay consistent across packages.
package defaults

// Version is the current trustlens version.
const Version = "0.9.2"

// Composite score weights (executor).
const (
	// ModuleScoreNeutral is the per-module score assumed when a module
	// supplies none (0.5).
	ModuleScoreNeutral = 0.5

	// FailurePenalty is subtracted from the composite score per failed
	// module (0.1).
	FailurePenalty = 0.1

	// CriticalPenalty is subtracted from the composite score per
	// critical-severity finding (0.2).
	CriticalPenalty = 0.2
)

// Adjudication confidence adjustments (validator), on the 0-100 scale.
const (
	// VerifiedBonus is added when three or more agents agree (+30).
	VerifiedBonus = 30.0

	// ConfirmedBonus is added when exactly two agents agree (+20).
	ConfirmedBonus = 20.0

	// UnconfirmedPenalty is subtracted for single-source findings (-10).
	UnconfirmedPenalty = 10.0

	// ConflictNeutral is the forced confidence when agents disagree on
	// severity (50).
	ConflictNeutral = 50.0
)

// Threat correlation adjustments.
const (
	// IntelConfidenceBoost multiplies confidence for findings whose
	// category matches a listed target (1.5, capped at 1.0).
	IntelConfidenceBoost = 1.5
)

// Rollout.
const (
	// RolloutFull routes every target to the new execution path (100).
	RolloutFull = 100
)

// Grouping.
const (
	// LocationGridCell is the spatial bin size on the 0-100 location
	// scale used when grouping findings across agents (10).
	LocationGridCell = 10.0
)

// Limits.
const (
	// MaxBodyBytes caps page content read by network checks (1MB).
	MaxBodyBytes = 1024 * 1024

	// MaxScriptAllocs caps tengo VM allocations for scripted checks.
	MaxScriptAllocs = 10_000_000

	// IntelRequestsPerSecond rate-limits the threat-intelligence client.
	IntelRequestsPerSecond = 4
)
