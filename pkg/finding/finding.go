// Package finding defines the atomic claim type produced by every
// analysis unit in the audit pipeline, together with its severity scale
// and spatial anchoring. All agents — security checks, the visual
// analyzer, OSINT and navigation agents — emit this same shape so their
// output can be cross-validated downstream.
package finding

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trustlens/trustlens/pkg/defaults"
)

// Finding is one atomic claim of a problem on the audited page,
// produced by one analysis unit.
type Finding struct {
	// ID is a unique identifier for the finding.
	ID string `json:"id"`

	// Category classifies the problem (e.g. "insecure_cookie",
	// "countdown_timer", "open_redirect").
	Category string `json:"category"`

	// SubType is a free-form refinement of the category.
	SubType string `json:"sub_type,omitempty"`

	// Severity is the source-local severity level.
	Severity Severity `json:"severity"`

	// Confidence is the source-local confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Location anchors the finding on the rendered page, 0-100 scale.
	// Zero value when the finding is not visually anchored.
	Location Location `json:"location,omitzero"`

	// Description is a human-readable explanation.
	Description string `json:"description"`

	// Evidence holds structured supporting data (headers seen, pattern
	// matched, probe URL, etc.).
	Evidence map[string]string `json:"evidence,omitempty"`

	// Source identifies the analysis unit or agent that produced the
	// finding.
	Source string `json:"source"`

	// WeaknessID is the standardized weakness classification (CWE)
	// assigned by enrichment. Empty until enriched; stays empty for
	// unmapped category/sub-type combinations.
	WeaknessID string `json:"weakness_id,omitempty"`

	// SeverityScore is the 0-10 numeric score assigned by enrichment.
	// Nil until enriched.
	SeverityScore *float64 `json:"severity_score,omitempty"`

	// DetectedAt is when the finding was produced.
	DetectedAt time.Time `json:"detected_at"`
}

// New creates a finding with a generated ID and timestamp.
func New(source, category string, severity Severity, confidence float64, description string) Finding {
	return Finding{
		ID:          uuid.New().String(),
		Category:    category,
		Severity:    severity,
		Confidence:  confidence,
		Description: description,
		Source:      source,
		DetectedAt:  time.Now(),
	}
}

// Validate checks the finding's invariants: recognized severity,
// confidence in [0, 1], and a severity score in [0, 10] when present.
// Severity and SeverityScore are separate scales (source-local level
// vs. standardized weakness score) and may legitimately disagree,
// e.g. after correlation escalates the severity.
func (f *Finding) Validate() error {
	if f.Category == "" {
		return fmt.Errorf("%w: empty category", ErrMalformed)
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("%w: severity %q", ErrMalformed, f.Severity)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformed, f.Confidence)
	}
	if f.SeverityScore != nil && (*f.SeverityScore < 0 || *f.SeverityScore > 10) {
		return fmt.Errorf("%w: score %.1f outside [0,10]", ErrMalformed, *f.SeverityScore)
	}
	return nil
}

// AddEvidence records one structured evidence entry, allocating the map
// on first use.
func (f *Finding) AddEvidence(key, value string) {
	if f.Evidence == nil {
		f.Evidence = make(map[string]string, 4)
	}
	f.Evidence[key] = value
}

// GroupKey computes the validator grouping key: category plus the
// location snapped to a 10-unit grid. Findings without a location group
// by category alone so non-visual agents can still corroborate visual
// ones.
func (f *Finding) GroupKey() string {
	grid := f.Location.GridKey(defaults.LocationGridCell)
	if grid == "" {
		return f.Category
	}
	return f.Category + "@" + grid
}
