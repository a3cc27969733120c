package threatintel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/finding"
)

// eligibleCategories lists the high-impact finding categories whose
// confidence and severity may be raised when the target carries known
// threat exposure. Low-stakes dark-pattern categories are deliberately
// excluded so a listed host does not inflate cosmetic findings.
var eligibleCategories = map[string]bool{
	"credential_harvesting":   true,
	"insecure_form":           true,
	"suspicious_url":          true,
	"open_redirect":           true,
	"sensitive_path_exposure": true,
	"mixed_content":           true,
}

// CorrelationEligible reports whether findings of the given category
// participate in threat correlation.
func CorrelationEligible(category string) bool {
	return eligibleCategories[category]
}

// Correlator cross-references findings against a reputation source and
// elevates confidence/severity for eligible categories.
type Correlator struct {
	source Client
	logger *slog.Logger
}

// NewCorrelator builds a correlator backed by source, which is usually
// a *Cache.
func NewCorrelator(source Client, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{source: source, logger: logger}
}

// Correlate looks up the target's reputation and returns an adjusted
// copy of findings. Absence of threat data leaves every finding
// untouched and is not an error; only a hard lookup failure with no
// cached fallback surfaces as an error, and even then the input
// findings are returned unchanged so the caller can proceed.
func (c *Correlator) Correlate(ctx context.Context, target string, findings []finding.Finding) ([]finding.Finding, error) {
	if len(findings) == 0 {
		return findings, nil
	}

	host := HostOf(target)
	sig, err := c.source.Lookup(ctx, host)
	if err != nil {
		c.logger.Warn("threat intel lookup failed", "host", host, "error", err)
		return findings, fmt.Errorf("lookup %s: %w", host, err)
	}
	if !sig.Exposed() {
		return findings, nil
	}

	annotation := c.annotation(sig)
	out := make([]finding.Finding, len(findings))
	boosted := 0
	for i, f := range findings {
		out[i] = f
		if !eligibleCategories[f.Category] {
			continue
		}
		out[i].Confidence = boostConfidence(f.Confidence)
		out[i].Severity = f.Severity.Escalate()
		// Clone the evidence map so the caller's finding is not mutated.
		out[i].Evidence = make(map[string]string, len(f.Evidence)+1)
		for k, v := range f.Evidence {
			out[i].Evidence[k] = v
		}
		out[i].AddEvidence("threat_correlation", annotation)
		boosted++
	}
	if boosted > 0 {
		c.logger.Info("threat correlation applied",
			"host", host,
			"score", sig.Score,
			"findings_boosted", boosted)
	}
	return out, nil
}

func (c *Correlator) annotation(sig *Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "target listed by %s (score %.0f)", strings.Join(sig.Sources, ", "), sig.Score)
	if len(sig.Categories) > 0 {
		fmt.Fprintf(&b, " under %s", strings.Join(sig.Categories, ", "))
	}
	return b.String()
}

func boostConfidence(v float64) float64 {
	v *= defaults.IntelConfidenceBoost
	if v > 1.0 {
		return 1.0
	}
	return v
}
