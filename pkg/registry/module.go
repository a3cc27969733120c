package registry

import (
	"context"
	"strings"
	"time"

	"github.com/trustlens/trustlens/pkg/duration"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/httpclient"
)

// Tier is the latency/cost class of an analysis module. It governs
// scheduling: fast and medium tiers run concurrently under a shared
// budget, deep runs sequentially with a per-module budget.
type Tier string

const (
	TierFast   Tier = "fast"
	TierMedium Tier = "medium"
	TierDeep   Tier = "deep"
)

// IsValid reports whether t is a recognized tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierFast, TierMedium, TierDeep:
		return true
	}
	return false
}

// Normalize maps unknown or misclassified tiers to medium.
func (t Tier) Normalize() Tier {
	if !t.IsValid() {
		return TierMedium
	}
	return t
}

// DefaultTimeout returns the tier's default budget. For fast and
// medium this is the tier-wide budget; for deep it is per-module.
func (t Tier) DefaultTimeout() time.Duration {
	switch t.Normalize() {
	case TierFast:
		return duration.TierFast
	case TierDeep:
		return duration.TierDeep
	default:
		return duration.TierMedium
	}
}

// Target is the audited page as handed over by the crawler. Content,
// headers and metadata are all optional; modules skip gracefully when
// the data they need is absent.
type Target struct {
	// URL is the audited page URL.
	URL string `json:"url"`

	// Content is the fetched page HTML, empty if the crawler did not
	// supply it.
	Content string `json:"content,omitempty"`

	// Headers are the raw response headers as supplied by the crawler,
	// with arbitrary casing. Use Header for lookups.
	Headers map[string]string `json:"headers,omitempty"`

	// Metadata is structural page metadata from the crawler (detected
	// forms, scripts, cookie list, admin-panel indicators). Opaque
	// key/value here; individual modules know their expected keys.
	Metadata map[string]any `json:"metadata,omitempty"`

	normalized map[string]string
}

// Header returns the named response header, case-insensitively.
// Repeated headers are joined with ", ".
func (t *Target) Header(name string) string {
	if t.normalized == nil {
		t.normalized = httpclient.NormalizeHeaders(t.Headers)
	}
	return t.normalized[strings.ToLower(name)]
}

// HasContent reports whether the crawler supplied page content.
func (t *Target) HasContent() bool {
	return t.Content != ""
}

// MetaStrings returns a metadata entry as a string slice, tolerating
// the []any shape JSON decoding produces.
func (t *Target) MetaStrings(key string) []string {
	v, ok := t.Metadata[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Module is the capability interface every analysis check implements.
// Analyze inspects the target and returns findings; it must honor
// context cancellation promptly and must not retain references to the
// target after returning.
type Module interface {
	// Name returns the unique module identifier, conventionally
	// "security.<check>".
	Name() string

	// Tier returns the module's latency/cost class.
	Tier() Tier

	// Analyze runs the check against the target.
	Analyze(ctx context.Context, target *Target) ([]finding.Finding, error)
}

// Scorer is an optional interface for modules that contribute a page
// trust score derived from their own findings, in [0, 1] where 1 is
// fully trustworthy. Modules that do not implement it are scored
// neutrally by the executor.
type Scorer interface {
	Score(findings []finding.Finding) float64
}

// Descriptor is one registry entry: a module plus its resolved tier
// and timeout.
type Descriptor struct {
	Name    string
	Tier    Tier
	Timeout time.Duration
	Module  Module
}
