// Package enrich maps raw findings to standardized weakness
// classifications (CWE) and 0-10 severity scores via a lookup table
// keyed by (category, sub_type). Enrichment is additive: unmapped
// combinations leave both fields empty and never discard a finding.
package enrich

import (
	"log/slog"

	"github.com/trustlens/trustlens/pkg/finding"
)

// Entry is one row of the weakness mapping table.
type Entry struct {
	// WeaknessID is the CWE identifier, e.g. "CWE-1021".
	WeaknessID string

	// Score is the 0-10 severity score.
	Score float64

	// Severity is the severity band the score belongs to; a consistency
	// test iterates the table asserting Score falls in this band.
	Severity finding.Severity
}

// key addresses the table. An empty SubType row is the category-level
// fallback used when no exact (category, sub_type) row exists.
type key struct {
	Category string
	SubType  string
}

// Enricher performs table lookups over an immutable mapping.
type Enricher struct {
	table  map[key]Entry
	logger *slog.Logger
}

// New creates an enricher with the built-in weakness table.
func New(logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{table: weaknessTable, logger: logger}
}

// Enrich returns a copy of f with WeaknessID and SeverityScore
// populated when the table has a matching row. The exact
// (category, sub_type) row wins over the category fallback.
func (e *Enricher) Enrich(f finding.Finding) finding.Finding {
	entry, ok := e.table[key{f.Category, f.SubType}]
	if !ok {
		entry, ok = e.table[key{f.Category, ""}]
	}
	if !ok {
		return f
	}
	score := entry.Score
	f.WeaknessID = entry.WeaknessID
	f.SeverityScore = &score
	return f
}

// EnrichAll enriches a slice in place-order, returning a new slice.
func (e *Enricher) EnrichAll(findings []finding.Finding) []finding.Finding {
	out := make([]finding.Finding, len(findings))
	for i, f := range findings {
		out[i] = e.Enrich(f)
	}
	return out
}

// Table exposes the mapping for consistency tests.
func Table() map[struct{ Category, SubType string }]Entry {
	out := make(map[struct{ Category, SubType string }]Entry, len(weaknessTable))
	for k, v := range weaknessTable {
		out[struct{ Category, SubType string }{k.Category, k.SubType}] = v
	}
	return out
}
