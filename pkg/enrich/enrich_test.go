package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/pkg/finding"
)

func TestEnrichExactMatch(t *testing.T) {
	e := New(nil)
	f := finding.New("security.headers", "missing_security_header", finding.Medium, 0.9, "no CSP")
	f.SubType = "content-security-policy"

	out := e.Enrich(f)
	assert.Equal(t, "CWE-1021", out.WeaknessID)
	require.NotNil(t, out.SeverityScore)
	assert.InDelta(t, 5.4, *out.SeverityScore, 1e-9)
	// Original untouched.
	assert.Empty(t, f.WeaknessID)
}

func TestEnrichCategoryFallback(t *testing.T) {
	e := New(nil)
	f := finding.New("security.headers", "missing_security_header", finding.Medium, 0.9, "no permissions-policy")
	f.SubType = "permissions-policy"

	out := e.Enrich(f)
	assert.Equal(t, "CWE-693", out.WeaknessID)
	require.NotNil(t, out.SeverityScore)
	assert.InDelta(t, 4.3, *out.SeverityScore, 1e-9)
}

func TestEnrichUnmappedLeavesFindingUntouched(t *testing.T) {
	e := New(nil)
	f := finding.New("vision", "weird_animation", finding.Low, 0.4, "spinning banner")

	out := e.Enrich(f)
	assert.Empty(t, out.WeaknessID)
	assert.Nil(t, out.SeverityScore)
	assert.Equal(t, f.ID, out.ID, "finding is never discarded")
}

func TestEnrichAllPreservesOrderAndCount(t *testing.T) {
	e := New(nil)
	in := []finding.Finding{
		finding.New("a", "open_redirect", finding.Medium, 0.7, "x"),
		finding.New("b", "unmapped_thing", finding.Info, 0.2, "y"),
		finding.New("c", "weak_tls", finding.High, 0.9, "z"),
	}
	out := e.EnrichAll(in)
	require.Len(t, out, 3)
	assert.Equal(t, "CWE-601", out[0].WeaknessID)
	assert.Empty(t, out[1].WeaknessID)
	assert.Equal(t, "CWE-326", out[2].WeaknessID)
}

// TestTableBandConsistency iterates the full mapping table and asserts
// every score is consistent with its declared severity band. In
// particular a critical row may never carry a score below 9.0.
func TestTableBandConsistency(t *testing.T) {
	table := Table()
	require.NotEmpty(t, table)
	for k, entry := range table {
		assert.True(t, entry.Severity.IsValid(), "row %+v has invalid severity", k)
		assert.True(t, entry.Severity.ScoreInBand(entry.Score),
			"row %+v: score %.1f outside %s band", k, entry.Score, entry.Severity)
		if entry.Severity == finding.Critical {
			assert.GreaterOrEqual(t, entry.Score, 9.0, "row %+v", k)
		}
		assert.NotEmpty(t, entry.WeaknessID, "row %+v missing CWE", k)
	}
}

func TestEnrichedFindingValidates(t *testing.T) {
	e := New(nil)
	f := finding.New("security.leakypaths", "sensitive_path_exposure", finding.Critical, 1.0, ".env readable")
	f.SubType = "env_file"
	out := e.Enrich(f)
	require.NoError(t, out.Validate())
}
