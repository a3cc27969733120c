package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/pkg/finding"
)

func anchored(source, category string, sev finding.Severity, conf float64, x, y, w, h float64) finding.Finding {
	f := finding.New(source, category, sev, conf, category+" reported by "+source)
	f.Location = finding.Location{X: x, Y: y, Width: w, Height: h}
	return f
}

func TestTwoAgentConfirmation(t *testing.T) {
	v := New(nil)
	byAgent := map[string][]finding.Finding{
		"vision":   {anchored("vision", "countdown_timer", finding.Medium, 0.8, 10, 10, 100, 50)},
		"security": {anchored("security", "countdown_timer", finding.Medium, 0.7, 12, 12, 105, 55)},
	}

	out := v.Validate(byAgent)
	require.Len(t, out, 1, "coordinates within one grid cell form a single group")

	adj := out[0]
	assert.Equal(t, StatusConfirmed, adj.Status)
	assert.Equal(t, []string{"security", "vision"}, adj.AgentSources)
	assert.InDelta(t, 100.0, adj.FinalConfidence, 1e-9, "0.8*100+20 capped at 100")
	assert.Equal(t, "vision", adj.Source, "representative is the higher-confidence finding")
}

func TestConflictingSeveritiesForceNeutral(t *testing.T) {
	v := New(nil)
	byAgent := map[string][]finding.Finding{
		"vision":  {anchored("vision", "deceptive_overlay", finding.High, 0.9, 40, 40, 50, 50)},
		"network": {anchored("network", "deceptive_overlay", finding.Low, 0.3, 42, 41, 48, 52)},
	}

	out := v.Validate(byAgent)
	require.Len(t, out, 1)
	assert.Equal(t, StatusConflicting, out[0].Status)
	assert.InDelta(t, 50.0, out[0].FinalConfidence, 1e-9)
	assert.Contains(t, out[0].Notes, "severity disagreement")
	assert.Contains(t, out[0].Notes, "vision=high")
	assert.Contains(t, out[0].Notes, "network=low")
}

func TestStatusMonotonicity(t *testing.T) {
	v := New(nil)

	one := v.Validate(map[string][]finding.Finding{
		"security": {anchored("security", "insecure_cookie", finding.Medium, 0.6, 0, 0, 0, 0)},
	})
	require.Len(t, one, 1)
	assert.Equal(t, StatusUnconfirmed, one[0].Status)

	two := v.Validate(map[string][]finding.Finding{
		"security": {anchored("security", "insecure_cookie", finding.Medium, 0.6, 0, 0, 0, 0)},
		"network":  {anchored("network", "insecure_cookie", finding.Medium, 0.5, 0, 0, 0, 0)},
	})
	require.Len(t, two, 1)
	assert.Equal(t, StatusConfirmed, two[0].Status)

	three := v.Validate(map[string][]finding.Finding{
		"security":   {anchored("security", "insecure_cookie", finding.Medium, 0.6, 0, 0, 0, 0)},
		"network":    {anchored("network", "insecure_cookie", finding.Medium, 0.5, 0, 0, 0, 0)},
		"navigation": {anchored("navigation", "insecure_cookie", finding.Medium, 0.4, 0, 0, 0, 0)},
	})
	require.Len(t, three, 1)
	assert.Equal(t, StatusVerified, three[0].Status)
	assert.Equal(t, []string{"navigation", "network", "security"}, three[0].AgentSources)
}

func TestConfidenceBounds(t *testing.T) {
	v := New(nil)

	// Unconfirmed penalty on a zero-confidence finding cannot go negative.
	low := v.Validate(map[string][]finding.Finding{
		"vision": {anchored("vision", "countdown_timer", finding.Info, 0.0, 5, 5, 10, 10)},
	})
	require.Len(t, low, 1)
	assert.InDelta(t, 0.0, low[0].FinalConfidence, 1e-9)

	// Verified bonus on a max-confidence finding cannot exceed 100.
	high := v.Validate(map[string][]finding.Finding{
		"a": {anchored("a", "mixed_content", finding.High, 1.0, 0, 0, 10, 10)},
		"b": {anchored("b", "mixed_content", finding.High, 1.0, 1, 1, 10, 10)},
		"c": {anchored("c", "mixed_content", finding.High, 1.0, 2, 2, 10, 10)},
	})
	require.Len(t, high, 1)
	assert.Equal(t, StatusVerified, high[0].Status)
	assert.InDelta(t, 100.0, high[0].FinalConfidence, 1e-9)
}

func TestRepresentativeTieBreakIsFirstEncountered(t *testing.T) {
	v := New(nil)
	// Equal confidence: the agent iterated first (sorted name order)
	// supplies the representative, reproducibly.
	byAgent := map[string][]finding.Finding{
		"zeta":  {anchored("zeta", "pressure_tactic", finding.Low, 0.5, 20, 20, 30, 10)},
		"alpha": {anchored("alpha", "pressure_tactic", finding.Low, 0.5, 22, 21, 30, 10)},
	}
	for i := 0; i < 20; i++ {
		out := v.Validate(byAgent)
		require.Len(t, out, 1)
		assert.Equal(t, "alpha", out[0].Source)
	}
}

func TestDistantLocationsSplitGroups(t *testing.T) {
	v := New(nil)
	byAgent := map[string][]finding.Finding{
		"vision": {
			anchored("vision", "countdown_timer", finding.Medium, 0.8, 10, 10, 100, 50),
			anchored("vision", "countdown_timer", finding.Medium, 0.8, 80, 80, 100, 50),
		},
	}
	out := v.Validate(byAgent)
	assert.Len(t, out, 2, "findings in distant grid cells stay separate")
}

func TestUnanchoredFindingsGroupByCategoryAlone(t *testing.T) {
	v := New(nil)
	a := finding.New("security", "weak_tls", finding.High, 0.9, "TLS 1.0 accepted")
	b := finding.New("network", "weak_tls", finding.High, 0.7, "legacy protocol offered")

	out := v.Validate(map[string][]finding.Finding{
		"security": {a},
		"network":  {b},
	})
	require.Len(t, out, 1)
	assert.Equal(t, StatusConfirmed, out[0].Status)
}

func TestMalformedFindingSkippedNotFatal(t *testing.T) {
	v := New(nil)
	bad := finding.New("sloppy", "", finding.Medium, 0.5, "missing category")
	worse := finding.New("sloppy", "thing", "catastrophic", 0.5, "bogus severity")
	good := anchored("security", "open_redirect", finding.Medium, 0.7, 0, 0, 0, 0)

	out := v.Validate(map[string][]finding.Finding{
		"sloppy":   {bad, worse},
		"security": {good},
	})
	require.Len(t, out, 1, "malformed findings dropped, valid one survives")
	assert.Equal(t, "open_redirect", out[0].Category)
	assert.Equal(t, []string{"security"}, out[0].AgentSources)
}

func TestValidateEmptyInput(t *testing.T) {
	v := New(nil)
	assert.Empty(t, v.Validate(nil))
	assert.Empty(t, v.Validate(map[string][]finding.Finding{"vision": nil}))
}

func TestOutputSortedByGroupKey(t *testing.T) {
	v := New(nil)
	byAgent := map[string][]finding.Finding{
		"vision": {
			anchored("vision", "zebra_pattern", finding.Low, 0.5, 0, 0, 1, 1),
			anchored("vision", "apple_pattern", finding.Low, 0.5, 0, 0, 1, 1),
		},
	}
	out := v.Validate(byAgent)
	require.Len(t, out, 2)
	assert.Less(t, out[0].GroupKey, out[1].GroupKey)
}
