package finding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityIsValid(t *testing.T) {
	for _, s := range []Severity{Critical, High, Medium, Low, Info} {
		assert.True(t, s.IsValid(), "severity %s", s)
	}
	assert.False(t, Severity("URGENT").IsValid())
	assert.False(t, Severity("").IsValid())
}

func TestSeverityRankOrdering(t *testing.T) {
	order := []Severity{Info, Low, Medium, High, Critical}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Rank(), order[i-1].Rank())
	}
	assert.Equal(t, 0, Severity("bogus").Rank())
}

func TestSeverityEscalate(t *testing.T) {
	tests := []struct {
		in, want Severity
	}{
		{Info, Low},
		{Low, Medium},
		{Medium, High},
		{High, Critical},
		{Critical, Critical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Escalate(), "escalate %s", tt.in)
	}
}

func TestSeverityScoreBands(t *testing.T) {
	assert.True(t, Critical.ScoreInBand(9.0))
	assert.True(t, Critical.ScoreInBand(10.0))
	assert.False(t, Critical.ScoreInBand(8.9))
	assert.True(t, High.ScoreInBand(7.0))
	assert.False(t, High.ScoreInBand(9.0))
	assert.True(t, Medium.ScoreInBand(5.5))
	assert.True(t, Low.ScoreInBand(2.0))
	assert.True(t, Info.ScoreInBand(0.0))
	assert.False(t, Info.ScoreInBand(2.0))
}

func TestLocationGridKey(t *testing.T) {
	a := Location{X: 10, Y: 10, Width: 100, Height: 50}
	b := Location{X: 12, Y: 12, Width: 105, Height: 55}
	assert.Equal(t, a.GridKey(10), b.GridKey(10), "nearby rectangles share a cell")

	c := Location{X: 25, Y: 10, Width: 10, Height: 10}
	assert.NotEqual(t, a.GridKey(10), c.GridKey(10))

	assert.Empty(t, Location{}.GridKey(10), "zero location has no grid key")
}

func TestNormalize(t *testing.T) {
	loc := Normalize(640, 360, 128, 72, 1280, 720)
	assert.InDelta(t, 50, loc.X, 0.001)
	assert.InDelta(t, 50, loc.Y, 0.001)
	assert.InDelta(t, 10, loc.Width, 0.001)
	assert.InDelta(t, 10, loc.Height, 0.001)

	assert.True(t, Normalize(10, 10, 10, 10, 0, 720).IsZero())

	clamped := Normalize(2000, -50, 100, 100, 1280, 720)
	assert.Equal(t, 100.0, clamped.X)
	assert.Equal(t, 0.0, clamped.Y)
}

func TestFindingValidate(t *testing.T) {
	f := New("security.headers", "missing_security_header", Medium, 0.9, "no CSP header")
	require.NoError(t, f.Validate())
	assert.NotEmpty(t, f.ID)
	assert.False(t, f.DetectedAt.IsZero())

	bad := f
	bad.Confidence = 1.2
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	bad = f
	bad.Severity = "severe"
	assert.ErrorIs(t, bad.Validate(), ErrMalformed)

	bad = f
	bad.Category = ""
	assert.ErrorIs(t, bad.Validate(), ErrMalformed)
}

func TestFindingValidateScore(t *testing.T) {
	f := New("security.forms", "insecure_form", Critical, 1.0, "password posts over http")
	score := 9.3
	f.SeverityScore = &score
	require.NoError(t, f.Validate())

	// score and severity are separate scales; disagreement is fine
	low := 5.0
	f.SeverityScore = &low
	require.NoError(t, f.Validate())

	out := 10.5
	f.SeverityScore = &out
	assert.ErrorIs(t, f.Validate(), ErrMalformed)
}

func TestGroupKey(t *testing.T) {
	f := New("vision", "countdown_timer", Medium, 0.8, "timer near header")
	f.Location = Location{X: 10, Y: 10, Width: 100, Height: 50}
	g := New("security", "countdown_timer", Medium, 0.7, "timer markup")
	g.Location = Location{X: 12, Y: 12, Width: 105, Height: 55}
	assert.Equal(t, f.GroupKey(), g.GroupKey())

	h := New("osint", "countdown_timer", Medium, 0.5, "no anchor")
	assert.Equal(t, "countdown_timer", h.GroupKey())
}

func TestAddEvidence(t *testing.T) {
	f := New("security.headers", "missing_security_header", Low, 0.5, "x")
	f.AddEvidence("header", "Content-Security-Policy")
	f.AddEvidence("observed", "absent")
	assert.Len(t, f.Evidence, 2)
	assert.Equal(t, "absent", f.Evidence["observed"])
}
