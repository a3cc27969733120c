package finding

// Severity represents the severity level of an audit finding.
// All values are lowercase strings matching the convention used
// across the analysis check packages.
type Severity string

const (
	// Critical represents findings that indicate active harm to visitors
	// (credential harvesting, exposed secrets).
	Critical Severity = "critical"

	// High represents significant deception or exposure requiring prompt
	// attention (password forms over HTTP, weak TLS).
	High Severity = "high"

	// Medium represents moderate issues (missing security headers,
	// pressure-tactic UI patterns).
	Medium Severity = "medium"

	// Low represents limited-impact issues (verbose banners, minor
	// cookie hygiene).
	Low Severity = "low"

	// Info represents informational findings with no direct trust impact.
	Info Severity = "info"
)

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low, Info:
		return true
	}
	return false
}

// Rank returns a numeric rank for sorting and comparison.
// Critical=5, High=4, Medium=3, Low=2, Info=1, Unknown=0.
func (s Severity) Rank() int {
	switch s {
	case Critical:
		return 5
	case High:
		return 4
	case Medium:
		return 3
	case Low:
		return 2
	case Info:
		return 1
	default:
		return 0
	}
}

// Escalate returns the severity one step up.
// Critical stays critical; unknown severities are returned unchanged.
func (s Severity) Escalate() Severity {
	switch s {
	case Info:
		return Low
	case Low:
		return Medium
	case Medium:
		return High
	case High, Critical:
		return Critical
	}
	return s
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// ScoreBand returns the inclusive numeric range [min, max] a severity
// score must fall in to be consistent with s.
// Critical ≥9.0, High 7.0–8.9, Medium 4.0–6.9, Low 2.0–3.9, Info <2.0.
func (s Severity) ScoreBand() (min, max float64) {
	switch s {
	case Critical:
		return 9.0, 10.0
	case High:
		return 7.0, 8.9
	case Medium:
		return 4.0, 6.9
	case Low:
		return 2.0, 3.9
	default:
		return 0.0, 1.9
	}
}

// ScoreInBand reports whether score is consistent with s.
func (s Severity) ScoreInBand(score float64) bool {
	min, max := s.ScoreBand()
	return score >= min && score <= max
}
