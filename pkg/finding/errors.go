package finding

import "errors"

// Sentinel errors for finding validation. Callers branch with
// errors.Is; the wrapped message carries the offending field.
var (
	// ErrMalformed indicates a finding that violates a shape invariant
	// (unknown severity, confidence out of range, inconsistent score).
	ErrMalformed = errors.New("malformed finding")
)
