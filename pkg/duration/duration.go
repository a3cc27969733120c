// Package duration provides canonical time constants for the audit
// engine. Reference these instead of hardcoding time.Duration values so
// tier budgets and client timeouts stay consistent across packages.
package duration

import "time"

// Tier budgets. Fast and medium are tier-wide (shared by all modules in
// the tier); deep is per-module.
const (
	// TierFast is the total budget for the fast tier (5s).
	TierFast = 5 * time.Second

	// TierMedium is the total budget for the medium tier (15s).
	TierMedium = 15 * time.Second

	// TierDeep is the per-module budget for the deep tier (30s).
	TierDeep = 30 * time.Second
)

// HTTP client timeouts.
const (
	// HTTPProbing is for quick header checks and path probes (5s).
	HTTPProbing = 5 * time.Second

	// HTTPScanning is for medium-tier network checks (15s).
	HTTPScanning = 15 * time.Second

	// HTTPIntel is for external threat-intelligence API calls (10s).
	HTTPIntel = 10 * time.Second
)

// Browser and TLS handshake timeouts used by deep-tier modules.
const (
	// BrowserNavigate bounds a headless page navigation (20s).
	BrowserNavigate = 20 * time.Second

	// TLSHandshake bounds one TLS dial (10s).
	TLSHandshake = 10 * time.Second
)

// Cache horizons.
const (
	// IntelCacheTTL is how long a threat-intelligence report stays
	// fresh (15min). Stale entries are still served when the source is
	// unreachable.
	IntelCacheTTL = 15 * time.Minute
)

// Server timeouts for the optional metrics endpoint.
const (
	// MetricsRead bounds reading a metrics scrape request (5s).
	MetricsRead = 5 * time.Second

	// MetricsWrite bounds writing a metrics scrape response (10s).
	MetricsWrite = 10 * time.Second
)
