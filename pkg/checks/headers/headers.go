// Package headers audits security response headers of the fetched page.
package headers

import (
	"context"
	"fmt"
	"strings"

	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func init() {
	registry.Register(New())
}

// required lists the headers whose absence produces a finding, with
// the sub_type and severity to report.
var required = []struct {
	header   string
	subType  string
	severity finding.Severity
	detail   string
}{
	{"content-security-policy", "content-security-policy", finding.Medium,
		"page can be framed or injected with third-party script"},
	{"strict-transport-security", "strict-transport-security", finding.Medium,
		"browsers may downgrade follow-up requests to plain HTTP"},
	{"x-frame-options", "x-frame-options", finding.Medium,
		"page can be embedded in a hostile iframe"},
	{"x-content-type-options", "x-content-type-options", finding.Low,
		"responses can be MIME-sniffed into executable types"},
	{"referrer-policy", "referrer-policy", finding.Low,
		"full URLs leak to third-party origins via the Referer header"},
}

// disclosure lists headers that leak implementation detail.
var disclosure = []string{"server", "x-powered-by", "x-aspnet-version", "x-generator"}

// Module checks the crawler-provided response headers. It performs no
// network I/O of its own.
type Module struct{}

// New creates the header check.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return "headers" }
func (m *Module) Tier() registry.Tier { return registry.TierFast }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	if len(target.Headers) == 0 {
		// Crawler did not capture headers; nothing to say.
		return nil, nil
	}

	var out []finding.Finding
	for _, req := range required {
		if target.Header(req.header) != "" {
			continue
		}
		f := finding.New(m.Name(), "missing_security_header", req.severity, 0.9,
			fmt.Sprintf("missing %s header: %s", req.header, req.detail))
		f.SubType = req.subType
		f.AddEvidence("header", req.header)
		out = append(out, f)
	}

	// CSP present but trivially bypassable.
	if csp := target.Header("content-security-policy"); csp != "" {
		if lax := laxDirectives(csp); len(lax) > 0 {
			f := finding.New(m.Name(), "missing_security_header", finding.Low, 0.7,
				"content-security-policy present but permissive: "+strings.Join(lax, ", "))
			f.SubType = "permissive_csp"
			f.AddEvidence("directives", strings.Join(lax, ", "))
			out = append(out, f)
		}
	}

	for _, h := range disclosure {
		v := target.Header(h)
		if v == "" {
			continue
		}
		f := finding.New(m.Name(), "information_disclosure", finding.Info, 0.8,
			fmt.Sprintf("%s header reveals %q", h, v))
		f.SubType = "server_banner"
		f.AddEvidence("header", h)
		f.AddEvidence("value", v)
		out = append(out, f)
	}
	return out, nil
}

// Score weighs the page by how many of the required headers are absent.
func (m *Module) Score(findings []finding.Finding) float64 {
	missing := 0
	for _, f := range findings {
		if f.Category == "missing_security_header" {
			missing++
		}
	}
	score := 1.0 - 0.15*float64(missing)
	if score < 0 {
		return 0
	}
	return score
}

// laxDirectives reports CSP directives that neuter the policy.
func laxDirectives(csp string) []string {
	var lax []string
	lower := strings.ToLower(csp)
	for _, bad := range []string{"unsafe-inline", "unsafe-eval"} {
		if strings.Contains(lower, bad) {
			lax = append(lax, bad)
		}
	}
	for _, part := range strings.Split(lower, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "default-src") && strings.Contains(part, "*") {
			lax = append(lax, "default-src *")
		}
	}
	return lax
}
