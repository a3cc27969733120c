// Package cookies audits Set-Cookie attributes on the fetched page.
package cookies

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

// Module inspects cookies set by the audited page for missing Secure,
// HttpOnly and SameSite attributes. Cookies are taken from the crawler
// metadata when present, falling back to the raw Set-Cookie header.
type Module struct{}

// New creates the cookie check.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return "cookies" }
func (m *Module) Tier() registry.Tier { return registry.TierFast }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	raw := target.MetaStrings("cookies")
	if len(raw) == 0 {
		raw = splitSetCookie(target.Header("set-cookie"))
	}

	var out []finding.Finding
	for _, c := range raw {
		name := cookieName(c)
		if name == "" {
			continue
		}
		lower := strings.ToLower(c)
		// Session and auth cookies raise the stakes; the severity of the
		// missing attribute is the same, confidence in impact is not.
		conf := 0.6
		if isSessionCookie(name) {
			conf = 0.9
		}

		if !strings.Contains(lower, "secure") {
			out = append(out, m.cookieFinding(name, "missing_secure", finding.Medium, conf,
				fmt.Sprintf("cookie %q is sent over plain HTTP connections", name)))
		}
		if !strings.Contains(lower, "httponly") {
			out = append(out, m.cookieFinding(name, "missing_httponly", finding.Medium, conf,
				fmt.Sprintf("cookie %q is readable by page script", name)))
		}
		if !strings.Contains(lower, "samesite") {
			out = append(out, m.cookieFinding(name, "missing_samesite", finding.Low, conf,
				fmt.Sprintf("cookie %q is attached to cross-site requests", name)))
		}
	}
	return out, nil
}

func (m *Module) cookieFinding(name, subType string, sev finding.Severity, conf float64, desc string) finding.Finding {
	f := finding.New(m.Name(), "insecure_cookie", sev, conf, desc)
	f.SubType = subType
	f.AddEvidence("cookie", name)
	return f
}

func cookieName(setCookie string) string {
	eq := strings.IndexByte(setCookie, '=')
	if eq <= 0 {
		return ""
	}
	return strings.TrimSpace(setCookie[:eq])
}

// isSessionCookie guesses whether a cookie carries a session or auth
// token, which raises the stakes of missing attributes.
func isSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"sess", "auth", "token", "sid", "login", "jwt"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// splitSetCookie splits a combined Set-Cookie header on cookie
// boundaries. Naive comma splitting breaks on Expires dates, so a
// comma only starts a new cookie when followed by a token and '='
// before any ';'.
func splitSetCookie(combined string) []string {
	if combined == "" {
		return nil
	}
	var cookies []string
	start := 0
	for i := 0; i < len(combined); i++ {
		if combined[i] != ',' {
			continue
		}
		rest := combined[i+1:]
		if !startsNewCookie(rest) {
			continue
		}
		cookies = append(cookies, strings.TrimSpace(combined[start:i]))
		start = i + 1
	}
	if tail := strings.TrimSpace(combined[start:]); tail != "" {
		cookies = append(cookies, tail)
	}
	return cookies
}

func startsNewCookie(rest string) bool {
	rest = strings.TrimLeft(rest, " ")
	eq := strings.IndexByte(rest, '=')
	if eq <= 0 {
		return false
	}
	semi := strings.IndexByte(rest, ';')
	if semi != -1 && semi < eq {
		return false
	}
	// An Expires date fragment like "02 Jan 2006 15:04:05 GMT" never
	// has '=' before a space-delimited word boundary.
	return !strings.ContainsAny(rest[:eq], " \t")
}
