// Package urlintel analyzes the target URL itself for deception
// techniques: punycode lookalikes, IP literals, userinfo tricks.
package urlintel

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func init() {
	registry.Register(New())
}

// impersonationTargets are brands commonly faked in hostnames. A brand
// name appearing in a subdomain of an unrelated registrable domain is
// a strong phishing signal.
var impersonationTargets = []string{
	"paypal", "apple", "amazon", "google", "microsoft", "netflix",
	"facebook", "instagram", "whatsapp", "bank",
}

// Module inspects the URL without touching the network; it sits in the
// medium tier because hostname analysis may grow DNS lookups later.
type Module struct{}

// New creates the URL analysis check.
func New() *Module { return &Module{} }

func (m *Module) Name() string        { return "urlintel" }
func (m *Module) Tier() registry.Tier { return registry.TierMedium }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	u, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, nil
	}

	var out []finding.Finding

	if strings.Contains(host, "xn--") {
		f := finding.New(m.Name(), "suspicious_url", finding.High, 0.85,
			"hostname uses punycode, possible homograph of a known brand")
		f.SubType = "punycode_host"
		f.AddEvidence("host", host)
		out = append(out, f)
	}

	if net.ParseIP(host) != nil {
		f := finding.New(m.Name(), "suspicious_url", finding.Medium, 0.8,
			"page is served from a raw IP address instead of a domain")
		f.SubType = "ip_literal"
		f.AddEvidence("host", host)
		out = append(out, f)
	}

	if u.User != nil {
		f := finding.New(m.Name(), "suspicious_url", finding.High, 0.9,
			fmt.Sprintf("URL carries userinfo %q, browser address bar shows the wrong site", u.User.Username()))
		f.SubType = "userinfo_trick"
		f.AddEvidence("userinfo", u.User.Username())
		out = append(out, f)
	}

	if brand := impersonatedBrand(host); brand != "" {
		f := finding.New(m.Name(), "suspicious_url", finding.High, 0.75,
			fmt.Sprintf("subdomain impersonates %q on an unrelated domain", brand))
		f.SubType = "brand_in_subdomain"
		f.AddEvidence("host", host)
		f.AddEvidence("brand", brand)
		out = append(out, f)
	}

	if depth := subdomainDepth(host); depth >= 4 {
		f := finding.New(m.Name(), "suspicious_url", finding.Low, 0.6,
			fmt.Sprintf("hostname nests %d subdomain levels, common in throwaway phishing hosts", depth))
		f.SubType = "deep_subdomains"
		f.AddEvidence("host", host)
		out = append(out, f)
	}

	return out, nil
}

// impersonatedBrand reports a brand that appears in the subdomain part
// of the host while the registrable domain is unrelated to it.
func impersonatedBrand(host string) string {
	labels := strings.Split(strings.ToLower(host), ".")
	if len(labels) < 3 {
		return ""
	}
	// Registrable part approximated as the last two labels.
	registrable := strings.Join(labels[len(labels)-2:], ".")
	sub := strings.Join(labels[:len(labels)-2], ".")
	for _, brand := range impersonationTargets {
		if strings.Contains(sub, brand) && !strings.Contains(registrable, brand) {
			return brand
		}
	}
	return ""
}

func subdomainDepth(host string) int {
	if net.ParseIP(host) != nil {
		return 0
	}
	labels := strings.Count(host, ".") + 1
	return labels - 2
}
