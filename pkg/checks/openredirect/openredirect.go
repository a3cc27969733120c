// Package openredirect tests redirect parameters for off-site targets.
package openredirect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/trustlens/trustlens/pkg/duration"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/httpclient"
	"github.com/trustlens/trustlens/pkg/iohelper"
	"github.com/trustlens/trustlens/pkg/registry"
)

func init() {
	registry.Register(New(Config{}))
}

// redirectParams are query parameters commonly wired to a redirect.
var redirectParams = []string{
	"url", "next", "redirect", "redirect_uri", "return", "returnto",
	"return_url", "goto", "dest", "destination", "continue", "target",
}

// canary is the off-site host injected into redirect parameters. A
// Location header pointing at it proves the redirect is unvalidated.
const canary = "redirect-canary.invalid"

// Config tunes the redirect probing.
type Config struct {
	Client *http.Client
}

// Module rewrites the page's redirect-looking parameters to an
// off-site host and checks whether the server follows along.
type Module struct {
	cfg Config
}

// New creates the open-redirect check.
func New(cfg Config) *Module {
	if cfg.Client == nil {
		// The default client never follows redirects, which is what
		// lets us read the Location header.
		cfg.Client = httpclient.New(httpclient.Config{Timeout: duration.HTTPProbing})
	}
	return &Module{cfg: cfg}
}

func (m *Module) Name() string        { return "openredirect" }
func (m *Module) Tier() registry.Tier { return registry.TierMedium }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	base, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}

	params := presentRedirectParams(base)
	if len(params) == 0 {
		return nil, nil
	}

	var out []finding.Finding
	for _, param := range params {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		probeURL := withParam(base, param, "https://"+canary+"/")
		loc, ok := m.probe(ctx, probeURL)
		if !ok {
			continue
		}
		if !pointsAtCanary(loc) {
			continue
		}
		f := finding.New(m.Name(), "open_redirect", finding.Medium, 0.9,
			fmt.Sprintf("parameter %q redirects to an arbitrary external host", param))
		f.AddEvidence("parameter", param)
		f.AddEvidence("location", loc)
		out = append(out, f)
	}
	return out, nil
}

// presentRedirectParams returns the redirect-style parameters the page
// URL actually carries; probing parameters the page never uses would
// be noise.
func presentRedirectParams(u *url.URL) []string {
	q := u.Query()
	var params []string
	for _, p := range redirectParams {
		if q.Has(p) {
			params = append(params, p)
		}
	}
	return params
}

func withParam(base *url.URL, param, value string) string {
	u := *base
	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *Module) probe(ctx context.Context, probeURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return "", false
	}
	resp, err := m.cfg.Client.Do(req)
	if err != nil {
		return "", false
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return "", false
	}
	return resp.Header.Get("Location"), true
}

func pointsAtCanary(location string) bool {
	loc, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return false
	}
	return strings.EqualFold(loc.Hostname(), canary)
}
