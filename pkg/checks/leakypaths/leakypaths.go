// Package leakypaths probes well-known sensitive paths on the target
// origin.
package leakypaths

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/trustlens/trustlens/pkg/duration"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/httpclient"
	"github.com/trustlens/trustlens/pkg/iohelper"
	"github.com/trustlens/trustlens/pkg/registry"
)

func init() {
	registry.Register(New(Config{}))
}

// probe describes one sensitive path and what finding a hit produces.
type probe struct {
	path     string
	subType  string
	severity finding.Severity
	marker   string // response must contain this to count as a hit
	detail   string
}

var probes = []probe{
	{"/.git/HEAD", "vcs_dir", finding.High, "ref:",
		"git repository is downloadable, source and secrets exposed"},
	{"/.env", "env_file", finding.Critical, "=",
		"environment file with credentials is world-readable"},
	{"/backup.zip", "backup_file", finding.High, "",
		"site backup archive is publicly reachable"},
	{"/.DS_Store", "metadata_file", finding.Low, "",
		"directory metadata leaks file listings"},
	{"/admin/", "admin_panel", finding.Medium, "",
		"admin panel is reachable without network restrictions"},
	{"/phpinfo.php", "debug_page", finding.High, "phpinfo()",
		"phpinfo dump reveals configuration and paths"},
}

// Config tunes the probing behavior.
type Config struct {
	Concurrency int
	Client      *http.Client
}

// Module issues lightweight GETs against a fixed list of paths that
// should never be public.
type Module struct {
	cfg Config
}

// New creates the sensitive-path check.
func New(cfg Config) *Module {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.Client == nil {
		cfg.Client = httpclient.New(httpclient.Config{Timeout: duration.HTTPProbing})
	}
	return &Module{cfg: cfg}
}

func (m *Module) Name() string        { return "leakypaths" }
func (m *Module) Tier() registry.Tier { return registry.TierMedium }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	base, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	base.Path, base.RawQuery, base.Fragment = "", "", ""

	sem := make(chan struct{}, m.cfg.Concurrency)
	results := make(chan finding.Finding, len(probes))
	var wg sync.WaitGroup

	for _, p := range probes {
		wg.Add(1)
		go func(p probe) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			if f, hit := m.check(ctx, base.String()+p.path, p); hit {
				results <- f
			}
		}(p)
	}
	wg.Wait()
	close(results)

	var out []finding.Finding
	for f := range results {
		out = append(out, f)
	}
	if err := ctx.Err(); err != nil && len(out) == 0 {
		return nil, err
	}
	return out, nil
}

func (m *Module) check(ctx context.Context, probeURL string, p probe) (finding.Finding, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return finding.Finding{}, false
	}
	resp, err := m.cfg.Client.Do(req)
	if err != nil {
		return finding.Finding{}, false
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return finding.Finding{}, false
	}
	body, err := iohelper.ReadBodySmall(resp.Body)
	if err != nil {
		return finding.Finding{}, false
	}
	if p.marker != "" && !strings.Contains(string(body), p.marker) {
		return finding.Finding{}, false
	}

	f := finding.New(m.Name(), "sensitive_path_exposure", p.severity, 0.9, p.detail)
	f.SubType = p.subType
	f.AddEvidence("url", probeURL)
	f.AddEvidence("status", fmt.Sprintf("%d", resp.StatusCode))
	return f, true
}
