// Package threatintel cross-references audit targets against external
// threat-reputation data and adjusts finding confidence accordingly.
package threatintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/duration"
	"github.com/trustlens/trustlens/pkg/httpclient"
	"github.com/trustlens/trustlens/pkg/iohelper"
)

// Signal is the reputation verdict for a single target host.
type Signal struct {
	Target      string    `json:"target"`
	Listed      bool      `json:"listed"`
	Score       float64   `json:"score"` // 0-100, higher is worse
	Categories  []string  `json:"categories,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Exposed reports whether the signal indicates known threat exposure.
func (s *Signal) Exposed() bool {
	if s == nil {
		return false
	}
	return s.Listed || s.Score >= 50
}

// Client looks up reputation signals for a target host. A nil signal
// with a nil error means the source has no data, which is a valid
// result and not a failure.
type Client interface {
	Name() string
	Lookup(ctx context.Context, host string) (*Signal, error)
}

// HTTPClient queries a JSON reputation endpoint of the form
// GET <base>/v1/reputation/<host>. A 404 is treated as no-data.
type HTTPClient struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient builds a rate-limited reputation client. apiKey may be
// empty for sources that allow anonymous queries.
func NewHTTPClient(name, baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: httpclient.New(httpclient.Config{
			Timeout: duration.HTTPIntel,
		}),
		limiter: rate.NewLimiter(rate.Limit(defaults.IntelRequestsPerSecond), 1),
	}
}

// Name returns the source identifier stamped into evidence annotations.
func (c *HTTPClient) Name() string { return c.name }

// Lookup fetches the reputation signal for host, honoring the client's
// rate limit and context deadline.
func (c *HTTPClient) Lookup(ctx context.Context, host string) (*Signal, error) {
	if host == "" {
		return nil, fmt.Errorf("empty host")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := c.baseURL + "/v1/reputation/" + url.PathEscape(host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil // unknown host, valid null result
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}

	body, err := iohelper.ReadBody(resp.Body, defaults.MaxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.name, err)
	}

	var sig Signal
	if err := json.Unmarshal(body, &sig); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", c.name, err)
	}
	sig.Target = host
	sig.RetrievedAt = time.Now()
	if len(sig.Sources) == 0 {
		sig.Sources = []string{c.name}
	}
	return &sig, nil
}

// HostOf extracts the hostname from a target URL. Bare hosts are
// accepted as-is.
func HostOf(target string) string {
	raw := target
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(target))
	}
	return strings.ToLower(u.Hostname())
}
