// Package httpclient provides the shared HTTP client used by network
// analysis checks. It enables connection pooling across checks probing
// the same host and never follows redirects, since several checks
// inspect redirect behavior directly.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/trustlens/trustlens/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total request timeout (default: probing, 5s).
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification. Audits
	// still want content from badly-configured hosts; certificate
	// problems are reported by the TLS check, not by failing probes.
	InsecureSkipVerify bool

	// MaxIdleConns is the idle connection pool size (default 50).
	MaxIdleConns int

	// MaxConnsPerHost bounds connections per host (default 10). Audits
	// hit one host with many probes, so this is deliberately modest.
	MaxConnsPerHost int

	// DialTimeout bounds connection establishment (default 5s).
	DialTimeout time.Duration
}

// DefaultConfig returns defaults tuned for single-target page audits.
func DefaultConfig() Config {
	return Config{
		Timeout:            duration.HTTPProbing,
		InsecureSkipVerify: true,
		MaxIdleConns:       50,
		MaxConnsPerHost:    10,
		DialTimeout:        5 * time.Second,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns a shared, pre-configured HTTP client. Safe for
// concurrent use; does not follow redirects.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// New creates an HTTP client with the given configuration.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = duration.HTTPProbing
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 50
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 10
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: duration.TLSHandshake,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// NormalizeHeaders lowercases header names into a flat map, joining
// repeated headers with ", ". Crawler-supplied header maps arrive with
// arbitrary casing; consumers look up by canonical lowercase name.
func NormalizeHeaders(raw map[string]string) map[string]string {
	if raw == nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if prev, ok := out[key]; ok {
			out[key] = prev + ", " + v
			continue
		}
		out[key] = v
	}
	return out
}
