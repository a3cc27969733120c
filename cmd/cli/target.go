package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trustlens/trustlens/pkg/config"
	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/httpclient"
	"github.com/trustlens/trustlens/pkg/iohelper"
	"github.com/trustlens/trustlens/pkg/registry"
)

// buildTarget assembles the audited page. Fixture files take priority;
// without them the page is fetched live.
func buildTarget(ctx context.Context, cfg *config.Config) (*registry.Target, error) {
	if cfg.ContentFile == "" && cfg.HeadersFile == "" {
		return fetchTarget(ctx, cfg.TargetURL)
	}

	target := &registry.Target{URL: cfg.TargetURL}
	if cfg.ContentFile != "" {
		content, err := os.ReadFile(cfg.ContentFile)
		if err != nil {
			return nil, fmt.Errorf("read content fixture: %w", err)
		}
		target.Content = string(content)
	}
	if cfg.HeadersFile != "" {
		data, err := os.ReadFile(cfg.HeadersFile)
		if err != nil {
			return nil, fmt.Errorf("read headers fixture: %w", err)
		}
		headers := make(map[string]string)
		if err := yaml.Unmarshal(data, &headers); err != nil {
			return nil, fmt.Errorf("parse headers fixture: %w", err)
		}
		target.Headers = headers
	}
	// Cookie metadata is left unset; the cookie check falls back to
	// parsing the raw set-cookie header.
	return target, nil
}

// fetchTarget does a single GET and captures body, headers and cookie
// metadata the way the crawler would hand them over.
func fetchTarget(ctx context.Context, url string) (*registry.Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch target: %w", err)
	}

	resp, err := httpclient.Default().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch target: %w", err)
	}
	defer resp.Body.Close()

	body, err := iohelper.ReadBody(resp.Body, defaults.MaxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch target: read body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = strings.Join(values, ", ")
	}

	target := &registry.Target{
		URL:     resp.Request.URL.String(), // post-redirect URL
		Content: string(body),
		Headers: headers,
		Metadata: map[string]any{
			"status_code": resp.StatusCode,
		},
	}
	if cookies := resp.Header.Values("Set-Cookie"); len(cookies) > 0 {
		target.Metadata["cookies"] = cookies
	}
	return target, nil
}
