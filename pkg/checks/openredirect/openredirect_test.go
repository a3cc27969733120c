package openredirect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/pkg/registry"
)

func TestUnvalidatedRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Blindly reflects the next parameter, the classic bug.
		http.Redirect(w, r, r.URL.Query().Get("next"), http.StatusFound)
	}))
	defer srv.Close()

	m := New(Config{Client: noRedirectClient(srv)})
	out, err := m.Analyze(context.Background(), &registry.Target{
		URL: srv.URL + "/login?next=%2Fdashboard",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "open_redirect", out[0].Category)
	assert.Equal(t, "next", out[0].Evidence["parameter"])
	assert.Contains(t, out[0].Evidence["location"], canary)
}

func TestValidatedRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allows same-site paths.
		next := r.URL.Query().Get("next")
		if len(next) == 0 || next[0] != '/' {
			next = "/"
		}
		http.Redirect(w, r, next, http.StatusFound)
	}))
	defer srv.Close()

	m := New(Config{Client: noRedirectClient(srv)})
	out, err := m.Analyze(context.Background(), &registry.Target{
		URL: srv.URL + "/login?next=%2Fdashboard",
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNoRedirectParamsNoProbes(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	m := New(Config{Client: noRedirectClient(srv)})
	out, err := m.Analyze(context.Background(), &registry.Target{
		URL: srv.URL + "/products?page=2",
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, hits, "no redirect-style parameters, nothing to probe")
}

// noRedirectClient keeps the test server's client from following the
// Location header, mirroring the default probing client.
func noRedirectClient(srv *httptest.Server) *http.Client {
	c := srv.Client()
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}
