package leakypaths

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func TestExposedPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.git/HEAD":
			fmt.Fprint(w, "ref: refs/heads/main\n")
		case "/.env":
			fmt.Fprint(w, "DB_PASSWORD=hunter2\n")
		case "/.DS_Store":
			fmt.Fprint(w, "Bud1")
		case "/phpinfo.php":
			fmt.Fprint(w, "<html><h1>phpinfo()</h1></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m := New(Config{Client: srv.Client()})
	out, err := m.Analyze(context.Background(), &registry.Target{URL: srv.URL + "/some/page"})
	require.NoError(t, err)
	require.Len(t, out, 4)

	bySub := map[string]finding.Finding{}
	for _, f := range out {
		assert.Equal(t, "sensitive_path_exposure", f.Category)
		bySub[f.SubType] = f
	}
	assert.Equal(t, finding.High, bySub["vcs_dir"].Severity)
	assert.Equal(t, finding.Critical, bySub["env_file"].Severity)
	assert.Equal(t, finding.Low, bySub["metadata_file"].Severity)
	assert.Equal(t, finding.High, bySub["debug_page"].Severity)
}

func TestMarkerRejectsSoft404(t *testing.T) {
	// A site that answers 200 with an HTML error page for everything.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>Page not found</body></html>")
	}))
	defer srv.Close()

	m := New(Config{Client: srv.Client()})
	out, err := m.Analyze(context.Background(), &registry.Target{URL: srv.URL})
	require.NoError(t, err)
	for _, f := range out {
		// Marker-protected probes must not fire on soft 404s.
		assert.NotEqual(t, "vcs_dir", f.SubType)
		assert.NotEqual(t, "env_file", f.SubType)
		assert.NotEqual(t, "debug_page", f.SubType)
	}
}

func TestCleanSite(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m := New(Config{Client: srv.Client()})
	out, err := m.Analyze(context.Background(), &registry.Target{URL: srv.URL})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(Config{Client: srv.Client()})
	out, err := m.Analyze(ctx, &registry.Target{URL: srv.URL})
	require.Error(t, err)
	assert.Empty(t, out)
}
