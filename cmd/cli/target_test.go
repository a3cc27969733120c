package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustlens/trustlens/pkg/config"
)

func TestFetchTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Add("Set-Cookie", "session=abc; Secure; HttpOnly")
		w.Header().Add("Set-Cookie", "theme=dark")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	target, err := fetchTarget(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, target.URL)
	assert.Contains(t, target.Content, "hello")
	assert.Equal(t, "default-src 'self'", target.Header("content-security-policy"))
	assert.Equal(t, []string{"session=abc; Secure; HttpOnly", "theme=dark"},
		target.MetaStrings("cookies"))
}

func TestFetchTargetConnectError(t *testing.T) {
	_, err := fetchTarget(context.Background(), "http://127.0.0.1:1/")
	assert.Error(t, err)
}

func TestBuildTargetFixtures(t *testing.T) {
	dir := t.TempDir()
	contentPath := filepath.Join(dir, "page.html")
	headersPath := filepath.Join(dir, "headers.yaml")
	require.NoError(t, os.WriteFile(contentPath, []byte("<html>fixture</html>"), 0o600))
	require.NoError(t, os.WriteFile(headersPath, []byte(
		"Strict-Transport-Security: max-age=63072000\nServer: nginx\n"), 0o600))

	cfg := config.Default()
	cfg.TargetURL = "https://fixture.example"
	cfg.ContentFile = contentPath
	cfg.HeadersFile = headersPath

	target, err := buildTarget(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://fixture.example", target.URL)
	assert.Equal(t, "<html>fixture</html>", target.Content)
	assert.Equal(t, "nginx", target.Header("server"))
}

func TestBuildTargetMissingFixture(t *testing.T) {
	cfg := config.Default()
	cfg.TargetURL = "https://fixture.example"
	cfg.ContentFile = "/nonexistent/page.html"

	_, err := buildTarget(context.Background(), cfg)
	assert.ErrorContains(t, err, "content fixture")
}
