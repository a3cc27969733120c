package tlsaudit

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/pkg/enrich"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func TestVersionName(t *testing.T) {
	assert.Equal(t, "TLS 1.0", versionName(utls.VersionTLS10))
	assert.Equal(t, "TLS 1.2", versionName(utls.VersionTLS12))
	assert.Equal(t, "TLS 1.3", versionName(utls.VersionTLS13))
	assert.Equal(t, "0x0000", versionName(0))
}

func certExpiring(notAfter time.Time) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "shop.example"},
		NotAfter:     notAfter,
	}
}

func TestExpiryFinding(t *testing.T) {
	m := New(Config{})

	_, hit := m.expiryFinding(certExpiring(time.Now().Add(90 * 24 * time.Hour)))
	assert.False(t, hit, "healthy cert not reported")

	f, hit := m.expiryFinding(certExpiring(time.Now().Add(5 * 24 * time.Hour)))
	require.True(t, hit)
	assert.Equal(t, "expiring_cert", f.SubType)
	assert.Equal(t, finding.Medium, f.Severity)
	assert.Contains(t, f.Description, "expires in")
	assertScoreInBand(t, f)

	f, hit = m.expiryFinding(certExpiring(time.Now().Add(-24 * time.Hour)))
	require.True(t, hit)
	assert.Equal(t, "expired_cert", f.SubType)
	assert.Equal(t, finding.High, f.Severity)
	assert.Contains(t, f.Description, "expired on")
	assert.Equal(t, "shop.example", f.Evidence["subject"])
	assertScoreInBand(t, f)
}

// assertScoreInBand enriches f and checks the weakness score lands in
// the band of the severity the check reported.
func assertScoreInBand(t *testing.T, f finding.Finding) {
	t.Helper()
	got := enrich.New(nil).Enrich(f)
	require.NotNil(t, got.SeverityScore, "%s/%s has no weakness row", got.Category, got.SubType)
	assert.True(t, got.Severity.ScoreInBand(*got.SeverityScore),
		"%s/%s: severity %s with score %.1f", got.Category, got.SubType, got.Severity, *got.SeverityScore)
}

func TestNonHTTPSTargetSkipped(t *testing.T) {
	out, err := New(Config{}).Analyze(context.Background(), &registry.Target{
		URL: "http://shop.example",
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}
