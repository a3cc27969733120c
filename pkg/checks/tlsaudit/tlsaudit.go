// Package tlsaudit inspects the target's TLS deployment: legacy
// protocol versions, expiring certificates, untrusted chains.
package tlsaudit

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/trustlens/trustlens/pkg/duration"
	"github.com/trustlens/trustlens/pkg/finding"
	"github.com/trustlens/trustlens/pkg/registry"
)

func init() {
	registry.Register(New(Config{}))
}

// expiryWarning is how close to expiry a certificate must be before it
// is reported.
const expiryWarning = 14 * 24 * time.Hour

// Config tunes the handshake probing.
type Config struct {
	DialTimeout time.Duration
}

// Module performs real handshakes against the target host. It runs in
// the deep tier: two TCP connections per audit, sequential with the
// other deep modules.
type Module struct {
	cfg Config
}

// New creates the TLS check.
func New(cfg Config) *Module {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = duration.TLSHandshake
	}
	return &Module{cfg: cfg}
}

func (m *Module) Name() string        { return "tlsaudit" }
func (m *Module) Tier() registry.Tier { return registry.TierDeep }

func (m *Module) Analyze(ctx context.Context, target *registry.Target) ([]finding.Finding, error) {
	u, err := url.Parse(target.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	if u.Scheme != "https" {
		return nil, nil
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "443"
	}
	addr := net.JoinHostPort(host, port)

	var out []finding.Finding

	state, verifyErr, err := m.handshake(ctx, addr, host)
	if err != nil {
		return nil, fmt.Errorf("handshake %s: %w", addr, err)
	}

	if verifyErr != nil {
		f := finding.New(m.Name(), "weak_tls", finding.High, 0.95,
			fmt.Sprintf("certificate chain not trusted: %v", verifyErr))
		f.SubType = "untrusted_chain"
		f.AddEvidence("host", host)
		out = append(out, f)
	}

	if state.Version < utls.VersionTLS12 {
		f := finding.New(m.Name(), "weak_tls", finding.High, 0.95,
			fmt.Sprintf("server negotiated %s for a modern client", versionName(state.Version)))
		f.SubType = "legacy_version"
		f.AddEvidence("version", versionName(state.Version))
		out = append(out, f)
	} else if m.acceptsLegacy(ctx, addr, host) {
		f := finding.New(m.Name(), "weak_tls", finding.High, 0.85,
			"server still accepts TLS 1.0 handshakes")
		f.SubType = "legacy_version"
		f.AddEvidence("version", "TLS 1.0")
		out = append(out, f)
	}

	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		if f, expiring := m.expiryFinding(leaf); expiring {
			out = append(out, f)
		}
	}
	return out, nil
}

// handshake connects with a modern browser fingerprint. Verification
// failures are reported separately from transport failures: an
// untrusted chain is itself a finding, so the handshake is retried
// without verification to still read the certificate.
func (m *Module) handshake(ctx context.Context, addr, host string) (utls.ConnectionState, error, error) {
	state, err := m.connect(ctx, addr, host, false)
	if err == nil {
		return state, nil, nil
	}
	var certErr x509.UnknownAuthorityError
	var invalidErr x509.CertificateInvalidError
	var hostErr x509.HostnameError
	if asAny(err, &certErr, &invalidErr, &hostErr) {
		verifyErr := err
		state, err = m.connect(ctx, addr, host, true)
		if err != nil {
			return utls.ConnectionState{}, nil, err
		}
		return state, verifyErr, nil
	}
	return utls.ConnectionState{}, nil, err
}

func (m *Module) connect(ctx context.Context, addr, host string, skipVerify bool) (utls.ConnectionState, error) {
	dialer := &net.Dialer{Timeout: m.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return utls.ConnectionState{}, err
	}
	defer conn.Close()

	uConn := utls.UClient(conn, &utls.Config{
		ServerName:         host,
		InsecureSkipVerify: skipVerify,
	}, utls.HelloChrome_Auto)
	if err := uConn.HandshakeContext(ctx); err != nil {
		return utls.ConnectionState{}, err
	}
	return uConn.ConnectionState(), nil
}

// acceptsLegacy offers a TLS 1.0-only handshake and reports whether
// the server takes it.
func (m *Module) acceptsLegacy(ctx context.Context, addr, host string) bool {
	dialer := &net.Dialer{Timeout: m.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	defer conn.Close()

	uConn := utls.UClient(conn, &utls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
		MinVersion:         utls.VersionTLS10,
		MaxVersion:         utls.VersionTLS10,
	}, utls.HelloGolang)
	return uConn.HandshakeContext(ctx) == nil
}

func (m *Module) expiryFinding(leaf *x509.Certificate) (finding.Finding, bool) {
	left := time.Until(leaf.NotAfter)
	if left > expiryWarning {
		return finding.Finding{}, false
	}
	desc := fmt.Sprintf("certificate expires in %d days", int(left.Hours()/24))
	sev, subType := finding.Medium, "expiring_cert"
	if left <= 0 {
		desc = fmt.Sprintf("certificate expired on %s", leaf.NotAfter.Format("2006-01-02"))
		sev, subType = finding.High, "expired_cert"
	}
	f := finding.New(m.Name(), "weak_tls", sev, 0.95, desc)
	f.SubType = subType
	f.AddEvidence("not_after", leaf.NotAfter.Format(time.RFC3339))
	f.AddEvidence("subject", leaf.Subject.CommonName)
	return f, true
}

func versionName(v uint16) string {
	switch v {
	case utls.VersionTLS10:
		return "TLS 1.0"
	case utls.VersionTLS11:
		return "TLS 1.1"
	case utls.VersionTLS12:
		return "TLS 1.2"
	case utls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("0x%04x", v)
	}
}

// asAny reports whether err matches any of the given error targets.
func asAny(err error, targets ...any) bool {
	for _, t := range targets {
		if errors.As(err, t) {
			return true
		}
	}
	return false
}
