package probe

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"net"
	"time"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// TLSProbe performs a handshake on the conventional secure port and
// inspects the leaf certificate.
type TLSProbe struct {
	Port     string
	WarnDays int // remaining validity below this is degraded

	// now is injectable so expiry-window tests control the clock.
	now func() time.Time
}

func NewTLSProbe(warnDays int) *TLSProbe {
	return &TLSProbe{Port: "443", WarnDays: warnDays, now: time.Now}
}

func (p *TLSProbe) Kind() domain.ProbeKind { return domain.ProbeTLS }

func (p *TLSProbe) Run(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	start := time.Now()

	cfg := &tls.Config{}
	if target.Kind == domain.KindHostname {
		cfg.ServerName = target.Host
	}
	dialer := &tls.Dialer{NetDialer: &net.Dialer{}, Config: cfg}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(target.Host, p.Port))
	elapsed := time.Since(start)
	if err != nil {
		return Failure(domain.ProbeTLS, classifyTLSErr(err), err.Error(), elapsed)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return Failure(domain.ProbeTLS, domain.ErrProtocol, "no peer certificate presented", elapsed)
	}
	return certOutcome(state.PeerCertificates[0], state.Version, p.now(), p.WarnDays, time.Since(start))
}

// certOutcome classifies the leaf certificate's validity window.
func certOutcome(leaf *x509.Certificate, version uint16, now time.Time, warnDays int, elapsed time.Duration) domain.ProbeOutcome {
	daysLeft := int(leaf.NotAfter.Sub(now).Hours() / 24)
	sum := sha256.Sum256(leaf.Raw)

	out := domain.ProbeOutcome{
		Kind:   domain.ProbeTLS,
		Status: domain.StatusOK,
		Fields: map[string]any{
			"issuer":      leaf.Issuer.String(),
			"subject":     leaf.Subject.String(),
			"not_before":  leaf.NotBefore.UTC().Format(time.RFC3339),
			"not_after":   leaf.NotAfter.UTC().Format(time.RFC3339),
			"days_left":   daysLeft,
			"version":     tls.VersionName(version),
			"fingerprint": hex.EncodeToString(sum[:]),
		},
		ElapsedMS: ms(elapsed),
	}

	switch {
	case now.Before(leaf.NotBefore):
		return Failure(domain.ProbeTLS, domain.ErrProtocol, "certificate not yet valid", elapsed)
	case now.After(leaf.NotAfter):
		return Failure(domain.ProbeTLS, domain.ErrProtocol, "certificate expired", elapsed)
	case daysLeft <= warnDays:
		out.Status = domain.StatusDegraded
		out.Error = "certificate expires soon"
	}
	return out
}

func classifyTLSErr(err error) domain.ErrorKind {
	var (
		certInvalid x509.CertificateInvalidError
		unknownAuth x509.UnknownAuthorityError
		hostname    x509.HostnameError
		verify      *tls.CertificateVerificationError
		record      tls.RecordHeaderError
	)
	if errors.As(err, &certInvalid) || errors.As(err, &unknownAuth) ||
		errors.As(err, &hostname) || errors.As(err, &verify) || errors.As(err, &record) {
		return domain.ErrProtocol
	}
	return classifyNetErr(err)
}
