package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// DNSProbe resolves the target to address records via the OS resolver.
// Literal IP targets short-circuit to ok without a network call.
type DNSProbe struct {
	Resolver *net.Resolver
}

func NewDNSProbe() *DNSProbe {
	return &DNSProbe{Resolver: &net.Resolver{}}
}

func (p *DNSProbe) Kind() domain.ProbeKind { return domain.ProbeDNS }

func (p *DNSProbe) Run(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	start := time.Now()

	if target.IsIP() {
		return domain.ProbeOutcome{
			Kind:   domain.ProbeDNS,
			Status: domain.StatusOK,
			Fields: map[string]any{
				"addresses": []string{target.Host},
				"literal":   true,
			},
			ElapsedMS: ms(time.Since(start)),
		}
	}

	ips, err := p.Resolver.LookupIP(ctx, "ip", target.Host)
	elapsed := time.Since(start)
	if err != nil {
		return Failure(domain.ProbeDNS, classifyDNSErr(err), err.Error(), elapsed)
	}
	if len(ips) == 0 {
		return Failure(domain.ProbeDNS, domain.ErrProtocol, "resolver returned no address records", elapsed)
	}

	var v4, v6 []string
	for _, ip := range ips {
		if ip.To4() != nil {
			v4 = append(v4, ip.String())
		} else {
			v6 = append(v6, ip.String())
		}
	}

	fields := map[string]any{
		"addresses":  append(append([]string{}, v4...), v6...),
		"ipv4_count": len(v4),
		"ipv6_count": len(v6),
	}
	if cname, err := p.Resolver.LookupCNAME(ctx, target.Host); err == nil &&
		!strings.EqualFold(cname, target.Host+".") {
		fields["cname"] = strings.TrimSuffix(cname, ".")
	}

	out := domain.ProbeOutcome{
		Kind:      domain.ProbeDNS,
		Status:    domain.StatusOK,
		Fields:    fields,
		ElapsedMS: ms(time.Since(start)),
	}
	if len(v4) == 0 {
		// Resolves, but only over IPv6; many client networks cannot reach it.
		out.Status = domain.StatusDegraded
		out.Error = "only IPv6 address records returned"
	}
	return out
}

func classifyDNSErr(err error) domain.ErrorKind {
	var de *net.DNSError
	if errors.As(err, &de) {
		switch {
		case de.IsNotFound:
			return domain.ErrProtocol // NXDOMAIN
		case de.IsTimeout:
			return domain.ErrTimeout
		}
	}
	return classifyNetErr(err)
}
