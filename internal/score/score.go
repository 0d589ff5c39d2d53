// Package score turns the five probe outcomes into a composite health
// score and a ranked list of fix suggestions. Everything here is pure:
// same outcomes in, same score out.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// Policy enumerates every scoring tunable. DefaultPolicy is used unless a
// caller passes its own at construction time.
type Policy struct {
	// Weights assigns each probe its maximum contribution. The values
	// must sum to 100. Connectivity probes (DNS, HTTP, ping) outweigh
	// TLS and GeoIP: a broken certificate matters less than a site that
	// cannot be reached at all, and a location lookup hiccup barely
	// matters.
	Weights map[domain.ProbeKind]int

	// DegradedFraction is the share of a probe's weight credited when it
	// is degraded rather than ok.
	DegradedFraction float64

	// Severity band cutoffs: healthy >= HealthyMin,
	// warning >= WarningMin, critical below.
	HealthyMin int
	WarningMin int
}

func DefaultPolicy() Policy {
	return Policy{
		Weights: map[domain.ProbeKind]int{
			domain.ProbeDNS:   25,
			domain.ProbeHTTP:  25,
			domain.ProbePing:  20,
			domain.ProbeTLS:   20,
			domain.ProbeGeoIP: 10,
		},
		DegradedFraction: 0.5,
		HealthyMin:       80,
		WarningMin:       40,
	}
}

// Compute produces the health score and fix suggestions for a full set of
// probe outcomes.
func Compute(outcomes map[domain.ProbeKind]domain.ProbeOutcome, p Policy) (domain.HealthScore, []domain.FixSuggestion) {
	total := 0.0
	var fixes []domain.FixSuggestion

	for _, kind := range domain.ProbeKinds() {
		out := outcomes[kind]
		weight := p.Weights[kind]
		switch out.Status {
		case domain.StatusOK:
			total += float64(weight)
		case domain.StatusDegraded:
			total += float64(weight) * p.DegradedFraction
			fixes = append(fixes, domain.FixSuggestion{
				Kind:       kind,
				Suggestion: suggestionFor(out),
				Priority:   weight,
			})
		default:
			fixes = append(fixes, domain.FixSuggestion{
				Kind:       kind,
				Suggestion: suggestionFor(out),
				Priority:   weight * 2,
			})
		}
	}

	score := int(total + 0.5)
	if score > 100 {
		score = 100
	}
	hs := domain.HealthScore{Score: score, Severity: severityFor(score, p)}

	precedence := make(map[domain.ProbeKind]int, 5)
	for i, kind := range domain.ProbeKinds() {
		precedence[kind] = i
	}
	sort.SliceStable(fixes, func(i, j int) bool {
		if fixes[i].Priority != fixes[j].Priority {
			return fixes[i].Priority > fixes[j].Priority
		}
		return precedence[fixes[i].Kind] < precedence[fixes[j].Kind]
	})
	return hs, fixes
}

func severityFor(score int, p Policy) domain.Severity {
	switch {
	case score >= p.HealthyMin:
		return domain.SeverityHealthy
	case score >= p.WarningMin:
		return domain.SeverityWarning
	default:
		return domain.SeverityCritical
	}
}

// suggestionFor keys the remediation hint to the probe's specific failure
// signal where one is available, falling back to per-kind generic advice.
func suggestionFor(out domain.ProbeOutcome) string {
	switch out.Kind {
	case domain.ProbeDNS:
		if out.ErrorKind == domain.ErrProtocol && strings.Contains(out.Error, "no such host") {
			return "The domain does not resolve (NXDOMAIN); check the name is spelled correctly and registered"
		}
		if out.ErrorKind == domain.ErrTimeout {
			return "DNS lookups are timing out; try a different resolver such as 8.8.8.8 or 1.1.1.1"
		}
		if out.Status == domain.StatusDegraded {
			return "Add IPv4 (A) records so clients without IPv6 can reach the host"
		}
		return "Verify the domain's DNS records and nameserver configuration"

	case domain.ProbeTLS:
		if days, ok := out.Fields["days_left"].(int); ok && out.Status == domain.StatusDegraded {
			return fmt.Sprintf("Renew the TLS certificate; it expires in %d days", days)
		}
		if strings.Contains(out.Error, "expired") {
			return "The TLS certificate has expired and must be renewed"
		}
		return "Check the TLS certificate chain and server configuration on port 443"

	case domain.ProbeHTTP:
		if code, ok := out.Fields["status_code"].(int); ok {
			switch {
			case code >= 500:
				return fmt.Sprintf("The web server is returning %d errors; check application and server logs", code)
			case code >= 400:
				return fmt.Sprintf("Requests are rejected with HTTP %d; confirm the path and any access rules", code)
			case code >= 300:
				return "Redirects never settle on a final page; check for a redirect loop"
			}
		}
		if out.ErrorKind == domain.ErrTimeout {
			return "HTTP requests time out; check server load and any firewall in the path"
		}
		if out.Status == domain.StatusDegraded {
			return "The site responds slowly; investigate server response times"
		}
		return "Verify the web server is running and reachable on the standard ports"

	case domain.ProbePing:
		if out.ErrorKind == domain.ErrUnsupported {
			return "ICMP is blocked in this environment; reachability was judged from the other probes"
		}
		if out.Status == domain.StatusDegraded {
			return "Echo replies show packet loss or high latency; check the network path to the host"
		}
		return "The host does not answer ping; confirm it is online and that ICMP is allowed"

	case domain.ProbeGeoIP:
		return "Location lookup failed; this usually points at the lookup service, not your target"
	}
	return "Investigate the failing check"
}
