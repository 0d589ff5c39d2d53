package score

import (
	"testing"

	"github.com/netdoctor/netdoctor/internal/domain"
)

func allOK() map[domain.ProbeKind]domain.ProbeOutcome {
	m := make(map[domain.ProbeKind]domain.ProbeOutcome, 5)
	for _, k := range domain.ProbeKinds() {
		m[k] = domain.ProbeOutcome{Kind: k, Status: domain.StatusOK}
	}
	return m
}

func TestCompute_AllOKIsPerfect(t *testing.T) {
	hs, fixes := Compute(allOK(), DefaultPolicy())
	if hs.Score != 100 {
		t.Fatalf("score = %d, want 100", hs.Score)
	}
	if hs.Severity != domain.SeverityHealthy {
		t.Fatalf("severity = %s, want healthy", hs.Severity)
	}
	if len(fixes) != 0 {
		t.Fatalf("want no fixes, got %+v", fixes)
	}
}

func TestCompute_DegradedTLSHalfWeight(t *testing.T) {
	outcomes := allOK()
	outcomes[domain.ProbeTLS] = domain.ProbeOutcome{
		Kind:   domain.ProbeTLS,
		Status: domain.StatusDegraded,
		Error:  "certificate expires soon",
		Fields: map[string]any{"days_left": 5},
	}

	hs, fixes := Compute(outcomes, DefaultPolicy())
	if hs.Score != 90 { // 100 - 20 + 20*0.5
		t.Fatalf("score = %d, want 90", hs.Score)
	}
	if len(fixes) != 1 {
		t.Fatalf("want one fix, got %+v", fixes)
	}
	if fixes[0].Kind != domain.ProbeTLS {
		t.Fatalf("fix kind = %s", fixes[0].Kind)
	}
	if fixes[0].Suggestion != "Renew the TLS certificate; it expires in 5 days" {
		t.Fatalf("suggestion = %q", fixes[0].Suggestion)
	}
}

func TestCompute_FailedPingZeroContribution(t *testing.T) {
	outcomes := allOK()
	outcomes[domain.ProbePing] = domain.ProbeOutcome{
		Kind:      domain.ProbePing,
		Status:    domain.StatusFailed,
		ErrorKind: domain.ErrUnsupported,
		Error:     "ICMP not permitted in this environment",
	}

	hs, fixes := Compute(outcomes, DefaultPolicy())
	if hs.Score != 80 {
		t.Fatalf("score = %d, want 80", hs.Score)
	}
	if hs.Severity != domain.SeverityHealthy {
		t.Fatalf("severity = %s, want healthy at the 80 boundary", hs.Severity)
	}
	if len(fixes) != 1 || fixes[0].Kind != domain.ProbePing {
		t.Fatalf("fixes = %+v", fixes)
	}
}

func TestCompute_SeverityBands(t *testing.T) {
	p := DefaultPolicy()

	outcomes := allOK()
	outcomes[domain.ProbeDNS] = domain.ProbeOutcome{Kind: domain.ProbeDNS, Status: domain.StatusFailed}
	hs, _ := Compute(outcomes, p) // 75
	if hs.Score != 75 || hs.Severity != domain.SeverityWarning {
		t.Fatalf("got %+v, want 75/warning", hs)
	}

	outcomes[domain.ProbeHTTP] = domain.ProbeOutcome{Kind: domain.ProbeHTTP, Status: domain.StatusFailed}
	outcomes[domain.ProbePing] = domain.ProbeOutcome{Kind: domain.ProbePing, Status: domain.StatusFailed}
	hs, _ = Compute(outcomes, p) // 30
	if hs.Score != 30 || hs.Severity != domain.SeverityCritical {
		t.Fatalf("got %+v, want 30/critical", hs)
	}
}

func TestCompute_MonotonicAsStatusWorsens(t *testing.T) {
	p := DefaultPolicy()
	for _, kind := range domain.ProbeKinds() {
		prev := -1
		for _, status := range []domain.Status{domain.StatusFailed, domain.StatusDegraded, domain.StatusOK} {
			outcomes := allOK()
			outcomes[kind] = domain.ProbeOutcome{Kind: kind, Status: status}
			hs, _ := Compute(outcomes, p)
			if hs.Score < prev {
				t.Fatalf("%s: score decreased as status improved (%d -> %d)", kind, prev, hs.Score)
			}
			prev = hs.Score
		}
	}
}

func TestCompute_FixOrderingDeterministic(t *testing.T) {
	outcomes := allOK()
	// DNS and HTTP share weight 25; failed both -> tie broken by
	// precedence (DNS before HTTP). TLS degraded ranks below both.
	outcomes[domain.ProbeHTTP] = domain.ProbeOutcome{Kind: domain.ProbeHTTP, Status: domain.StatusFailed}
	outcomes[domain.ProbeDNS] = domain.ProbeOutcome{Kind: domain.ProbeDNS, Status: domain.StatusFailed}
	outcomes[domain.ProbeTLS] = domain.ProbeOutcome{Kind: domain.ProbeTLS, Status: domain.StatusDegraded}

	_, fixes := Compute(outcomes, DefaultPolicy())
	if len(fixes) != 3 {
		t.Fatalf("want 3 fixes, got %d", len(fixes))
	}
	wantOrder := []domain.ProbeKind{domain.ProbeDNS, domain.ProbeHTTP, domain.ProbeTLS}
	for i, want := range wantOrder {
		if fixes[i].Kind != want {
			t.Fatalf("fix[%d] = %s, want %s (full: %+v)", i, fixes[i].Kind, want, fixes)
		}
	}
	for i := 1; i < len(fixes); i++ {
		if fixes[i].Priority > fixes[i-1].Priority {
			t.Fatalf("priorities not descending: %+v", fixes)
		}
	}
}

func TestCompute_GeoIPFailureBarelyMatters(t *testing.T) {
	p := DefaultPolicy()

	geoDown := allOK()
	geoDown[domain.ProbeGeoIP] = domain.ProbeOutcome{Kind: domain.ProbeGeoIP, Status: domain.StatusFailed}
	geoScore, _ := Compute(geoDown, p)

	dnsDown := allOK()
	dnsDown[domain.ProbeDNS] = domain.ProbeOutcome{Kind: domain.ProbeDNS, Status: domain.StatusFailed}
	dnsScore, _ := Compute(dnsDown, p)

	if geoScore.Score <= dnsScore.Score {
		t.Fatalf("geoip failure (%d) should cost less than dns failure (%d)", geoScore.Score, dnsScore.Score)
	}
	if geoScore.Severity != domain.SeverityHealthy {
		t.Fatalf("geoip-only failure should stay healthy, got %s", geoScore.Severity)
	}
}
