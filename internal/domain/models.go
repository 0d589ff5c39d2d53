package domain

import "time"

// ProbeKind identifies one of the five fixed diagnostic checks.
type ProbeKind string

const (
	ProbeDNS   ProbeKind = "dns"
	ProbeTLS   ProbeKind = "tls"
	ProbeHTTP  ProbeKind = "http"
	ProbePing  ProbeKind = "ping"
	ProbeGeoIP ProbeKind = "geoip"
)

// ProbeKinds returns all probe kinds in fixed precedence order.
// The order doubles as the tie-breaker when ranking fix suggestions.
func ProbeKinds() []ProbeKind {
	return []ProbeKind{ProbeDNS, ProbeTLS, ProbeHTTP, ProbePing, ProbeGeoIP}
}

// Status is the tri-state result of a single probe.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// ErrorKind labels why a probe failed. The label survives into the
// explanation layer so failed probes can still be described.
type ErrorKind string

const (
	ErrTimeout     ErrorKind = "timeout"
	ErrConnection  ErrorKind = "connection"
	ErrProtocol    ErrorKind = "protocol"
	ErrUnsupported ErrorKind = "unsupported_environment"
)

// Mode selects the explanation style.
type Mode string

const (
	ModeBeginner Mode = "beginner"
	ModeExpert   Mode = "expert"
)

// ParseMode maps user input to a Mode, defaulting to beginner.
func ParseMode(s string) Mode {
	if s == string(ModeExpert) {
		return ModeExpert
	}
	return ModeBeginner
}

// ProbeOutcome is the uniform result shape every probe produces.
// Fields holds probe-specific structured values (resolved addresses,
// certificate expiry, status codes, ...) keyed by stable names.
type ProbeOutcome struct {
	Kind      ProbeKind      `json:"kind"`
	Status    Status         `json:"status"`
	Fields    map[string]any `json:"fields,omitempty"`
	ErrorKind ErrorKind      `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
	ElapsedMS float64        `json:"elapsed_ms"`
}

// Severity is the band derived from a health score.
type Severity string

const (
	SeverityHealthy  Severity = "healthy"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// HealthScore is the weighted composite over all five probes.
type HealthScore struct {
	Score    int      `json:"score"`
	Severity Severity `json:"severity"`
}

// FixSuggestion is a prioritized remediation hint tied to one probe.
type FixSuggestion struct {
	Kind       ProbeKind `json:"kind"`
	Suggestion string    `json:"suggestion"`
	Priority   int       `json:"priority"`
}

// Report is the aggregate handed to the presentation layer: always all
// five outcomes, never a partial set. It is built once per request and
// not mutated afterwards.
type Report struct {
	Target       Target                     `json:"target"`
	Mode         Mode                       `json:"mode"`
	Outcomes     map[ProbeKind]ProbeOutcome `json:"outcomes"`
	Health       HealthScore                `json:"health"`
	Fixes        []FixSuggestion            `json:"fix_suggestions"`
	Explanations map[ProbeKind]string       `json:"explanations"`
	Summary      string                     `json:"summary"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}
