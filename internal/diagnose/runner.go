// Package diagnose coordinates one diagnostic run: fan out the five
// probes concurrently, survive any subset of them failing, and assemble
// the scored, explained report.
package diagnose

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netdoctor/netdoctor/internal/config"
	"github.com/netdoctor/netdoctor/internal/domain"
	"github.com/netdoctor/netdoctor/internal/explain"
	"github.com/netdoctor/netdoctor/internal/probe"
	"github.com/netdoctor/netdoctor/internal/score"
)

// Runner owns the fixed probe table and its per-kind timeouts. The probe
// set is closed by design: always the same five kinds, never a registry.
type Runner struct {
	logger   *zap.Logger
	probes   map[domain.ProbeKind]probe.Probe
	timeouts map[domain.ProbeKind]time.Duration
	policy   score.Policy
}

// NewRunner builds a Runner with the real probe implementations wired
// from configuration.
func NewRunner(logger *zap.Logger, cfg config.Diagnostics) *Runner {
	d := cfg
	return NewRunnerWith(logger,
		map[domain.ProbeKind]probe.Probe{
			domain.ProbeDNS:   probe.NewDNSProbe(),
			domain.ProbeTLS:   probe.NewTLSProbe(d.CertWarnDays),
			domain.ProbeHTTP:  probe.NewHTTPProbe(d.MaxRedirects, d.HTTPSlowThreshold),
			domain.ProbePing:  probe.NewPingProbe(d.PingCount, d.PingSlowThreshold),
			domain.ProbeGeoIP: probe.NewGeoIPProbe(d.GeoIPBaseURL, d.GeoIPTimeout),
		},
		map[domain.ProbeKind]time.Duration{
			domain.ProbeDNS:   d.DNSTimeout,
			domain.ProbeTLS:   d.TLSTimeout,
			domain.ProbeHTTP:  d.HTTPTimeout,
			domain.ProbePing:  d.PingTimeout,
			domain.ProbeGeoIP: d.GeoIPTimeout,
		},
		score.DefaultPolicy(),
	)
}

// NewRunnerWith wires an explicit probe table, timeouts, and scoring
// policy. Tests use it to substitute fake probes.
func NewRunnerWith(logger *zap.Logger, probes map[domain.ProbeKind]probe.Probe,
	timeouts map[domain.ProbeKind]time.Duration, policy score.Policy) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, probes: probes, timeouts: timeouts, policy: policy}
}

// Diagnose validates and normalizes the raw target, runs all five probes
// concurrently, and returns the complete report. The only error it can
// return is *domain.InvalidTargetError; every probe-level fault becomes
// data inside the report instead.
func (r *Runner) Diagnose(ctx context.Context, rawTarget string, mode domain.Mode) (*domain.Report, error) {
	target, err := domain.ParseTarget(rawTarget)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	outcomes := r.runProbes(ctx, target)

	health, fixes := score.Compute(outcomes, r.policy)
	explanations := explain.Explain(outcomes, mode)

	report := &domain.Report{
		Target:       target,
		Mode:         mode,
		Outcomes:     outcomes,
		Health:       health,
		Fixes:        fixes,
		Explanations: explanations,
		Summary:      summarize(target, outcomes),
		GeneratedAt:  time.Now().UTC(),
	}

	r.logger.Info("diagnostic_complete",
		zap.String("target", target.Host),
		zap.String("kind", string(target.Kind)),
		zap.Int("score", health.Score),
		zap.String("severity", string(health.Severity)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

// runProbes is the fan-out/fan-in. Each probe gets its own goroutine, its
// own timeout, and its own failure boundary; one probe's fault or expiry
// never cancels a sibling. The returned map always contains all five
// kinds.
func (r *Runner) runProbes(ctx context.Context, target domain.Target) map[domain.ProbeKind]domain.ProbeOutcome {
	var (
		mu       sync.Mutex
		outcomes = make(map[domain.ProbeKind]domain.ProbeOutcome, len(r.probes))
		wg       sync.WaitGroup
	)

	for kind, p := range r.probes {
		wg.Add(1)
		go func(kind domain.ProbeKind, p probe.Probe) {
			defer wg.Done()
			out := r.runOne(ctx, kind, p, target)
			mu.Lock()
			outcomes[kind] = out
			mu.Unlock()
		}(kind, p)
	}
	wg.Wait()

	// The probe table is fixed, but a total report is the contract: fill
	// any hole with an explicit failure rather than returning four kinds.
	for _, kind := range domain.ProbeKinds() {
		if _, ok := outcomes[kind]; !ok {
			outcomes[kind] = probe.Failure(kind, domain.ErrUnsupported, "probe not configured", 0)
		}
	}
	return outcomes
}

// runOne applies the per-probe timeout as a hard deadline: when it
// expires the outcome is forced to failed/timeout even if the probe's
// I/O is still in flight.
func (r *Runner) runOne(ctx context.Context, kind domain.ProbeKind, p probe.Probe, target domain.Target) domain.ProbeOutcome {
	timeout := r.timeouts[kind]
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan domain.ProbeOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("probe_panic",
					zap.String("probe", string(kind)),
					zap.Any("panic", rec),
				)
				done <- probe.Failure(kind, domain.ErrProtocol,
					fmt.Sprintf("probe panicked: %v", rec), time.Since(start))
			}
		}()
		done <- p.Run(pctx, target)
	}()

	var out domain.ProbeOutcome
	select {
	case out = <-done:
	case <-pctx.Done():
		out = probe.Failure(kind, domain.ErrTimeout,
			fmt.Sprintf("probe exceeded its %s deadline", timeout), time.Since(start))
	}

	if out.Kind == "" {
		out.Kind = kind
	}
	r.logger.Debug("probe_done",
		zap.String("probe", string(kind)),
		zap.String("status", string(out.Status)),
		zap.String("error", out.Error),
		zap.Float64("elapsed_ms", out.ElapsedMS),
	)
	return out
}

// summarize mirrors the one-line verdict shown above the per-probe rows.
func summarize(target domain.Target, outcomes map[domain.ProbeKind]domain.ProbeOutcome) string {
	var issues []string
	for _, kind := range domain.ProbeKinds() {
		if out := outcomes[kind]; out.Status != domain.StatusOK {
			issues = append(issues, fmt.Sprintf("%s %s", kind, out.Status))
		}
	}
	if len(issues) == 0 {
		return fmt.Sprintf("All diagnostics passed for %s. The target appears to be healthy and reachable.", target.Host)
	}
	return fmt.Sprintf("Found %d issue(s) with %s: %s.", len(issues), target.Host, strings.Join(issues, ", "))
}
