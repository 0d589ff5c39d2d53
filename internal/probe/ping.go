package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// PingProbe shells out to the system ping binary. Raw ICMP sockets need
// elevated privileges on most platforms; the setuid system binary does
// not. A missing binary or a permission error maps to the
// unsupported_environment label instead of crashing the batch.
type PingProbe struct {
	Count         int
	SlowThreshold time.Duration

	// run is injectable for tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewPingProbe(count int, slow time.Duration) *PingProbe {
	if count < 1 {
		count = 1
	}
	return &PingProbe{
		Count:         count,
		SlowThreshold: slow,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

func (p *PingProbe) Kind() domain.ProbeKind { return domain.ProbePing }

func (p *PingProbe) Run(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	start := time.Now()

	args := pingArgs(p.Count, target)
	output, err := p.run(ctx, "ping", args...)
	elapsed := time.Since(start)
	text := string(output)

	received, rtt := parsePingOutput(text)
	// A statistics line means ping ran to completion; a non-zero exit then
	// just reflects lost packets, which the counts below already cover.
	ranToCompletion := strings.Contains(text, "% packet loss") || strings.Contains(text, "% loss")

	if err != nil && !ranToCompletion {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return Failure(domain.ProbePing, domain.ErrTimeout, "ping timed out", elapsed)
		case errors.Is(err, exec.ErrNotFound):
			return Failure(domain.ProbePing, domain.ErrUnsupported, "ping binary not available", elapsed)
		case strings.Contains(text, "not permitted") || strings.Contains(text, "Permission denied"):
			return Failure(domain.ProbePing, domain.ErrUnsupported, "ICMP not permitted in this environment", elapsed)
		default:
			msg := strings.TrimSpace(text)
			if msg == "" {
				msg = err.Error()
			}
			return Failure(domain.ProbePing, domain.ErrConnection, msg, elapsed)
		}
	}

	if received == 0 {
		return Failure(domain.ProbePing, domain.ErrTimeout, "no echo reply received", elapsed)
	}

	lossPct := float64(p.Count-received) / float64(p.Count) * 100
	out := domain.ProbeOutcome{
		Kind:   domain.ProbePing,
		Status: domain.StatusOK,
		Fields: map[string]any{
			"packets_sent":     p.Count,
			"packets_received": received,
			"loss_pct":         lossPct,
			"rtt_ms":           rtt,
		},
		ElapsedMS: ms(elapsed),
	}
	switch {
	case received < p.Count:
		out.Status = domain.StatusDegraded
		out.Error = fmt.Sprintf("%.0f%% packet loss", lossPct)
	case p.SlowThreshold > 0 && rtt > ms(p.SlowThreshold):
		out.Status = domain.StatusDegraded
		out.Error = fmt.Sprintf("high latency: %.1fms", rtt)
	}
	return out
}

func pingArgs(count int, target domain.Target) []string {
	c := strconv.Itoa(count)
	if runtime.GOOS == "windows" {
		return []string{"-n", c, target.Host}
	}
	args := []string{"-c", c, "-W", "2"}
	if target.Kind == domain.KindIPv6 {
		args = append(args, "-6")
	}
	return append(args, target.Host)
}

var (
	pingRecvRe = regexp.MustCompile(`(\d+)\s+(?:packets\s+)?received|Received = (\d+)`)
	pingRTTRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:rtt|round-trip) min/avg/max[^=]*= [0-9.]+/([0-9.]+)/`),
		regexp.MustCompile(`Average = (\d+)ms`),
		regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`),
	}
)

// parsePingOutput extracts the reply count and average RTT from platform
// ping output (Linux/mac "X received ... min/avg/max", Windows
// "Received = X ... Average = Yms").
func parsePingOutput(output string) (received int, rtt float64) {
	if m := pingRecvRe.FindStringSubmatch(output); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				received, _ = strconv.Atoi(g)
				break
			}
		}
	}
	for _, re := range pingRTTRes {
		if m := re.FindStringSubmatch(output); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				rtt = v
				break
			}
		}
	}
	return received, rtt
}
