package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// HTTPProbe fetches the target over the conventional web port, following
// redirects up to MaxRedirects.
type HTTPProbe struct {
	Transport     http.RoundTripper
	MaxRedirects  int
	SlowThreshold time.Duration

	// Scheme is "https" by default; tests point it at plain httptest servers.
	Scheme string
	// PortOverride, when non-empty, replaces the default port. Test hook.
	PortOverride string
}

func NewHTTPProbe(maxRedirects int, slow time.Duration) *HTTPProbe {
	return &HTTPProbe{
		Transport:     http.DefaultTransport,
		MaxRedirects:  maxRedirects,
		SlowThreshold: slow,
		Scheme:        "https",
	}
}

func (p *HTTPProbe) Kind() domain.ProbeKind { return domain.ProbeHTTP }

func (p *HTTPProbe) Run(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	start := time.Now()

	redirects := 0
	client := &http.Client{
		Transport: p.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			redirects = len(via)
			if redirects >= p.MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.targetURL(target), nil)
	if err != nil {
		return Failure(domain.ProbeHTTP, domain.ErrProtocol, err.Error(), time.Since(start))
	}

	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Failure(domain.ProbeHTTP, classifyNetErr(err), err.Error(), elapsed)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	fields := map[string]any{
		"status_code": resp.StatusCode,
		"final_url":   resp.Request.URL.String(),
		"redirects":   redirects,
		"latency_ms":  ms(elapsed),
	}
	out := domain.ProbeOutcome{
		Kind:      domain.ProbeHTTP,
		Status:    domain.StatusOK,
		Fields:    fields,
		ElapsedMS: ms(elapsed),
	}

	switch {
	case resp.StatusCode >= 500:
		out.Status = domain.StatusFailed
		out.ErrorKind = domain.ErrProtocol
		out.Error = fmt.Sprintf("server error: %s", resp.Status)
	case resp.StatusCode >= 400:
		out.Status = domain.StatusDegraded
		out.Error = fmt.Sprintf("client error: %s", resp.Status)
	case resp.StatusCode >= 300:
		out.Status = domain.StatusDegraded
		out.Error = fmt.Sprintf("redirect limit reached at %s", resp.Status)
	case p.SlowThreshold > 0 && elapsed > p.SlowThreshold:
		out.Status = domain.StatusDegraded
		out.Error = fmt.Sprintf("slow response: %.0fms", ms(elapsed))
	}
	return out
}

func (p *HTTPProbe) targetURL(target domain.Target) string {
	host := target.Host
	if target.Kind == domain.KindIPv6 && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	if p.PortOverride != "" {
		host += ":" + p.PortOverride
	}
	scheme := p.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + host + "/"
}
