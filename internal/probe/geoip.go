package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// GeoIPProbe resolves the target and asks an external location service
// where the address lives. The service is treated as unreliable and
// rate-limited; any trouble here is this probe's failure alone.
type GeoIPProbe struct {
	Client   *http.Client
	BaseURL  string
	Resolver *net.Resolver
}

func NewGeoIPProbe(baseURL string, timeout time.Duration) *GeoIPProbe {
	return &GeoIPProbe{
		Client:   &http.Client{Timeout: timeout},
		BaseURL:  baseURL,
		Resolver: &net.Resolver{},
	}
}

func (p *GeoIPProbe) Kind() domain.ProbeKind { return domain.ProbeGeoIP }

type geoIPResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	Org     string `json:"org"`
	AS      string `json:"as"`
	Query   string `json:"query"`
}

func (p *GeoIPProbe) Run(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	start := time.Now()

	addr := target.Host
	if !target.IsIP() {
		ips, err := p.Resolver.LookupIP(ctx, "ip", target.Host)
		if err != nil || len(ips) == 0 {
			return Failure(domain.ProbeGeoIP, domain.ErrConnection,
				"could not resolve target for location lookup", time.Since(start))
		}
		addr = ips[0].String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/"+addr, nil)
	if err != nil {
		return Failure(domain.ProbeGeoIP, domain.ErrProtocol, err.Error(), time.Since(start))
	}

	resp, err := p.Client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Failure(domain.ProbeGeoIP, classifyNetErr(err), err.Error(), elapsed)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Failure(domain.ProbeGeoIP, domain.ErrConnection, "location service rate limit exceeded", elapsed)
	}
	if resp.StatusCode != http.StatusOK {
		return Failure(domain.ProbeGeoIP, domain.ErrProtocol,
			fmt.Sprintf("location service returned %s", resp.Status), elapsed)
	}

	var body geoIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Failure(domain.ProbeGeoIP, domain.ErrProtocol, "malformed location response: "+err.Error(), elapsed)
	}
	if body.Status != "success" {
		msg := body.Message
		if msg == "" {
			msg = "location lookup failed"
		}
		return Failure(domain.ProbeGeoIP, domain.ErrProtocol, msg, elapsed)
	}

	return domain.ProbeOutcome{
		Kind:   domain.ProbeGeoIP,
		Status: domain.StatusOK,
		Fields: map[string]any{
			"ip":      body.Query,
			"country": body.Country,
			"city":    body.City,
			"isp":     body.ISP,
			"org":     body.Org,
			"asn":     body.AS,
		},
		ElapsedMS: ms(time.Since(start)),
	}
}
