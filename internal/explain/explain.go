// Package explain renders probe outcomes as human-readable text in two
// registers: beginner (plain language, user-facing impact) and expert
// (raw technical detail). It never mutates outcomes and produces text
// for every probe kind, ok or not.
package explain

import (
	"fmt"
	"strings"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// Explain maps every probe kind to explanation text for the given mode.
// Unknown or missing outcomes still get a generic line, so consumers can
// render all five rows unconditionally.
func Explain(outcomes map[domain.ProbeKind]domain.ProbeOutcome, mode domain.Mode) map[domain.ProbeKind]string {
	texts := make(map[domain.ProbeKind]string, len(domain.ProbeKinds()))
	for _, kind := range domain.ProbeKinds() {
		out, ok := outcomes[kind]
		if !ok {
			out = domain.ProbeOutcome{Kind: kind, Status: domain.StatusFailed, Error: "no result recorded"}
		}
		texts[kind] = explainOne(out, mode)
	}
	return texts
}

func explainOne(out domain.ProbeOutcome, mode domain.Mode) string {
	var text string
	switch out.Kind {
	case domain.ProbeDNS:
		text = explainDNS(out, mode)
	case domain.ProbeTLS:
		text = explainTLS(out, mode)
	case domain.ProbeHTTP:
		text = explainHTTP(out, mode)
	case domain.ProbePing:
		text = explainPing(out, mode)
	case domain.ProbeGeoIP:
		text = explainGeoIP(out, mode)
	}
	if text == "" {
		text = fallback(out, mode)
	}
	return text
}

func explainDNS(out domain.ProbeOutcome, mode domain.Mode) string {
	addrs := stringSlice(out, "addresses")
	if mode == domain.ModeBeginner {
		switch out.Status {
		case domain.StatusOK:
			return fmt.Sprintf("The name looks up correctly and points to %s.", joinOr(addrs, "an address"))
		case domain.StatusDegraded:
			return "The name looks up, but only over IPv6; some visitors may not be able to use it."
		default:
			return "The name could not be looked up. " + beginnerReason(out)
		}
	}
	if out.Status == domain.StatusFailed {
		return fmt.Sprintf("DNS: FAILED (%s) %s", out.ErrorKind, out.Error)
	}
	detail := fmt.Sprintf("DNS: %s, records=[%s]", strings.ToUpper(string(out.Status)), strings.Join(addrs, ", "))
	if cname, ok := out.Fields["cname"].(string); ok {
		detail += ", cname=" + cname
	}
	return detail
}

func explainTLS(out domain.ProbeOutcome, mode domain.Mode) string {
	days, hasDays := intField(out, "days_left")
	if mode == domain.ModeBeginner {
		switch out.Status {
		case domain.StatusOK:
			if hasDays {
				return fmt.Sprintf("The site's security certificate is valid for another %d days.", days)
			}
			return "The site's security certificate is valid."
		case domain.StatusDegraded:
			if hasDays {
				return fmt.Sprintf("The site's security certificate will expire soon, in %d days.", days)
			}
			return "The site's security certificate will expire soon."
		default:
			return "There is a problem with the site's security certificate. " + beginnerReason(out)
		}
	}
	if out.Status == domain.StatusFailed {
		return fmt.Sprintf("TLS: FAILED (%s) %s", out.ErrorKind, out.Error)
	}
	return fmt.Sprintf("TLS: %s, issuer=%v, expires=%v (%d days), version=%v, fingerprint=%v",
		strings.ToUpper(string(out.Status)), out.Fields["issuer"], out.Fields["not_after"],
		days, out.Fields["version"], out.Fields["fingerprint"])
}

func explainHTTP(out domain.ProbeOutcome, mode domain.Mode) string {
	code, hasCode := intField(out, "status_code")
	if mode == domain.ModeBeginner {
		switch out.Status {
		case domain.StatusOK:
			return fmt.Sprintf("The website responds normally (status %d).", code)
		case domain.StatusDegraded:
			return "The website responds, but not cleanly. " + beginnerReason(out)
		default:
			return "The website could not be reached. " + beginnerReason(out)
		}
	}
	if out.Status == domain.StatusFailed && !hasCode {
		return fmt.Sprintf("HTTP: FAILED (%s) %s", out.ErrorKind, out.Error)
	}
	return fmt.Sprintf("HTTP: %s, status=%d, latency=%.0fms, redirects=%v, final_url=%v",
		strings.ToUpper(string(out.Status)), code, floatField(out, "latency_ms"),
		out.Fields["redirects"], out.Fields["final_url"])
}

func explainPing(out domain.ProbeOutcome, mode domain.Mode) string {
	if mode == domain.ModeBeginner {
		switch out.Status {
		case domain.StatusOK:
			return fmt.Sprintf("The server answers ping quickly (about %.0fms).", floatField(out, "rtt_ms"))
		case domain.StatusDegraded:
			return "The server answers ping, but slowly or with some lost packets."
		default:
			if out.ErrorKind == domain.ErrUnsupported {
				return "Ping could not be tested from here; that does not necessarily mean the server is down."
			}
			return "The server does not answer ping. " + beginnerReason(out)
		}
	}
	if out.Status == domain.StatusFailed {
		return fmt.Sprintf("PING: FAILED (%s) %s", out.ErrorKind, out.Error)
	}
	return fmt.Sprintf("PING: %s, rtt=%.1fms, received=%v/%v, loss=%.0f%%",
		strings.ToUpper(string(out.Status)), floatField(out, "rtt_ms"),
		out.Fields["packets_received"], out.Fields["packets_sent"], floatField(out, "loss_pct"))
}

func explainGeoIP(out domain.ProbeOutcome, mode domain.Mode) string {
	if mode == domain.ModeBeginner {
		if out.Status == domain.StatusOK {
			return fmt.Sprintf("The server appears to be located in %v, %v (provider: %v).",
				out.Fields["city"], out.Fields["country"], out.Fields["isp"])
		}
		return "The server's location could not be determined. " + beginnerReason(out)
	}
	if out.Status != domain.StatusOK {
		return fmt.Sprintf("GEOIP: %s (%s) %s", strings.ToUpper(string(out.Status)), out.ErrorKind, out.Error)
	}
	return fmt.Sprintf("GEOIP: OK, ip=%v, asn=%v, location=%v/%v, org=%v",
		out.Fields["ip"], out.Fields["asn"], out.Fields["country"], out.Fields["city"], out.Fields["org"])
}

// beginnerReason translates the error taxonomy into plain language. It is
// the generic fallback when probe-specific detail is absent.
func beginnerReason(out domain.ProbeOutcome) string {
	switch out.ErrorKind {
	case domain.ErrTimeout:
		return "The check took too long and gave up."
	case domain.ErrConnection:
		return "A connection could not be made."
	case domain.ErrProtocol:
		return "The answer that came back was not what a healthy server would send."
	case domain.ErrUnsupported:
		return "This check is not available in the current environment."
	}
	if out.Error != "" {
		return out.Error
	}
	return "No further detail is available."
}

func fallback(out domain.ProbeOutcome, mode domain.Mode) string {
	if mode == domain.ModeBeginner {
		return fmt.Sprintf("The %s check finished with status %s. %s", out.Kind, out.Status, beginnerReason(out))
	}
	return fmt.Sprintf("%s: %s (%s) %s", strings.ToUpper(string(out.Kind)),
		strings.ToUpper(string(out.Status)), out.ErrorKind, out.Error)
}

func stringSlice(out domain.ProbeOutcome, key string) []string {
	if v, ok := out.Fields[key].([]string); ok {
		return v
	}
	return nil
}

func intField(out domain.ProbeOutcome, key string) (int, bool) {
	v, ok := out.Fields[key].(int)
	return v, ok
}

func floatField(out domain.ProbeOutcome, key string) float64 {
	switch v := out.Fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
