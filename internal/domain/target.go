package domain

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// TargetKind classifies what the normalized target is.
type TargetKind string

const (
	KindHostname TargetKind = "hostname"
	KindIPv4     TargetKind = "ipv4"
	KindIPv6     TargetKind = "ipv6"
)

// Target is the normalized subject of a diagnostic run. It is built once
// per request and treated as immutable by every probe.
type Target struct {
	Raw  string     `json:"raw"`
	Kind TargetKind `json:"kind"`
	Host string     `json:"host"`
}

// IsIP reports whether the target is a literal IP address.
func (t Target) IsIP() bool {
	return t.Kind == KindIPv4 || t.Kind == KindIPv6
}

// InvalidTargetError rejects user input before any probe runs.
type InvalidTargetError struct {
	Raw    string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Raw, e.Reason)
}

// ParseTarget normalizes raw user input (domain, IP literal, or URL) into
// a Target. Normalization is idempotent: parsing the normalized host again
// yields the same value.
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, &InvalidTargetError{Raw: raw, Reason: "empty input"}
	}

	host := extractHost(trimmed)
	if host == "" {
		return Target{}, &InvalidTargetError{Raw: raw, Reason: "no host found"}
	}

	if ip := net.ParseIP(host); ip != nil {
		kind := KindIPv4
		if ip.To4() == nil {
			kind = KindIPv6
		}
		return Target{Raw: raw, Kind: kind, Host: ip.String()}, nil
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if !validHostname(host) {
		return Target{}, &InvalidTargetError{Raw: raw, Reason: "not a valid hostname or IP literal"}
	}
	return Target{Raw: raw, Kind: KindHostname, Host: host}, nil
}

// extractHost strips scheme, path, and port from the input, leaving a bare
// host. IPv6 literals keep their colons but lose any brackets.
func extractHost(s string) string {
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}

	// Bare input: cut any path component first.
	s, _, _ = strings.Cut(s, "/")

	if strings.HasPrefix(s, "[") {
		// Bracketed IPv6, possibly with a port.
		if host, _, err := net.SplitHostPort(s); err == nil {
			return host
		}
		return strings.Trim(s, "[]")
	}

	if ip := net.ParseIP(s); ip != nil {
		return s
	}

	// host:port — but only when there is a single colon, so unbracketed
	// IPv6 literals are not mangled.
	if strings.Count(s, ":") == 1 {
		if host, _, err := net.SplitHostPort(s); err == nil {
			return host
		}
	}
	return s
}

func validHostname(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= '0' && r <= '9':
			case r == '-':
			default:
				return false
			}
		}
	}
	return true
}
