package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Diagnostics holds every tunable the probe pipeline recognizes. It is
// passed explicitly into the runner at construction time; nothing reads
// these values from globals.
type Diagnostics struct {
	DNSTimeout   time.Duration
	TLSTimeout   time.Duration
	HTTPTimeout  time.Duration
	PingTimeout  time.Duration
	GeoIPTimeout time.Duration

	// CertWarnDays is the remaining-validity window below which a valid
	// certificate is reported as degraded.
	CertWarnDays int

	// HTTPSlowThreshold marks a 2xx response as degraded when the request
	// took longer than this.
	HTTPSlowThreshold time.Duration

	// MaxRedirects bounds how many redirects the HTTP probe follows.
	MaxRedirects int

	// PingCount is how many echo requests one ping run sends.
	PingCount int

	// PingSlowThreshold marks replies as degraded above this average RTT.
	PingSlowThreshold time.Duration

	// GeoIPBaseURL is the external location service endpoint.
	GeoIPBaseURL string
}

type Config struct {
	Addr        string // API bind address
	LogDir      string // logs directory
	PublicRPM   int    // diagnose endpoint rate limit, req/min (0 disables)
	PublicBurst int    // rate limit burst
	Diagnostics Diagnostics
}

// fileConfig mirrors Config for YAML with durations expressed in
// milliseconds, so a config file stays plain integers.
type fileConfig struct {
	Addr        string `yaml:"addr"`
	LogDir      string `yaml:"log_dir"`
	PublicRPM   *int   `yaml:"public_rpm"`
	PublicBurst *int   `yaml:"public_burst"`
	Diagnostics struct {
		DNSTimeoutMS   *int   `yaml:"dns_timeout_ms"`
		TLSTimeoutMS   *int   `yaml:"tls_timeout_ms"`
		HTTPTimeoutMS  *int   `yaml:"http_timeout_ms"`
		PingTimeoutMS  *int   `yaml:"ping_timeout_ms"`
		GeoIPTimeoutMS *int   `yaml:"geoip_timeout_ms"`
		CertWarnDays   *int   `yaml:"cert_warn_days"`
		HTTPSlowMS     *int   `yaml:"http_slow_ms"`
		MaxRedirects   *int   `yaml:"max_redirects"`
		PingCount      *int   `yaml:"ping_count"`
		PingSlowMS     *int   `yaml:"ping_slow_ms"`
		GeoIPBaseURL   string `yaml:"geoip_base_url"`
	} `yaml:"diagnostics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        "127.0.0.1:8080",
		LogDir:      "logs",
		PublicRPM:   60,
		PublicBurst: 10,
		Diagnostics: Diagnostics{
			DNSTimeout:        3 * time.Second,
			TLSTimeout:        5 * time.Second,
			HTTPTimeout:       8 * time.Second,
			PingTimeout:       5 * time.Second,
			GeoIPTimeout:      10 * time.Second,
			CertWarnDays:      14,
			HTTPSlowThreshold: 2 * time.Second,
			MaxRedirects:      10,
			PingCount:         3,
			PingSlowThreshold: 200 * time.Millisecond,
			GeoIPBaseURL:      "http://ip-api.com/json",
		},
	}
}

// Load builds the effective configuration: defaults, then the optional
// YAML file named by CONFIG_FILE, then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// FromEnv is Load without the error path; file problems fall back to
// env-over-defaults. Handy for main functions that log and continue.
func FromEnv() Config {
	cfg, err := Load()
	if err != nil {
		cfg = Default()
		applyEnv(&cfg)
	}
	return cfg
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return err
	}
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if fc.PublicRPM != nil {
		cfg.PublicRPM = *fc.PublicRPM
	}
	if fc.PublicBurst != nil {
		cfg.PublicBurst = *fc.PublicBurst
	}
	d := &cfg.Diagnostics
	setDurationMS(&d.DNSTimeout, fc.Diagnostics.DNSTimeoutMS)
	setDurationMS(&d.TLSTimeout, fc.Diagnostics.TLSTimeoutMS)
	setDurationMS(&d.HTTPTimeout, fc.Diagnostics.HTTPTimeoutMS)
	setDurationMS(&d.PingTimeout, fc.Diagnostics.PingTimeoutMS)
	setDurationMS(&d.GeoIPTimeout, fc.Diagnostics.GeoIPTimeoutMS)
	setDurationMS(&d.HTTPSlowThreshold, fc.Diagnostics.HTTPSlowMS)
	setDurationMS(&d.PingSlowThreshold, fc.Diagnostics.PingSlowMS)
	if fc.Diagnostics.CertWarnDays != nil {
		d.CertWarnDays = *fc.Diagnostics.CertWarnDays
	}
	if fc.Diagnostics.MaxRedirects != nil {
		d.MaxRedirects = *fc.Diagnostics.MaxRedirects
	}
	if fc.Diagnostics.PingCount != nil && *fc.Diagnostics.PingCount > 0 {
		d.PingCount = *fc.Diagnostics.PingCount
	}
	if fc.Diagnostics.GeoIPBaseURL != "" {
		d.GeoIPBaseURL = fc.Diagnostics.GeoIPBaseURL
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	envInt("PUBLIC_RPM", &cfg.PublicRPM)
	envInt("PUBLIC_BURST", &cfg.PublicBurst)

	d := &cfg.Diagnostics
	envDurationMS("DNS_TIMEOUT_MS", &d.DNSTimeout)
	envDurationMS("TLS_TIMEOUT_MS", &d.TLSTimeout)
	envDurationMS("HTTP_TIMEOUT_MS", &d.HTTPTimeout)
	envDurationMS("PING_TIMEOUT_MS", &d.PingTimeout)
	envDurationMS("GEOIP_TIMEOUT_MS", &d.GeoIPTimeout)
	envDurationMS("HTTP_SLOW_MS", &d.HTTPSlowThreshold)
	envDurationMS("PING_SLOW_MS", &d.PingSlowThreshold)
	envInt("CERT_WARN_DAYS", &d.CertWarnDays)
	envInt("MAX_REDIRECTS", &d.MaxRedirects)
	if v := os.Getenv("PING_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			d.PingCount = n
		}
	}
	if v := os.Getenv("GEOIP_BASE_URL"); v != "" {
		d.GeoIPBaseURL = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}

func envDurationMS(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
}

func setDurationMS(dst *time.Duration, ms *int) {
	if ms != nil && *ms > 0 {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}
