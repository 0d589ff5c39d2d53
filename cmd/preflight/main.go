// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Checks the runtime environment before starting the API: ping
// availability decides whether the ICMP probe can work at all, and the
// config surface gets a quick sanity pass.
func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	if path, err := exec.LookPath("ping"); err != nil {
		warn("ping binary not found — the ICMP probe will report unsupported_environment")
	} else {
		ok("ping available at " + path)
	}

	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))
	if apiAddr == "" {
		warn("API_ADDR is empty; the built-in default will be used.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	if cf := strings.TrimSpace(os.Getenv("CONFIG_FILE")); cf != "" {
		if _, err := os.Stat(cf); err != nil {
			fail("CONFIG_FILE points at " + cf + " but it cannot be read")
		}
		ok("CONFIG_FILE=" + cf)
	}

	if v := strings.TrimSpace(os.Getenv("GEOIP_BASE_URL")); v != "" {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			fail("GEOIP_BASE_URL must be an http(s) URL, got " + v)
		}
		ok("GEOIP_BASE_URL=" + v)
	}

	ok("preflight passed")
}
