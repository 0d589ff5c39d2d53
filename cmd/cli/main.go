package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/netdoctor/netdoctor/internal/config"
	"github.com/netdoctor/netdoctor/internal/diagnose"
	"github.com/netdoctor/netdoctor/internal/domain"
)

func main() {
	cfg := config.FromEnv()

	mode := domain.ParseMode(os.Getenv("MODE"))
	raw := strings.Join(os.Args[1:], " ")
	if raw == "" {
		fmt.Print("Enter a domain or IP address to diagnose (e.g., example.com): ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		raw = strings.TrimSpace(line)
	}

	runner := diagnose.NewRunner(zap.NewNop(), cfg.Diagnostics)
	report, err := runner.Diagnose(context.Background(), raw, mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("\n%s\n", report.Summary)
	fmt.Printf("Health score: %d/100 (%s)\n\n", report.Health.Score, report.Health.Severity)
	for _, kind := range domain.ProbeKinds() {
		out := report.Outcomes[kind]
		fmt.Printf("[%-5s] %-8s %s\n", kind, out.Status, report.Explanations[kind])
	}
	if len(report.Fixes) > 0 {
		fmt.Println("\nSuggested fixes:")
		for _, fix := range report.Fixes {
			fmt.Printf("  - %s\n", fix.Suggestion)
		}
	}
}
