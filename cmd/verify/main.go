// Package main provides a CLI for one-shot claim verification.
// Usage: claimcheck-verify "claim text" [--providers FILE] [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"claimcheck/internal/config"
	"claimcheck/internal/domain/entity"
	"claimcheck/internal/observability/logging"
	"claimcheck/internal/resilience/health"
	"claimcheck/internal/usecase/verify"
)

func main() {
	var (
		providersFile string
		outputFormat  string
		timeout       time.Duration
		lang          string
	)

	flag.StringVar(&providersFile, "providers", "providers.yaml", "Path to the provider registry file")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall verification timeout")
	flag.StringVar(&lang, "lang", "", "Preferred language for provider reasoning")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: claim text is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: claimcheck-verify \"claim text\" [--providers FILE] [--output json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  claimcheck-verify \"The Great Wall is visible from space\"")
		fmt.Fprintln(os.Stderr, "  claimcheck-verify \"Water boils at 100C at sea level\" --output json")
		os.Exit(1)
	}
	claim := args[0]

	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	result, err := run(claim, providersFile, timeout, lang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: encode output: %v\n", err)
			os.Exit(1)
		}
	default:
		printText(result)
	}
}

// run builds a minimal pipeline and verifies the claim once.
func run(claim, providersFile string, timeout time.Duration, lang string) (*entity.VerificationResult, error) {
	registry, err := config.BuildRegistry(providersFile)
	if err != nil {
		return nil, err
	}

	tracker := health.New(health.DefaultConfig())
	fanoutCfg := verify.DefaultFanoutConfig()
	fanoutCfg.OverallTimeout = timeout
	fanout := verify.NewFanout(fanoutCfg, registry, tracker, verify.NoopMetrics{})
	aggregator := verify.NewAggregator(verify.DefaultAggregatorConfig(), registry)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var params map[string]string
	if lang != "" {
		params = map[string]string{"lang": lang}
	}
	parsed, err := entity.NewClaim(claim, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := fanout.Execute(ctx, parsed)
	if len(results) == 0 {
		return nil, fmt.Errorf("no providers available")
	}
	return aggregator.Aggregate(parsed, results, time.Since(start)), nil
}

func printText(result *entity.VerificationResult) {
	fmt.Printf("Claim:      %s\n", result.Claim)
	fmt.Printf("Verdict:    %s\n", result.Verdict)
	fmt.Printf("Confidence: %.1f%%\n", result.Confidence)
	fmt.Printf("Elapsed:    %s\n", result.Elapsed)
	fmt.Println()

	fmt.Println("Provider breakdown:")
	for _, r := range result.Breakdown {
		line := fmt.Sprintf("  %-20s %-14s %5.1f%%", r.Provider, r.Verdict, r.Confidence)
		if r.Reasoning != "" {
			reason := r.Reasoning
			if len(reason) > 80 {
				reason = reason[:77] + "..."
			}
			line += "  " + reason
		}
		fmt.Println(line)
	}

	if len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, s := range result.Sources {
			if s.Title != "" {
				fmt.Printf("  - %s (%s)\n", s.Title, s.URL)
			} else {
				fmt.Printf("  - %s\n", s.URL)
			}
		}
	}
}
