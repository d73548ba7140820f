// Package provider contains evidence provider adapters for claim
// verification. Each adapter exposes a single operation, Verify, which
// evaluates a claim against one backend (an LLM, a fact-check API, a
// scraped fact-check site) and returns a ProviderCallResult. Adapters
// report failure through the error return; the orchestration layer converts
// exhausted failures into degraded ERROR results.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"claimcheck/internal/domain/entity"
)

// Provider is the capability interface every evidence provider implements.
type Provider interface {
	// Name returns the provider's registry name.
	Name() string

	// Verify evaluates the claim and returns the provider's judgment.
	// Implementations must honor ctx cancellation and must not panic;
	// all failure modes are reported through the error return.
	Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error)
}

// pacer wraps a token-bucket limiter for client-side pacing of outbound
// provider calls, so retries and concurrent verifications cannot hammer a
// single upstream API.
type pacer struct {
	limiter *rate.Limiter
}

// newPacer creates a pacer allowing requestsPerSecond sustained with the
// given burst.
func newPacer(requestsPerSecond float64, burst int) *pacer {
	return &pacer{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// wait blocks until a token is available or the context is done.
func (p *pacer) wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("outbound pacing: %w", err)
	}
	return nil
}

// judgment is the JSON shape LLM providers are instructed to produce.
type judgment struct {
	Verdict    string   `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Sources    []string `json:"sources"`
}

// verificationPrompt instructs an LLM to act as a fact checker and answer
// in strict JSON so the reply can be parsed without heuristics.
func verificationPrompt(claim entity.Claim) string {
	var b strings.Builder
	b.WriteString("You are a rigorous fact checker. Evaluate the factual accuracy of the claim below.\n")
	b.WriteString("Respond with a single JSON object and nothing else, using this schema:\n")
	b.WriteString(`{"verdict": "TRUE|FALSE|MISLEADING|UNVERIFIABLE", "confidence": 0-100, "reasoning": "...", "sources": ["url", ...]}`)
	b.WriteString("\nUse UNVERIFIABLE when you cannot establish the claim either way.\n")
	if lang, ok := claim.Params["lang"]; ok {
		fmt.Fprintf(&b, "Answer in language: %s\n", lang)
	}
	fmt.Fprintf(&b, "\nClaim: %s\n", claim.Text)
	return b.String()
}

// parseJudgment decodes an LLM reply into a ProviderCallResult. Replies
// wrapped in markdown fences are unwrapped first. An unparseable or
// out-of-schema reply is an error; the caller decides whether to retry.
func parseJudgment(providerName, reply string, latency time.Duration) (entity.ProviderCallResult, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var j judgment
	if err := json.Unmarshal([]byte(text), &j); err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("unparseable judgment from %s: %w", providerName, err)
	}

	verdict := entity.Verdict(strings.ToUpper(strings.TrimSpace(j.Verdict)))
	if !verdict.Valid() || verdict == entity.VerdictError {
		return entity.ProviderCallResult{}, fmt.Errorf("unknown verdict %q from %s", j.Verdict, providerName)
	}

	confidence := j.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	sources := make([]entity.Source, 0, len(j.Sources))
	for _, u := range j.Sources {
		if u = strings.TrimSpace(u); u != "" {
			sources = append(sources, entity.Source{URL: u, Provider: providerName})
		}
	}

	return entity.ProviderCallResult{
		Provider:   providerName,
		Verdict:    verdict,
		Confidence: confidence,
		Reasoning:  j.Reasoning,
		Sources:    sources,
		Latency:    latency,
	}, nil
}
