package entity

import "time"

// Verdict is the categorical outcome of evaluating a claim, either by a
// single provider or by consensus across providers.
type Verdict string

// Verdict categories. ERROR is reserved for provider-side failures
// (network, parse, timeout); it never appears as a final consensus verdict.
const (
	VerdictTrue         Verdict = "TRUE"
	VerdictFalse        Verdict = "FALSE"
	VerdictMisleading   Verdict = "MISLEADING"
	VerdictUnverifiable Verdict = "UNVERIFIABLE"
	VerdictError        Verdict = "ERROR"
)

// Valid reports whether v is one of the known verdict categories.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverifiable, VerdictError:
		return true
	}
	return false
}

// Votable reports whether a provider result with this verdict participates
// in consensus voting. ERROR and UNVERIFIABLE results are kept in the
// breakdown for transparency but carry no vote.
func (v Verdict) Votable() bool {
	return v == VerdictTrue || v == VerdictFalse || v == VerdictMisleading
}

// Source identifies a piece of supporting evidence cited by a provider.
type Source struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ProviderCallResult is the outcome of one provider call for one
// verification attempt. It is immutable once produced; a failed call is
// represented by verdict ERROR with confidence 0, never by an absent result.
type ProviderCallResult struct {
	Provider   string        `json:"provider"`
	Verdict    Verdict       `json:"verdict"`
	Confidence float64       `json:"confidence"` // 0-100
	Reasoning  string        `json:"reasoning,omitempty"`
	Sources    []Source      `json:"sources,omitempty"`
	Cost       float64       `json:"cost,omitempty"` // USD, for billing/telemetry
	Latency    time.Duration `json:"latency_ms"`
}

// ErrorResult builds the degraded ProviderCallResult used when a provider
// call fails after all retries. Provider failure is data, not a fault.
func ErrorResult(provider, reason string, latency time.Duration) ProviderCallResult {
	return ProviderCallResult{
		Provider:   provider,
		Verdict:    VerdictError,
		Confidence: 0,
		Reasoning:  reason,
		Latency:    latency,
	}
}

// VerificationResult is the final, aggregated outcome of verifying a claim.
// Breakdown preserves one entry per attempted provider in registry order so
// responses are deterministic and failed providers remain visible.
type VerificationResult struct {
	Claim       string               `json:"claim"`
	Fingerprint string               `json:"fingerprint"`
	Verdict     Verdict              `json:"verdict"`
	Confidence  float64              `json:"confidence"` // 0-100
	Breakdown   []ProviderCallResult `json:"breakdown"`
	Sources     []Source             `json:"sources,omitempty"`
	Elapsed     time.Duration        `json:"elapsed_ms"`
	VerifiedAt  time.Time            `json:"verified_at"`
}
