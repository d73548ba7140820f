// Package entity defines the core domain entities and validation logic for the
// verification service. It contains the fundamental business objects such as
// Claim and VerificationResult, along with their validation rules and
// domain-specific errors.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"claimcheck/internal/utils/text"
)

// MaxClaimLength is the maximum accepted length of a claim in runes.
// Longer claims are rejected at the edge before any provider work is scheduled.
const MaxClaimLength = 2000

// Claim represents a single statement submitted for verification, together
// with optional query parameters (e.g., language, region) that influence how
// providers evaluate it.
type Claim struct {
	Text   string
	Params map[string]string
}

// NewClaim creates a Claim from raw text and optional parameters.
// The text is validated but stored as given; normalization happens only
// for fingerprinting so the original wording is preserved in results.
func NewClaim(raw string, params map[string]string) (Claim, error) {
	if strings.TrimSpace(raw) == "" {
		return Claim{}, &ValidationError{Field: "text", Message: "claim text is required"}
	}
	if text.CountRunes(raw) > MaxClaimLength {
		return Claim{}, &ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("claim text too long (max %d characters)", MaxClaimLength),
		}
	}
	return Claim{Text: raw, Params: params}, nil
}

// Normalized returns the canonical form of the claim text used for
// fingerprinting: lowercased, trimmed, with runs of whitespace collapsed
// to single spaces. Two claims that differ only in casing or spacing
// share a fingerprint and therefore a cache entry.
func (c Claim) Normalized() string {
	return strings.Join(strings.Fields(strings.ToLower(c.Text)), " ")
}

// Fingerprint returns a stable hex-encoded SHA-256 digest of the normalized
// claim text and its parameters. Parameters are folded in sorted key order so
// the fingerprint does not depend on map iteration order.
func (c Claim) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(c.Normalized()))

	if len(c.Params) > 0 {
		keys := make([]string, 0, len(c.Params))
		for k := range c.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "|%s=%s", k, c.Params[k])
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
