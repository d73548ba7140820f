package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/resilience/retry"
)

// factCheckEndpoint is the Google Fact Check Tools claim search API.
const factCheckEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

// FactCheckConfig holds configuration for the fact-check API provider.
type FactCheckConfig struct {
	// Endpoint overrides the API endpoint, for tests.
	Endpoint string

	// Timeout is the maximum duration for a single API call.
	Timeout time.Duration

	// MaxReviews caps how many claim reviews are folded into one judgment.
	MaxReviews int
}

// DefaultFactCheckConfig returns the default fact-check provider configuration.
func DefaultFactCheckConfig() FactCheckConfig {
	return FactCheckConfig{
		Endpoint:   factCheckEndpoint,
		Timeout:    10 * time.Second,
		MaxReviews: 5,
	}
}

// FactCheck verifies claims against the Google Fact Check Tools API, which
// indexes published reviews from fact-checking organizations. Reviews carry
// free-text ratings ("False", "Mostly true", "Pants on Fire") that are
// mapped onto verdict categories; agreement across reviews raises the
// reported confidence.
type FactCheck struct {
	name   string
	apiKey string
	client *http.Client
	config FactCheckConfig
}

// NewFactCheck creates a fact-check API provider with the given API key.
func NewFactCheck(name, apiKey string, cfg FactCheckConfig) *FactCheck {
	if cfg.Endpoint == "" {
		cfg.Endpoint = factCheckEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFactCheckConfig().Timeout
	}
	if cfg.MaxReviews <= 0 {
		cfg.MaxReviews = DefaultFactCheckConfig().MaxReviews
	}

	return &FactCheck{
		name:   name,
		apiKey: apiKey,
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Name returns the provider's registry name.
func (f *FactCheck) Name() string {
	return f.name
}

// claimSearchResponse mirrors the fields of the claims:search reply that
// the adapter consumes.
type claimSearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// Verify searches published fact checks matching the claim text.
func (f *FactCheck) Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	start := time.Now()

	q := url.Values{}
	q.Set("query", claim.Normalized())
	q.Set("key", f.apiKey)
	if lang, ok := claim.Params["lang"]; ok {
		q.Set("languageCode", lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("fact check request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("fact check call: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return entity.ProviderCallResult{}, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var search claimSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("fact check decode: %w", err)
	}

	return f.fold(search, latency), nil
}

// fold combines the returned claim reviews into one judgment. With no
// reviews the claim is UNVERIFIABLE from this provider's point of view.
func (f *FactCheck) fold(search claimSearchResponse, latency time.Duration) entity.ProviderCallResult {
	votes := make(map[entity.Verdict]int)
	var sources []entity.Source
	var reasons []string
	reviews := 0

	for _, c := range search.Claims {
		for _, review := range c.ClaimReview {
			if reviews >= f.config.MaxReviews {
				break
			}
			reviews++

			verdict := mapTextualRating(review.TextualRating)
			votes[verdict]++
			if review.URL != "" {
				sources = append(sources, entity.Source{
					URL:      review.URL,
					Title:    review.Title,
					Provider: f.name,
				})
			}
			reasons = append(reasons, fmt.Sprintf("%s rated it %q", review.Publisher.Name, review.TextualRating))
		}
	}

	if reviews == 0 {
		return entity.ProviderCallResult{
			Provider:   f.name,
			Verdict:    entity.VerdictUnverifiable,
			Confidence: 0,
			Reasoning:  "no published fact checks found",
			Latency:    latency,
		}
	}

	best := entity.VerdictUnverifiable
	bestVotes := 0
	for verdict, n := range votes {
		if n > bestVotes {
			best, bestVotes = verdict, n
		}
	}

	// Confidence rises with reviewer agreement: unanimous reviews score
	// 90, an even split scores 45.
	confidence := 90 * float64(bestVotes) / float64(reviews)

	slog.Debug("fact check reviews folded",
		slog.String("provider", f.name),
		slog.Int("reviews", reviews),
		slog.String("verdict", string(best)))

	return entity.ProviderCallResult{
		Provider:   f.name,
		Verdict:    best,
		Confidence: confidence,
		Reasoning:  strings.Join(reasons, "; "),
		Sources:    sources,
		Latency:    latency,
	}
}

// mapTextualRating maps a publisher's free-text rating onto a verdict
// category. Unknown ratings fall back to MISLEADING when they signal
// partial truth and UNVERIFIABLE otherwise.
func mapTextualRating(rating string) entity.Verdict {
	r := strings.ToLower(rating)
	switch {
	case strings.Contains(r, "pants on fire"),
		strings.Contains(r, "false"),
		strings.Contains(r, "incorrect"),
		strings.Contains(r, "fake"),
		strings.Contains(r, "hoax"):
		return entity.VerdictFalse
	case strings.Contains(r, "mostly true"),
		strings.Contains(r, "half"),
		strings.Contains(r, "partly"),
		strings.Contains(r, "mixture"),
		strings.Contains(r, "misleading"),
		strings.Contains(r, "out of context"):
		return entity.VerdictMisleading
	case strings.Contains(r, "true"),
		strings.Contains(r, "correct"),
		strings.Contains(r, "accurate"):
		return entity.VerdictTrue
	default:
		return entity.VerdictUnverifiable
	}
}
