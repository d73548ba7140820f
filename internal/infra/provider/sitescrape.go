package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/resilience/retry"
)

// SiteScrapeConfig describes how to query and parse one fact-check site.
// Sites differ only in their search URL and markup, so one adapter serves
// any of them with per-site selectors.
type SiteScrapeConfig struct {
	// SearchURL is the site's search endpoint; the query is appended as
	// the "q" parameter unless QueryParam overrides it.
	SearchURL string

	// QueryParam is the search query parameter name. Default: "q".
	QueryParam string

	// ResultSelector matches one search result element.
	ResultSelector string

	// TitleSelector matches the result title within a result element.
	TitleSelector string

	// LinkSelector matches the anchor holding the article URL.
	LinkSelector string

	// RatingSelector matches the element carrying the site's rating text.
	RatingSelector string

	// MaxResults caps how many results are folded into one judgment.
	MaxResults int

	// Timeout is the maximum duration for the fetch.
	Timeout time.Duration
}

// SiteScrape verifies claims by scraping a fact-check site's search
// results with goquery. Scraped ratings are mapped onto verdict categories
// the same way API-sourced ratings are.
type SiteScrape struct {
	name   string
	client *http.Client
	config SiteScrapeConfig
}

// NewSiteScrape creates a scraping provider for one configured site.
func NewSiteScrape(name string, cfg SiteScrapeConfig) (*SiteScrape, error) {
	if cfg.SearchURL == "" {
		return nil, fmt.Errorf("site scrape provider %s: search URL is required", name)
	}
	if cfg.ResultSelector == "" {
		return nil, fmt.Errorf("site scrape provider %s: result selector is required", name)
	}
	if cfg.QueryParam == "" {
		cfg.QueryParam = "q"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &SiteScrape{
		name:   name,
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}, nil
}

// Name returns the provider's registry name.
func (s *SiteScrape) Name() string {
	return s.name
}

// Verify fetches the site's search results for the claim and folds the
// scraped ratings into one judgment.
func (s *SiteScrape) Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()

	searchURL, err := url.Parse(s.config.SearchURL)
	if err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("site scrape url: %w", err)
	}
	q := searchURL.Query()
	q.Set(s.config.QueryParam, claim.Normalized())
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("site scrape request: %w", err)
	}
	req.Header.Set("User-Agent", "claimcheck/1.0 (+fact verification)")

	resp, err := s.client.Do(req)
	if err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("site scrape fetch: %w", err)
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

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return entity.ProviderCallResult{}, fmt.Errorf("site scrape parse: %w", err)
	}

	return s.fold(doc, latency), nil
}

// fold walks the matched result elements and combines their ratings.
func (s *SiteScrape) fold(doc *goquery.Document, latency time.Duration) entity.ProviderCallResult {
	votes := make(map[entity.Verdict]int)
	var sources []entity.Source
	var reasons []string
	results := 0

	doc.Find(s.config.ResultSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if results >= s.config.MaxResults {
			return false
		}

		rating := strings.TrimSpace(sel.Find(s.config.RatingSelector).First().Text())
		if rating == "" {
			return true
		}
		results++

		verdict := mapTextualRating(rating)
		votes[verdict]++

		title := strings.TrimSpace(sel.Find(s.config.TitleSelector).First().Text())
		link, _ := sel.Find(s.config.LinkSelector).First().Attr("href")
		if link != "" {
			sources = append(sources, entity.Source{URL: link, Title: title, Provider: s.name})
		}
		reasons = append(reasons, fmt.Sprintf("%q rated %q", title, rating))
		return true
	})

	if results == 0 {
		return entity.ProviderCallResult{
			Provider:   s.name,
			Verdict:    entity.VerdictUnverifiable,
			Confidence: 0,
			Reasoning:  "no matching fact checks on site",
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

	// Scraped ratings are noisier than API reviews; cap below them.
	confidence := 75 * float64(bestVotes) / float64(results)

	return entity.ProviderCallResult{
		Provider:   s.name,
		Verdict:    best,
		Confidence: confidence,
		Reasoning:  strings.Join(reasons, "; "),
		Sources:    sources,
		Latency:    latency,
	}
}
