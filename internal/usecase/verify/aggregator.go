package verify

import (
	"math"
	"sort"
	"time"

	"claimcheck/internal/domain/entity"
)

// AggregatorConfig tunes consensus aggregation.
type AggregatorConfig struct {
	// Quorum is the minimum number of voting providers required for full
	// confidence. Below it the final confidence is capped at
	// SingleSourceCeiling.
	Quorum int

	// SingleSourceCeiling is the maximum confidence a sub-quorum result
	// may report.
	SingleSourceCeiling float64
}

// DefaultAggregatorConfig returns the standard aggregation settings:
// quorum of two voters, sub-quorum confidence capped at 85.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Quorum:              2,
		SingleSourceCeiling: 85,
	}
}

// Aggregator combines per-provider judgments into a single weighted-consensus
// verdict. Each votable judgment contributes its provider's credibility
// weight multiplied by the reported confidence; the verdict with the largest
// accumulated weight wins, and the final confidence is that verdict's share
// of all accumulated weight.
type Aggregator struct {
	cfg      AggregatorConfig
	weightOf func(provider string) float64
}

// NewAggregator creates an aggregator that looks up credibility weights in
// the given registry.
func NewAggregator(cfg AggregatorConfig, registry *Registry) *Aggregator {
	if cfg.Quorum < 1 {
		cfg.Quorum = 1
	}
	if cfg.SingleSourceCeiling <= 0 || cfg.SingleSourceCeiling > 100 {
		cfg.SingleSourceCeiling = DefaultAggregatorConfig().SingleSourceCeiling
	}
	return &Aggregator{cfg: cfg, weightOf: registry.Weight}
}

// tally accumulates the vote mass for one verdict.
type tally struct {
	verdict     entity.Verdict
	weight      float64
	confidences []float64
}

// conservativeRank orders verdicts for tie-breaking: when vote mass and
// confidence spread are equal, prefer the more cautious verdict.
func conservativeRank(v entity.Verdict) int {
	switch v {
	case entity.VerdictMisleading:
		return 0
	case entity.VerdictFalse:
		return 1
	case entity.VerdictTrue:
		return 2
	default:
		return 3
	}
}

// variance returns the population variance of xs; zero for fewer than two
// samples.
func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return sq / float64(len(xs))
}

// Aggregate reduces the provider call results to a single verification
// result. The outcome is deterministic and independent of result order.
// With no votable judgments the verdict is UNVERIFIABLE at zero confidence.
func (a *Aggregator) Aggregate(claim entity.Claim, results []entity.ProviderCallResult, elapsed time.Duration) *entity.VerificationResult {
	res := &entity.VerificationResult{
		Claim:       claim.Text,
		Fingerprint: claim.Fingerprint(),
		Verdict:     entity.VerdictUnverifiable,
		Confidence:  0,
		Breakdown:   results,
		Elapsed:     elapsed,
		VerifiedAt:  time.Now().UTC(),
	}

	tallies := make(map[entity.Verdict]*tally)
	var total float64
	var voters int
	for _, r := range results {
		if !r.Verdict.Votable() || r.Confidence <= 0 {
			continue
		}
		w := a.weightOf(r.Provider) * r.Confidence
		if w <= 0 {
			continue
		}
		t, ok := tallies[r.Verdict]
		if !ok {
			t = &tally{verdict: r.Verdict}
			tallies[r.Verdict] = t
		}
		t.weight += w
		t.confidences = append(t.confidences, r.Confidence)
		total += w
		voters++
	}

	if total <= 0 {
		return res
	}

	candidates := make([]*tally, 0, len(tallies))
	for _, t := range tallies {
		candidates = append(candidates, t)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.weight != cj.weight {
			return ci.weight > cj.weight
		}
		vi, vj := variance(ci.confidences), variance(cj.confidences)
		if vi != vj {
			return vi < vj
		}
		return conservativeRank(ci.verdict) < conservativeRank(cj.verdict)
	})
	winner := candidates[0]

	confidence := winner.weight / total * 100
	if voters < a.cfg.Quorum && confidence > a.cfg.SingleSourceCeiling {
		confidence = a.cfg.SingleSourceCeiling
	}

	res.Verdict = winner.verdict
	res.Confidence = math.Round(confidence*100) / 100
	res.Sources = a.collectSources(results)
	return res
}

// collectSources unions the evidence sources of the providers that
// contributed votes, deduplicated by URL after ranking so a shared URL keeps
// its highest rank regardless of input order. Ordering is deterministic:
// provider credibility weight descending, then provider confidence
// descending, then provider name and URL.
func (a *Aggregator) collectSources(results []entity.ProviderCallResult) []entity.Source {
	type ranked struct {
		src        entity.Source
		weight     float64
		confidence float64
	}

	var all []ranked
	for _, r := range results {
		if !r.Verdict.Votable() || r.Confidence <= 0 {
			continue
		}
		w := a.weightOf(r.Provider)
		if w <= 0 {
			continue
		}
		for _, s := range r.Sources {
			if s.URL == "" {
				continue
			}
			all = append(all, ranked{src: s, weight: w, confidence: r.Confidence})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].weight != all[j].weight {
			return all[i].weight > all[j].weight
		}
		if all[i].confidence != all[j].confidence {
			return all[i].confidence > all[j].confidence
		}
		if all[i].src.Provider != all[j].src.Provider {
			return all[i].src.Provider < all[j].src.Provider
		}
		return all[i].src.URL < all[j].src.URL
	})

	seen := make(map[string]struct{}, len(all))
	out := make([]entity.Source, 0, len(all))
	for _, r := range all {
		if _, dup := seen[r.src.URL]; dup {
			continue
		}
		seen[r.src.URL] = struct{}{}
		out = append(out, r.src)
	}
	return out
}
