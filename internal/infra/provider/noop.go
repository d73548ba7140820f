package provider

import (
	"context"

	"claimcheck/internal/domain/entity"
)

// Noop is a provider that always answers UNVERIFIABLE with zero
// confidence. It stands in for providers whose credentials are not
// configured, keeping wiring uniform in development environments.
type Noop struct {
	name string
}

// NewNoop creates a new no-op provider.
func NewNoop(name string) *Noop {
	return &Noop{name: name}
}

// Name returns the provider's registry name.
func (n *Noop) Name() string {
	return n.name
}

// Verify returns an UNVERIFIABLE result without doing any work.
func (n *Noop) Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error) {
	return entity.ProviderCallResult{
		Provider:   n.name,
		Verdict:    entity.VerdictUnverifiable,
		Confidence: 0,
		Reasoning:  "provider not configured",
	}, nil
}
