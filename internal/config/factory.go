package config

import (
	"fmt"

	"claimcheck/internal/infra/provider"
	"claimcheck/internal/usecase/verify"
)

// BuildProvider constructs the provider adapter described by a registry
// spec. LLM providers without a resolvable API key degrade to a noop
// adapter so a missing key disables one provider instead of the service.
func BuildProvider(spec ProviderSpec) (provider.Provider, error) {
	switch spec.Kind {
	case KindClaude:
		key := spec.APIKey()
		if key == "" {
			return provider.NewNoop(spec.Name), nil
		}
		return provider.NewClaude(spec.Name, key, provider.DefaultClaudeConfig()), nil
	case KindOpenAI:
		key := spec.APIKey()
		if key == "" {
			return provider.NewNoop(spec.Name), nil
		}
		return provider.NewOpenAI(spec.Name, key, provider.DefaultOpenAIConfig()), nil
	case KindFactCheck:
		cfg := provider.DefaultFactCheckConfig()
		if spec.Endpoint != "" {
			cfg.Endpoint = spec.Endpoint
		}
		return provider.NewFactCheck(spec.Name, spec.APIKey(), cfg), nil
	case KindSiteScrape:
		return provider.NewSiteScrape(spec.Name, provider.SiteScrapeConfig{
			SearchURL:      spec.Endpoint,
			ResultSelector: spec.Selectors.Result,
			TitleSelector:  spec.Selectors.Title,
			LinkSelector:   spec.Selectors.Link,
			RatingSelector: spec.Selectors.Rating,
		})
	case KindNoop:
		return provider.NewNoop(spec.Name), nil
	default:
		return nil, fmt.Errorf("provider %s: unknown kind %q", spec.Name, spec.Kind)
	}
}

// BuildRegistry loads the provider registry file and constructs all
// configured providers.
func BuildRegistry(path string) (*verify.Registry, error) {
	specs, err := LoadProviders(path)
	if err != nil {
		return nil, err
	}

	registry := verify.NewRegistry()
	for _, spec := range specs {
		p, err := BuildProvider(spec)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p, spec.Weight); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
