package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider kinds understood by the registry file.
const (
	KindClaude     = "claude"
	KindOpenAI     = "openai"
	KindFactCheck  = "factcheck"
	KindSiteScrape = "sitescrape"
	KindNoop       = "noop"
)

// ProviderSpec describes one evidence provider in the registry file.
type ProviderSpec struct {
	// Name is the unique provider identifier used in logs, metrics, and
	// result breakdowns.
	Name string `yaml:"name"`

	// Kind selects the adapter implementation.
	Kind string `yaml:"kind"`

	// Weight is the credibility weight applied during aggregation.
	Weight float64 `yaml:"weight"`

	// APIKeyEnv names the environment variable holding the provider's
	// API key. The key itself never appears in the file.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Endpoint overrides the provider's default endpoint; for sitescrape
	// providers it is the search URL and is required.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Selectors configure HTML extraction for sitescrape providers.
	Selectors SelectorSpec `yaml:"selectors,omitempty"`
}

// SelectorSpec holds CSS selectors for scraping fact-check sites.
type SelectorSpec struct {
	Result string `yaml:"result"`
	Title  string `yaml:"title"`
	Link   string `yaml:"link"`
	Rating string `yaml:"rating"`
}

// providersFile is the registry file's top-level document.
type providersFile struct {
	Providers []ProviderSpec `yaml:"providers"`
}

// APIKey resolves the provider's API key from the environment. Empty when
// no env var is configured or the variable is unset.
func (s ProviderSpec) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// LoadProviders reads and validates the YAML provider registry.
func LoadProviders(path string) ([]ProviderSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	return ParseProviders(data)
}

// ParseProviders parses and validates provider registry YAML.
func ParseProviders(data []byte) ([]ProviderSpec, error) {
	var doc providersFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	if len(doc.Providers) == 0 {
		return nil, fmt.Errorf("providers file defines no providers")
	}

	seen := make(map[string]struct{}, len(doc.Providers))
	for i, spec := range doc.Providers {
		if spec.Name == "" {
			return nil, fmt.Errorf("provider %d: name is required", i)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("provider %s: duplicate name", spec.Name)
		}
		seen[spec.Name] = struct{}{}

		if spec.Weight <= 0 || spec.Weight > 1 {
			return nil, fmt.Errorf("provider %s: weight must be in (0, 1], got %g", spec.Name, spec.Weight)
		}

		switch spec.Kind {
		case KindClaude, KindOpenAI, KindFactCheck, KindNoop:
		case KindSiteScrape:
			if spec.Endpoint == "" {
				return nil, fmt.Errorf("provider %s: sitescrape requires an endpoint", spec.Name)
			}
			if spec.Selectors.Result == "" {
				return nil, fmt.Errorf("provider %s: sitescrape requires selectors", spec.Name)
			}
		default:
			return nil, fmt.Errorf("provider %s: unknown kind %q", spec.Name, spec.Kind)
		}
	}

	return doc.Providers, nil
}
