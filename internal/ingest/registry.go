package ingest

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Endpoint roles in the fallback chain.
const (
	RoleStatus   = "status"
	RoleTrigger  = "trigger"
	RoleEnhanced = "enhanced"
	RoleLegacy   = "legacy"
)

// Registry holds the configuration for all data sources.
type Registry struct {
	Endpoints []EndpointConfig `yaml:"endpoints"`
	Listings  []ListingConfig  `yaml:"listings"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 15
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Retries on 429/5xx only, default: 0
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
	ProxyURL       string  `yaml:"proxy_url,omitempty"`
	AcceptLanguage string  `yaml:"accept_language,omitempty"`
}

// EndpointConfig defines one remote JSON endpoint.
type EndpointConfig struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Role       string      `yaml:"role"`
	Priority   int         `yaml:"priority,omitempty"`
	Method     string      `yaml:"method"`
	URL        string      `yaml:"url"`
	Kind       SourceKind  `yaml:"kind,omitempty"`
	PayloadKey string      `yaml:"payload_key,omitempty"`
	Fetch      FetchConfig `yaml:"fetch,omitempty"`
}

type SelectorConfig struct {
	Container string `yaml:"container,omitempty"` // CSS selector for the list item wrapper
	Link      string `yaml:"link,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Summary   string `yaml:"summary,omitempty"`
	Amount    string `yaml:"amount,omitempty"`
	Deadline  string `yaml:"deadline,omitempty"`
}

// ListingConfig defines an HTML listing page scraped for extra records.
type ListingConfig struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Enabled     bool           `yaml:"enabled"`
	URL         string         `yaml:"url"`
	Country     string         `yaml:"country,omitempty"`
	FundingType string         `yaml:"funding_type,omitempty"`
	Selectors   SelectorConfig `yaml:"selectors"`
	Fetch       FetchConfig    `yaml:"fetch,omitempty"`
}

// registryDefaults fill ${VAR} references that are unset in the environment.
var registryDefaults = map[string]string{
	"INTELLIGENT_API_URL": "https://us-central1-unops-cameron.cloudfunctions.net",
	"LEGACY_API_URL":      "https://us-central1-unops-cameron.cloudfunctions.net/api-function",
}

// LoadRegistry reads the source registry. A non-empty path overrides the
// embedded sources.yaml.
func LoadRegistry(path string) (*Registry, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes registry YAML, expanding environment references.
func ParseRegistry(data []byte) (*Registry, error) {
	expanded := os.Expand(string(data), func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return registryDefaults[key]
	})

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("failed to parse source registry: %w", err)
	}
	for i := range reg.Endpoints {
		if reg.Endpoints[i].Method == "" {
			reg.Endpoints[i].Method = "GET"
		}
	}
	return &reg, nil
}

// ByRole returns endpoints for role ordered by priority.
func (r *Registry) ByRole(role string) []EndpointConfig {
	var out []EndpointConfig
	for _, e := range r.Endpoints {
		if e.Role == role {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// EnabledListings returns the listing sources switched on for this deployment.
func (r *Registry) EnabledListings() []ListingConfig {
	var out []ListingConfig
	for _, l := range r.Listings {
		if l.Enabled && l.URL != "" {
			out = append(out, l)
		}
	}
	return out
}
