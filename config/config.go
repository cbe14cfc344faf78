// Package config gathers the runtime settings of the compliance service from the
// environment and the optional jurisdiction catalogue.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// JurisdictionKind selects which adapter variant serves a jurisdiction
type JurisdictionKind string

const (
	KindExport JurisdictionKind = "export"
	KindImport JurisdictionKind = "import"
)

// SemanticBackend selects where semantic chunks are searched
type SemanticBackend string

const (
	BackendMemory   SemanticBackend = "memory"
	BackendPgvector SemanticBackend = "pgvector"
)

// JurisdictionConfig describes one supported country
type JurisdictionConfig struct {
	Name        string           `yaml:"name"`
	Aliases     []string         `yaml:"aliases"`
	Kind        JurisdictionKind `yaml:"kind"`
	Corpus      string           `yaml:"corpus"`      // directory in reference storage
	Regulations string           `yaml:"regulations"` // used in prompts and fallback reasons
	Note        string           `yaml:"note"`
	AllowRule   string           `yaml:"allowRule"` // CEL expression over policy and code
}

// Config holds all service configuration
type Config struct {
	Port            string
	LogLevel        string
	GeminiAPIKey    string
	GenerationModel string
	EmbeddingModel  string
	ProviderTimeout time.Duration
	ProviderRate    float64
	MaxOutputTokens int32
	ItemConcurrency int
	SemanticBackend SemanticBackend
	DatabaseURL     string
	Jurisdictions   []JurisdictionConfig
}

// DefaultJurisdictions is the built-in catalogue used when no file is configured
func DefaultJurisdictions() []JurisdictionConfig {
	return []JurisdictionConfig{
		{
			Name:        "INDIA",
			Kind:        KindExport,
			Corpus:      "india",
			Regulations: "export compliance regulations",
		},
		{
			Name:        "USA",
			Aliases:     []string{"US", "UNITED STATES"},
			Kind:        KindImport,
			Corpus:      "usa",
			Regulations: "USA import/export regulations",
		},
		{
			Name:        "CANADA",
			Kind:        KindImport,
			Corpus:      "usa",
			Regulations: "USA import/export regulations",
			Note:        "Canadian import compliance check simulated",
		},
	}
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GenerationModel: getEnv("GEMINI_GENERATION_MODEL", "gemini-1.5-flash"),
		EmbeddingModel:  getEnv("GEMINI_EMBEDDING_MODEL", "embedding-001"),
		ProviderTimeout: 10 * time.Second,
		ProviderRate:    5,
		MaxOutputTokens: 100,
		ItemConcurrency: 4,
		SemanticBackend: SemanticBackend(getEnv("SEMANTIC_BACKEND", string(BackendMemory))),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}

	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT %q: %w", v, err)
		}
		cfg.ProviderTimeout = d
	}
	if v := os.Getenv("PROVIDER_RATE_LIMIT"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_RATE_LIMIT %q: %w", v, err)
		}
		cfg.ProviderRate = rate
	}
	if v := os.Getenv("ITEM_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ITEM_CONCURRENCY %q: %w", v, err)
		}
		cfg.ItemConcurrency = n
	}

	cfg.Jurisdictions = DefaultJurisdictions()
	if path := os.Getenv("JURISDICTIONS_FILE"); path != "" {
		jurisdictions, err := LoadJurisdictions(path)
		if err != nil {
			return nil, err
		}
		cfg.Jurisdictions = jurisdictions
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadJurisdictions reads a YAML jurisdiction catalogue
func LoadJurisdictions(path string) ([]JurisdictionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jurisdictions file: %w", err)
	}
	return ParseJurisdictions(data)
}

// ParseJurisdictions decodes a catalogue of the form `jurisdictions: [...]`
func ParseJurisdictions(data []byte) ([]JurisdictionConfig, error) {
	var doc struct {
		Jurisdictions []JurisdictionConfig `yaml:"jurisdictions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse jurisdictions file: %w", err)
	}
	if len(doc.Jurisdictions) == 0 {
		return nil, errors.New("jurisdictions file declares no jurisdictions")
	}
	for i := range doc.Jurisdictions {
		j := &doc.Jurisdictions[i]
		j.Name = strings.ToUpper(strings.TrimSpace(j.Name))
		if j.Corpus == "" {
			j.Corpus = strings.ToLower(j.Name)
		}
		if j.Regulations == "" {
			j.Regulations = j.Name + " import/export regulations"
		}
	}
	return doc.Jurisdictions, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.ProviderTimeout <= 0 {
		return errors.New("provider timeout must be positive")
	}
	if c.ProviderRate <= 0 {
		return errors.New("provider rate limit must be positive")
	}
	if c.ItemConcurrency < 1 {
		return errors.New("item concurrency must be at least 1")
	}

	switch c.SemanticBackend {
	case BackendMemory:
	case BackendPgvector:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the pgvector semantic backend")
		}
	default:
		return fmt.Errorf("unknown semantic backend: %s", c.SemanticBackend)
	}

	seen := make(map[string]string)
	for _, j := range c.Jurisdictions {
		if j.Name == "" {
			return errors.New("jurisdiction name is required")
		}
		if j.Kind != KindExport && j.Kind != KindImport {
			return fmt.Errorf("jurisdiction %s: unknown kind %q", j.Name, j.Kind)
		}
		for _, name := range append([]string{j.Name}, j.Aliases...) {
			key := strings.ToUpper(strings.TrimSpace(name))
			if owner, ok := seen[key]; ok {
				return fmt.Errorf("jurisdiction name %q declared by both %s and %s", key, owner, j.Name)
			}
			seen[key] = j.Name
		}
	}
	return nil
}

// CorpusNames returns the distinct corpus directories referenced by the catalogue
func (c *Config) CorpusNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, j := range c.Jurisdictions {
		if !seen[j.Corpus] {
			seen[j.Corpus] = true
			names = append(names, j.Corpus)
		}
	}
	return names
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
