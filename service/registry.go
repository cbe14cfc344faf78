package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vedu111/gorechitee/config"
	"github.com/vedu111/gorechitee/models"

	"go.uber.org/zap"
)

// ErrJurisdictionUnsupported is returned for countries with no registered adapter
var ErrJurisdictionUnsupported = errors.New("compliance check not implemented")

// Registry maps upper-cased country names and aliases to adapters
type Registry struct {
	byName map[string]Jurisdiction
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Jurisdiction)}
}

// Register adds an adapter under its name and any aliases
func (r *Registry) Register(j Jurisdiction, aliases ...string) error {
	for _, name := range append([]string{j.Name()}, aliases...) {
		key := registryKey(name)
		if key == "" {
			return errors.New("jurisdiction name is required")
		}
		if existing, ok := r.byName[key]; ok {
			return fmt.Errorf("jurisdiction %s already registered by %s", key, existing.Name())
		}
		r.byName[key] = j
	}
	return nil
}

// Lookup finds an adapter by case-insensitive name without touching any corpus
func (r *Registry) Lookup(name string) (Jurisdiction, error) {
	key := registryKey(name)
	if j, ok := r.byName[key]; ok {
		return j, nil
	}
	return nil, fmt.Errorf("%w for %s", ErrJurisdictionUnsupported, key)
}

// Names lists the registered names and aliases in order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func registryKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// RegistryDeps carries the shared collaborators of every adapter
type RegistryDeps struct {
	Corpora   map[string]*models.ReferenceCorpus
	Resolver  *CodeResolver
	Evaluator *PolicyEvaluator
	Generator Generator
	MaxTokens int32
	Logger    *zap.Logger
}

// BuildRegistry creates one adapter per catalogue entry
func BuildRegistry(cfgs []config.JurisdictionConfig, deps RegistryDeps) (*Registry, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTokens := deps.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 100
	}

	reg := NewRegistry()
	for _, cfg := range cfgs {
		corpus, ok := deps.Corpora[cfg.Corpus]
		if !ok {
			return nil, fmt.Errorf("jurisdiction %s: corpus %q not loaded", cfg.Name, cfg.Corpus)
		}

		rule, err := NewPolicyRule(cfg.AllowRule)
		if err != nil {
			return nil, fmt.Errorf("jurisdiction %s: %w", cfg.Name, err)
		}

		base := authority{
			name: registryKey(cfg.Name),
			schedule: Schedule{
				Corpus:      corpus,
				Regulations: cfg.Regulations,
				Rule:        rule,
			},
			note:      cfg.Note,
			resolver:  deps.Resolver,
			evaluator: deps.Evaluator,
			explainer: explainer{generator: deps.Generator, maxTokens: maxTokens, logger: logger},
			logger:    logger.With(zap.String("jurisdiction", registryKey(cfg.Name))),
		}

		var j Jurisdiction
		switch cfg.Kind {
		case config.KindExport:
			j = &ExportAuthority{authority: base}
		case config.KindImport:
			j = &ImportAuthority{authority: base}
		default:
			return nil, fmt.Errorf("jurisdiction %s: unknown kind %q", cfg.Name, cfg.Kind)
		}

		if err := reg.Register(j, cfg.Aliases...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
