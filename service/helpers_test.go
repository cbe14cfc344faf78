package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedu111/gorechitee/config"
	"github.com/vedu111/gorechitee/models"
)

// stubProvider is a deterministic Provider that records the prompts it receives
type stubProvider struct {
	mu        sync.Mutex
	text      string
	err       error
	embedding []float32
	embedErr  error
	prompts   []string
}

func (s *stubProvider) Generate(_ context.Context, prompt string, _ int32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	if s.embedding == nil {
		return []float32{1, 0, 0}, nil
	}
	return s.embedding, nil
}

func (s *stubProvider) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func indiaCorpus() *models.ReferenceCorpus {
	return models.NewReferenceCorpus("india",
		map[string]string{
			"T-Shirt":         "61091000",
			"blue t-shirt":    "61099090",
			"laptop computer": "84713010",
			"pen":             "96081019",
			"rifle":           "93019000",
		},
		map[string]models.HSEntry{
			"61091000": {Policy: "Free", Description: "T-shirts of cotton"},
			"61099090": {Policy: "Free", Description: "T-shirts of other textile materials"},
			"84713010": {Policy: "Free", Description: "Portable computers"},
			"85011011": {Policy: "Free", Description: "Micro motors"},
			"85012000": {Policy: "Restricted", Description: "Universal AC/DC motors"},
			"93019000": {Policy: "Prohibited", Description: "Military weapons"},
			"96081019": {Policy: "Free", Description: "Ball point pens"},
		},
		[]models.SemanticChunk{
			{Content: "Arms and ammunition require a licence.", Embedding: []float32{1, 0, 0}},
			{Content: "Textiles are freely exportable.", Embedding: []float32{0, 1, 0}},
			{Content: "Blank chunk.", Embedding: []float32{0, 0, 0}},
		},
	)
}

func usaCorpus() *models.ReferenceCorpus {
	return models.NewReferenceCorpus("usa",
		nil,
		map[string]models.HSEntry{
			"61091000": {Policy: "Free", Description: "T-shirts, singlets and other vests of cotton"},
			"84713010": {Policy: "free", Description: "Portable automatic data processing machines"},
			"93019000": {Policy: "", Description: "Military weapons"},
			"96081019": {Policy: "Restricted", Description: "Ball point pens"},
		},
		nil,
	)
}

func indiaSchedule() Schedule {
	return Schedule{Corpus: indiaCorpus(), Regulations: "export compliance regulations"}
}

func usaSchedule() Schedule {
	return Schedule{Corpus: usaCorpus(), Regulations: "USA import/export regulations"}
}

// newTestRegistry wires the built-in jurisdictions over the fixture corpora
func newTestRegistry(t *testing.T, provider Provider) *Registry {
	t.Helper()

	var gen Generator
	resolverOpts := []ResolverOption{}
	evaluatorOpts := []EvaluatorOption{}
	if provider != nil {
		gen = provider
		resolverOpts = append(resolverOpts, ResolverWithProvider(provider))
		evaluatorOpts = append(evaluatorOpts, EvaluatorWithGenerator(provider))
	}

	reg, err := BuildRegistry(config.DefaultJurisdictions(), RegistryDeps{
		Corpora: map[string]*models.ReferenceCorpus{
			"india": indiaCorpus(),
			"usa":   usaCorpus(),
		},
		Resolver:  NewCodeResolver(resolverOpts...),
		Evaluator: NewPolicyEvaluator(evaluatorOpts...),
		Generator: gen,
	})
	require.NoError(t, err)
	return reg
}
