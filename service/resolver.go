package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/vedu111/gorechitee/models"

	"go.uber.org/zap"
)

// Schedule binds a jurisdiction's corpus to the rules applied to it
type Schedule struct {
	Corpus      *models.ReferenceCorpus
	Regulations string // e.g. "USA import/export regulations"
	Rule        *PolicyRule
}

func (s Schedule) rule() *PolicyRule {
	if s.Rule != nil {
		return s.Rule
	}
	return DefaultPolicyRule()
}

// minContainedKeyLength guards the description-contains-key match against short common words
const minContainedKeyLength = 5

const partialMatchNote = "Found via partial match"

// CodeResolver maps a free-text description to an HS code.
//
// Substring stages return the first match in the corpus's lexical key order.
// Callers should not rely on which of several overlapping keys wins.
type CodeResolver struct {
	embedder  Embedder
	index     SemanticIndex
	topK      int
	explainer explainer
	logger    *zap.Logger
}

// ResolverOption is a functional option for CodeResolver
type ResolverOption func(*CodeResolver)

// ResolverWithProvider sets the provider used for embeddings and explanations
func ResolverWithProvider(p Provider) ResolverOption {
	return func(r *CodeResolver) {
		r.embedder = p
		r.explainer.generator = p
	}
}

// ResolverWithIndex sets the semantic index
func ResolverWithIndex(index SemanticIndex) ResolverOption {
	return func(r *CodeResolver) {
		r.index = index
	}
}

// ResolverWithTopK sets how many chunks are used as evidence
func ResolverWithTopK(k int) ResolverOption {
	return func(r *CodeResolver) {
		r.topK = k
	}
}

// ResolverWithMaxTokens bounds generated explanations
func ResolverWithMaxTokens(n int32) ResolverOption {
	return func(r *CodeResolver) {
		r.explainer.maxTokens = n
	}
}

// ResolverWithLogger sets the logger
func ResolverWithLogger(logger *zap.Logger) ResolverOption {
	return func(r *CodeResolver) {
		r.logger = logger
	}
}

// NewCodeResolver creates a resolver; without a provider it never embeds or generates
func NewCodeResolver(opts ...ResolverOption) *CodeResolver {
	r := &CodeResolver{
		index:     MemoryIndex{},
		topK:      DefaultTopK,
		explainer: explainer{maxTokens: 100},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.explainer.logger = r.logger
	return r
}

// Match runs the deterministic stages: provided code, item names, then HS descriptions
func (r *CodeResolver) Match(corpus *models.ReferenceCorpus, description, knownCode string) (models.Resolution, bool) {
	if code := strings.TrimSpace(knownCode); code != "" {
		return models.Resolution{Code: code, Stage: models.StageProvided}, true
	}

	if res, ok := r.MatchItemName(corpus, description); ok {
		return res, true
	}
	return r.MatchHSDescription(corpus, description)
}

// MatchItemName looks the description up in the item-name index, exactly then by containment
func (r *CodeResolver) MatchItemName(corpus *models.ReferenceCorpus, description string) (models.Resolution, bool) {
	query := models.NormalizeText(description)
	if query == "" {
		return models.Resolution{Stage: models.StageUnresolved}, false
	}

	if code, ok := corpus.ItemNames[query]; ok {
		return models.Resolution{Code: code, Stage: models.StageItemName, Query: query}, true
	}

	keys := corpus.ItemNameKeys()
	for _, key := range keys {
		if strings.Contains(key, query) {
			return models.Resolution{Code: corpus.ItemNames[key], Stage: models.StageItemNamePartial, Note: partialMatchNote, Query: query}, true
		}
	}
	for _, key := range keys {
		if len(key) > minContainedKeyLength && strings.Contains(query, key) {
			return models.Resolution{Code: corpus.ItemNames[key], Stage: models.StageItemNamePartial, Note: partialMatchNote, Query: query}, true
		}
	}

	return models.Resolution{Stage: models.StageUnresolved, Query: query}, false
}

// MatchHSDescription looks the description up among the tariff entry descriptions
func (r *CodeResolver) MatchHSDescription(corpus *models.ReferenceCorpus, description string) (models.Resolution, bool) {
	query := models.NormalizeText(description)
	if query == "" {
		return models.Resolution{Stage: models.StageUnresolved}, false
	}

	keys := corpus.HSCodeKeys()
	for _, code := range keys {
		if models.NormalizeText(corpus.HSCodes[code].Description) == query {
			return models.Resolution{Code: code, Stage: models.StageHSDescription, Query: query}, true
		}
	}
	for _, code := range keys {
		desc := models.NormalizeText(corpus.HSCodes[code].Description)
		if desc == "" {
			continue
		}
		if strings.Contains(desc, query) || strings.Contains(query, desc) {
			return models.Resolution{Code: code, Stage: models.StageHSDescriptionPartial, Note: partialMatchNote, Query: query}, true
		}
	}

	return models.Resolution{Stage: models.StageUnresolved, Query: query}, false
}

// Resolve runs the full waterfall. When no stage yields a code, the top semantic
// chunks are gathered as evidence and an explanation is attached as the reason.
func (r *CodeResolver) Resolve(ctx context.Context, sched Schedule, description, knownCode string) models.Resolution {
	if res, ok := r.Match(sched.Corpus, description, knownCode); ok {
		return res
	}

	query := models.NormalizeText(description)
	res := models.Resolution{Stage: models.StageUnresolved, Query: query}
	res.Evidence = r.Evidence(ctx, sched.Corpus, query)
	res.Reason = r.ExplainUnmatched(ctx, sched, query, res.Evidence)
	return res
}

// Evidence embeds the query and joins the content of the best-ranked chunks.
// Provider or index failures produce no evidence.
func (r *CodeResolver) Evidence(ctx context.Context, corpus *models.ReferenceCorpus, query string) string {
	if r.embedder == nil || r.index == nil || query == "" || len(corpus.Chunks) == 0 && !r.remoteIndex() {
		return ""
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("semantic lookup skipped", zap.String("corpus", corpus.Jurisdiction), zap.Error(err))
		return ""
	}

	chunks, err := r.index.Search(ctx, corpus, vector, r.topK)
	if err != nil {
		r.logger.Warn("semantic search failed", zap.String("corpus", corpus.Jurisdiction), zap.Error(err))
		return ""
	}

	var parts []string
	for _, c := range chunks {
		if math.IsInf(c.Similarity, -1) || strings.TrimSpace(c.Content) == "" {
			continue
		}
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// ExplainUnmatched produces the reason given for a description with no HS code
func (r *CodeResolver) ExplainUnmatched(ctx context.Context, sched Schedule, query, evidence string) string {
	prompt := fmt.Sprintf(
		"Given the description %q not found in %s, provide a short reason why this item might be restricted.",
		query, sched.Regulations)
	if evidence != "" {
		prompt += "\n\nRelevant regulatory excerpts:\n" + evidence
	}
	fallback := fmt.Sprintf(
		"No matching HS code found for description %q. Unable to determine a specific reason due to an AI processing error.",
		query)
	return r.explainer.explain(ctx, prompt, fallback)
}

func (r *CodeResolver) remoteIndex() bool {
	_, ok := r.index.(MemoryIndex)
	return !ok
}
