package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vedu111/gorechitee/models"

	"go.uber.org/zap"
)

// PolicyEvaluator determines whether an HS code may move under a schedule
type PolicyEvaluator struct {
	explainer explainer
	logger    *zap.Logger
}

// EvaluatorOption is a functional option for PolicyEvaluator
type EvaluatorOption func(*PolicyEvaluator)

// EvaluatorWithGenerator sets the generator used for unknown-code explanations
func EvaluatorWithGenerator(g Generator) EvaluatorOption {
	return func(e *PolicyEvaluator) {
		e.explainer.generator = g
	}
}

// EvaluatorWithMaxTokens bounds generated explanations
func EvaluatorWithMaxTokens(n int32) EvaluatorOption {
	return func(e *PolicyEvaluator) {
		e.explainer.maxTokens = n
	}
}

// EvaluatorWithLogger sets the logger
func EvaluatorWithLogger(logger *zap.Logger) EvaluatorOption {
	return func(e *PolicyEvaluator) {
		e.logger = logger
	}
}

// NewPolicyEvaluator creates an evaluator
func NewPolicyEvaluator(opts ...EvaluatorOption) *PolicyEvaluator {
	e := &PolicyEvaluator{
		explainer: explainer{maxTokens: 100},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.explainer.logger = e.logger
	return e
}

// Evaluate looks the code up directly, then by chapter, and explains unknown codes
func (e *PolicyEvaluator) Evaluate(ctx context.Context, sched Schedule, code string) (models.ComplianceResult, error) {
	if res, ok, err := e.Lookup(sched, code); err != nil || ok {
		return res, err
	}

	prompt := fmt.Sprintf(
		"Given HS code %s that wasn't found in the %s database, provide a reason why this code might not be recognized. Limit your response to one short paragraph.",
		code, sched.Regulations)
	fallback := fmt.Sprintf(
		"The HS Code %s was not found in the %s. Please verify the code and try again.",
		code, sched.Regulations)

	return models.ComplianceResult{
		Exists:  false,
		Allowed: false,
		Reason:  e.explainer.explain(ctx, prompt, fallback),
	}, nil
}

// Lookup runs the deterministic stages only. ok is false when neither the code
// nor any entry of its chapter is known.
func (e *PolicyEvaluator) Lookup(sched Schedule, code string) (models.ComplianceResult, bool, error) {
	corpus := sched.Corpus
	rule := sched.rule()

	if entry, found := corpus.HSCodes[code]; found {
		allowed, err := rule.Allows(entry.Policy, code)
		if err != nil {
			return models.ComplianceResult{}, false, fmt.Errorf("evaluating %s: %w", code, err)
		}
		return models.ComplianceResult{
			Exists:      true,
			Allowed:     allowed,
			Policy:      entry.Policy,
			Description: entry.Description,
		}, true, nil
	}

	if len(code) < 2 {
		return models.ComplianceResult{}, false, nil
	}

	chapter := code[:2]
	label := chapter
	if len(code) >= 4 {
		label = code[:4]
	}

	var firstPolicy string
	matched := false
	for _, key := range corpus.HSCodeKeys() {
		if !strings.HasPrefix(key, label) && !strings.HasPrefix(key, chapter) {
			continue
		}
		entry := corpus.HSCodes[key]
		if !matched {
			firstPolicy = entry.Policy
			matched = true
		}
		allowed, err := rule.Allows(entry.Policy, key)
		if err != nil {
			return models.ComplianceResult{}, false, fmt.Errorf("evaluating %s: %w", key, err)
		}
		if allowed {
			return models.ComplianceResult{
				Exists:      true,
				Allowed:     true,
				Policy:      "Free",
				Description: fmt.Sprintf("Falls under chapter %s which has some free categories", label),
			}, true, nil
		}
	}

	if !matched {
		return models.ComplianceResult{}, false, nil
	}
	if strings.TrimSpace(firstPolicy) == "" {
		firstPolicy = "Restricted"
	}
	return models.ComplianceResult{
		Exists:      true,
		Allowed:     false,
		Policy:      firstPolicy,
		Description: fmt.Sprintf("Falls under chapter %s which has no free categories", label),
	}, true, nil
}
