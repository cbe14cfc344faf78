package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vedu111/gorechitee/models"

	"go.uber.org/zap"
)

var (
	ErrMissingItemFields = errors.New("missing required fields: provide hsCode, itemName or itemDescription")
	ErrMissingLookup     = errors.New("missing required fields: provide either description or hsCode")
)

// Jurisdiction resolves and evaluates items against one country's schedule
type Jurisdiction interface {
	Name() string
	ResolveCode(ctx context.Context, description, knownCode string) (models.Resolution, error)
	EvaluateExport(ctx context.Context, q models.ItemQuery) (models.Verdict, error)
	EvaluateImport(ctx context.Context, q models.ItemQuery) (models.Verdict, error)
	LookupByDescription(ctx context.Context, description, hsCode string) (models.Verdict, error)
}

type direction string

const (
	directionExport direction = "export"
	directionImport direction = "import"
)

// authority holds what both adapter variants share
type authority struct {
	name      string
	schedule  Schedule
	note      string
	resolver  *CodeResolver
	evaluator *PolicyEvaluator
	explainer explainer
	logger    *zap.Logger
}

func (a *authority) Name() string {
	return a.name
}

// ResolveCode maps a description to a code through the resolver waterfall
func (a *authority) ResolveCode(ctx context.Context, description, knownCode string) (models.Resolution, error) {
	if strings.TrimSpace(description) == "" && strings.TrimSpace(knownCode) == "" {
		return models.Resolution{}, ErrMissingLookup
	}
	return a.resolver.Resolve(ctx, a.schedule, description, knownCode), nil
}

// ExportAuthority grants or refuses goods leaving the country. Denials carry a
// generated explanation; approvals carry standard conditions.
type ExportAuthority struct {
	authority
}

// EvaluateExport checks an item leaving the jurisdiction
func (a *ExportAuthority) EvaluateExport(ctx context.Context, q models.ItemQuery) (models.Verdict, error) {
	return a.check(ctx, q, directionExport)
}

// EvaluateImport checks an item entering the jurisdiction with the same schedule
func (a *ExportAuthority) EvaluateImport(ctx context.Context, q models.ItemQuery) (models.Verdict, error) {
	return a.check(ctx, q, directionImport)
}

// LookupByDescription resolves a description without evaluating it; a known
// code is evaluated directly
func (a *ExportAuthority) LookupByDescription(ctx context.Context, description, hsCode string) (models.Verdict, error) {
	if strings.TrimSpace(hsCode) != "" {
		return a.check(ctx, models.ItemQuery{HSCode: hsCode}, directionExport)
	}

	res, err := a.ResolveCode(ctx, description, "")
	if err != nil {
		return models.Verdict{}, err
	}
	if !res.Resolved() {
		return models.Verdict{Reason: res.Reason, QueriedDescription: res.Query}, nil
	}
	return models.Verdict{Status: true, HSCode: res.Code, Note: res.Note}, nil
}

func (a *ExportAuthority) check(ctx context.Context, q models.ItemQuery, dir direction) (models.Verdict, error) {
	code := strings.TrimSpace(q.HSCode)
	itemName := strings.TrimSpace(q.ItemName)
	itemDesc := strings.TrimSpace(q.ItemDescription)
	if code == "" && itemName == "" && itemDesc == "" {
		return models.Verdict{}, ErrMissingItemFields
	}

	if code == "" && itemName != "" {
		res, ok := a.resolver.MatchItemName(a.schedule.Corpus, itemName)
		if !ok {
			return models.Verdict{
				Reason: fmt.Sprintf(
					"Could not find an HS code matching item name: %s. Please provide a valid HS code.", itemName),
				QueriedItemName: itemName,
			}, nil
		}
		code = res.Code
	}

	if code == "" {
		res, ok := a.resolver.MatchHSDescription(a.schedule.Corpus, itemDesc)
		if !ok {
			evidence := a.resolver.Evidence(ctx, a.schedule.Corpus, res.Query)
			return models.Verdict{
				Reason:             a.resolver.ExplainUnmatched(ctx, a.schedule, res.Query, evidence),
				QueriedDescription: res.Query,
			}, nil
		}
		code = res.Code
	}

	result, err := a.evaluator.Evaluate(ctx, a.schedule, code)
	if err != nil {
		return models.Verdict{}, err
	}

	if !result.Exists {
		return models.Verdict{
			Reason:          result.Reason,
			QueriedHSCode:   code,
			QueriedItemName: itemName,
		}, nil
	}

	if result.Allowed {
		return models.Verdict{
			Status:          true,
			Allowed:         true,
			HSCode:          code,
			Policy:          result.Policy,
			Description:     result.Description,
			Conditions:      fmt.Sprintf("Standard %s conditions apply", dir),
			Note:            a.note,
			QueriedItemName: itemName,
		}, nil
	}

	prompt := fmt.Sprintf(
		"Given the HS code %s is not allowed for %s, provide a short reason why this item is restricted.", code, dir)
	fallback := fmt.Sprintf(
		"%s not allowed for HS Code %s with policy %s. Unable to determine a reason due to an AI processing error.",
		capitalize(string(dir)), code, result.Policy)

	a.logger.Info("item denied",
		zap.String("direction", string(dir)),
		zap.String("hsCode", code),
		zap.String("policy", result.Policy))

	return models.Verdict{
		HSCode:          code,
		Policy:          result.Policy,
		Description:     result.Description,
		Reason:          a.explainer.explain(ctx, prompt, fallback),
		QueriedItemName: itemName,
	}, nil
}

// ImportAuthority admits or refuses goods with templated reasons and an optional note
type ImportAuthority struct {
	authority
}

// EvaluateExport checks an item leaving the jurisdiction
func (a *ImportAuthority) EvaluateExport(ctx context.Context, q models.ItemQuery) (models.Verdict, error) {
	return a.check(ctx, q)
}

// EvaluateImport checks an item entering the jurisdiction
func (a *ImportAuthority) EvaluateImport(ctx context.Context, q models.ItemQuery) (models.Verdict, error) {
	return a.check(ctx, q)
}

// LookupByDescription evaluates a known code, or resolves the description and evaluates the result
func (a *ImportAuthority) LookupByDescription(ctx context.Context, description, hsCode string) (models.Verdict, error) {
	return a.check(ctx, models.ItemQuery{HSCode: hsCode, ItemDescription: description})
}

func (a *ImportAuthority) check(ctx context.Context, q models.ItemQuery) (models.Verdict, error) {
	code := strings.TrimSpace(q.HSCode)
	if code != "" {
		return a.evaluate(ctx, code, "")
	}

	description := q.ItemDescription
	if strings.TrimSpace(description) == "" {
		description = q.ItemName
	}
	if strings.TrimSpace(description) == "" {
		return models.Verdict{}, ErrMissingLookup
	}

	if len(a.schedule.Corpus.HSCodes) == 0 {
		return models.Verdict{Reason: "No HS codes available in the database"}, nil
	}

	res := a.resolver.Resolve(ctx, a.schedule, description, "")
	if !res.Resolved() {
		return models.Verdict{Reason: res.Reason, QueriedDescription: res.Query}, nil
	}
	return a.evaluate(ctx, res.Code, res.Note)
}

func (a *ImportAuthority) evaluate(ctx context.Context, code, matchNote string) (models.Verdict, error) {
	result, err := a.evaluator.Evaluate(ctx, a.schedule, code)
	if err != nil {
		return models.Verdict{}, err
	}

	if !result.Exists {
		return models.Verdict{Reason: result.Reason, QueriedHSCode: code}, nil
	}

	if result.Allowed {
		note := matchNote
		if a.note != "" {
			note = a.note
		}
		return models.Verdict{
			Status:      true,
			Allowed:     true,
			HSCode:      code,
			Policy:      result.Policy,
			Description: result.Description,
			Note:        note,
		}, nil
	}

	policy := result.Policy
	if strings.TrimSpace(policy) == "" {
		policy = "Restricted"
	}
	a.logger.Info("item denied",
		zap.String("hsCode", code),
		zap.String("policy", policy))

	return models.Verdict{
		HSCode:      code,
		Policy:      result.Policy,
		Description: result.Description,
		Note:        matchNote,
		Reason:      fmt.Sprintf("Import/export not allowed for HS Code %s with policy %s", code, policy),
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
