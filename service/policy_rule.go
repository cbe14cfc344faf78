package service

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// DefaultAllowRule allows exactly the policies spelled "free", in any case
const DefaultAllowRule = `policy.matches("(?i)^free$")`

// PolicyRule decides whether a tariff policy permits the movement of goods.
// The expression sees two string variables: policy and code.
type PolicyRule struct {
	expression string
	program    cel.Program
}

var defaultPolicyRule = sync.OnceValues(func() (*PolicyRule, error) {
	return NewPolicyRule(DefaultAllowRule)
})

// DefaultPolicyRule returns the shared compiled default rule
func DefaultPolicyRule() *PolicyRule {
	rule, err := defaultPolicyRule()
	if err != nil {
		panic(fmt.Sprintf("default policy rule does not compile: %v", err))
	}
	return rule
}

// NewPolicyRule compiles a CEL expression; an empty expression selects the default
func NewPolicyRule(expression string) (*PolicyRule, error) {
	if expression == "" {
		expression = DefaultAllowRule
	}

	env, err := cel.NewEnv(
		cel.Variable("policy", cel.StringType),
		cel.Variable("code", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("policy rule must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast, cel.CostLimit(100000))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return &PolicyRule{expression: expression, program: program}, nil
}

// Expression returns the CEL source of the rule
func (r *PolicyRule) Expression() string {
	return r.expression
}

// Allows evaluates the rule for one tariff entry
func (r *PolicyRule) Allows(policy, code string) (bool, error) {
	out, _, err := r.program.Eval(map[string]any{
		"policy": policy,
		"code":   code,
	})
	if err != nil {
		return false, fmt.Errorf("policy rule evaluation failed: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy rule returned %T, want bool", out.Value())
	}
	return allowed, nil
}
