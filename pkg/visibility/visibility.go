package visibility

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Rule types and operators understood by the default evaluator.
const (
	TypeVisible = "visible"
	OperatorEq  = "eq"
)

// ErrUnsupported reports a rule whose type or operator the evaluator does
// not handle. Callers skip such rules and leave the target untouched.
var ErrUnsupported = errors.New("visibility: unsupported rule")

// Condition compares the snapshot value at Key with Value.
type Condition struct {
	Key      string `json:"key"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Rule is the JSON payload carried in a field's Rules column.
type Rule struct {
	Type      string    `json:"type"`
	Condition Condition `json:"condition"`
}

// FieldRule binds a rule to the field whose wrapper it toggles.
type FieldRule struct {
	FieldID string
	Rule    Rule
}

// Parse decodes a JSON-encoded rule.
func Parse(raw string) (Rule, error) {
	var rule Rule
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &rule); err != nil {
		return Rule{}, fmt.Errorf("visibility: invalid rule %q: %w", raw, err)
	}
	return rule, nil
}

// Context provides the inputs a rule is evaluated against. Values is the
// live form snapshot keyed by field id.
type Context struct {
	Values map[string]string
}

// Evaluator decides whether a rule's target should be visible.
type Evaluator interface {
	Eval(rule Rule, ctx Context) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule Rule, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(rule Rule, ctx Context) (bool, error) {
	return fn(rule, ctx)
}

// Default evaluates visible/eq rules with strict string equality: a missing
// key or a non-string literal never matches.
var Default Evaluator = EvaluatorFunc(evalEquality)

func evalEquality(rule Rule, ctx Context) (bool, error) {
	if rule.Type != TypeVisible {
		return false, fmt.Errorf("%w: type %q", ErrUnsupported, rule.Type)
	}
	if rule.Condition.Operator != OperatorEq {
		return false, fmt.Errorf("%w: operator %q", ErrUnsupported, rule.Condition.Operator)
	}
	want, ok := rule.Condition.Value.(string)
	if !ok {
		return false, nil
	}
	got, ok := ctx.Values[rule.Condition.Key]
	return ok && got == want, nil
}
