// Package policyeval evaluates approval-policy conditions against a
// command's evaluation context. It is deliberately NOT a general
// expression language: each condition names a dotted path into a fixed,
// whitelisted set of fields and one of a fixed set of operators. All
// conditions within a stage are AND-ed, per the core's design notes.
package policyeval

import (
	"fmt"
	"regexp"
	"strings"
)

// Operator is one of the whitelisted comparison operators a condition may use.
type Operator string

// Supported operators.
const (
	OpEQ      Operator = "EQ"
	OpNEQ     Operator = "NEQ"
	OpGT      Operator = "GT"
	OpGTE     Operator = "GTE"
	OpLT      Operator = "LT"
	OpLTE     Operator = "LTE"
	OpIN      Operator = "IN"
	OpNotIn   Operator = "NOT_IN"
	OpBetween Operator = "BETWEEN"
	OpMatches Operator = "MATCHES"
)

// Condition names a dotted path, an operator, and the operand(s) to compare against.
type Condition struct {
	Path     string
	Operator Operator
	Value    any
	Low      any
	High     any
}

// whitelist enumerates every dotted path a Condition may reference. Any
// path outside this set is rejected at Evaluate time rather than silently
// resolving to a zero value.
var whitelist = map[string]struct{}{
	"amount_minor":     {},
	"currency":         {},
	"txn_type":         {},
	"initiator_role":   {},
	"initiator_branch": {},
	"target_account_type": {},
	"target_agent_type":   {},
	"is_reversal":         {},
	"metadata":            {},
}

// Evaluate returns whether all conditions hold against ctx. A reference to
// a path outside the whitelist, or a type-incompatible comparison, is a
// hard error rather than a silent false.
func Evaluate(conditions []Condition, ctx map[string]any) (bool, error) {
	for _, cond := range conditions {
		ok, err := evaluateOne(cond, ctx)
		if err != nil {
			return false, err
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func evaluateOne(cond Condition, ctx map[string]any) (bool, error) {
	root, _, _ := strings.Cut(cond.Path, ".")
	if _, allowed := whitelist[root]; !allowed {
		return false, fmt.Errorf("policyeval: path %q is not whitelisted", cond.Path)
	}

	actual, ok := lookup(cond.Path, ctx)
	if !ok {
		return false, fmt.Errorf("policyeval: path %q not present in evaluation context", cond.Path)
	}

	switch cond.Operator {
	case OpEQ:
		return compareEqual(actual, cond.Value), nil
	case OpNEQ:
		return !compareEqual(actual, cond.Value), nil
	case OpGT, OpGTE, OpLT, OpLTE:
		return compareOrdered(cond.Operator, actual, cond.Value)
	case OpIN:
		return compareIn(actual, cond.Value), nil
	case OpNotIn:
		return !compareIn(actual, cond.Value), nil
	case OpBetween:
		geLow, err := compareOrdered(OpGTE, actual, cond.Low)
		if err != nil {
			return false, err
		}

		leHigh, err := compareOrdered(OpLTE, actual, cond.High)
		if err != nil {
			return false, err
		}

		return geLow && leHigh, nil
	case OpMatches:
		return compareMatches(actual, cond.Value)
	default:
		return false, fmt.Errorf("policyeval: unsupported operator %q", cond.Operator)
	}
}

func lookup(path string, ctx map[string]any) (any, bool) {
	parts := strings.Split(path, ".")

	var cur any = ctx

	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

func compareEqual(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareIn(actual, set any) bool {
	items, ok := set.([]any)
	if !ok {
		return false
	}

	for _, item := range items {
		if compareEqual(actual, item) {
			return true
		}
	}

	return false
}

func compareOrdered(op Operator, a, b any) (bool, error) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)

	if !aok || !bok {
		return false, fmt.Errorf("policyeval: operator %q requires numeric operands, got %T and %T", op, a, b)
	}

	switch op {
	case OpGT:
		return af > bf, nil
	case OpGTE:
		return af >= bf, nil
	case OpLT:
		return af < bf, nil
	case OpLTE:
		return af <= bf, nil
	default:
		return false, fmt.Errorf("policyeval: %q is not an ordered operator", op)
	}
}

// compareMatches applies pattern (a regular expression string) against
// actual, which must itself be a string.
func compareMatches(actual, pattern any) (bool, error) {
	actualStr, ok := actual.(string)
	if !ok {
		return false, fmt.Errorf("policyeval: MATCHES requires a string operand, got %T", actual)
	}

	patternStr, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("policyeval: MATCHES requires a string pattern, got %T", pattern)
	}

	re, err := regexp.Compile(patternStr)
	if err != nil {
		return false, fmt.Errorf("policyeval: invalid MATCHES pattern %q: %w", patternStr, err)
	}

	return re.MatchString(actualStr), nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
