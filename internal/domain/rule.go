package domain

import (
	"fmt"
	"strings"
)

// Operator is a comparison applied as value <op> threshold.
type Operator string

const (
	OperatorLess           Operator = "<"
	OperatorGreater        Operator = ">"
	OperatorLessOrEqual    Operator = "<="
	OperatorGreaterOrEqual Operator = ">="
	OperatorEqual          Operator = "=="
	OperatorNotEqual       Operator = "!="
)

// Valid returns true when operator is supported.
func (o Operator) Valid() bool {
	switch o {
	case OperatorLess, OperatorGreater, OperatorLessOrEqual, OperatorGreaterOrEqual, OperatorEqual, OperatorNotEqual:
		return true
	default:
		return false
	}
}

// ParseOperator converts an operator code such as "<=" into an Operator.
func ParseOperator(code string) (Operator, error) {
	o := Operator(strings.TrimSpace(code))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, code)
	}
	return o, nil
}

// Compare evaluates value <op> threshold. An invalid operator never matches.
func (o Operator) Compare(value, threshold float64) bool {
	switch o {
	case OperatorLess:
		return value < threshold
	case OperatorGreater:
		return value > threshold
	case OperatorLessOrEqual:
		return value <= threshold
	case OperatorGreaterOrEqual:
		return value >= threshold
	case OperatorEqual:
		return value == threshold
	case OperatorNotEqual:
		return value != threshold
	default:
		return false
	}
}

// Rule flags observations where Parameter <Operator> Threshold holds.
type Rule struct {
	Parameter string   `json:"parameter" yaml:"parameter"`
	Threshold float64  `json:"threshold" yaml:"threshold"`
	Operator  Operator `json:"operator" yaml:"operator"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %g", r.Parameter, r.Operator, r.Threshold)
}

// Validate checks rule invariants.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Parameter) == "" {
		return fmt.Errorf("%w: empty parameter name", ErrInvalidParameter)
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperator, r.Operator)
	}
	return nil
}

// NewRules builds one rule per parameter from parallel vectors of parameter
// names, thresholds and operator codes.
func NewRules(params []string, thresholds []float64, operators []string) ([]Rule, error) {
	if len(thresholds) != len(params) || len(operators) != len(params) {
		return nil, fmt.Errorf("%w: %d parameters, %d thresholds, %d operators",
			ErrInvalidArity, len(params), len(thresholds), len(operators))
	}

	rules := make([]Rule, len(params))
	for i, p := range params {
		op, err := ParseOperator(operators[i])
		if err != nil {
			return nil, err
		}
		rules[i] = Rule{Parameter: p, Threshold: thresholds[i], Operator: op}
		if err := rules[i].Validate(); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// UniqueRules drops repeated rules, keeping the first occurrence. Identical
// rules would yield identical events with identical IDs.
func UniqueRules(rules []Rule) []Rule {
	seen := make(map[Rule]bool, len(rules))
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
