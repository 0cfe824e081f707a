package models

import (
	"fmt"
	"strings"
	"time"
)

// FillKind selects an imputation strategy for missing values.
type FillKind string

const (
	FillMean    FillKind = "mean"
	FillMode    FillKind = "mode"
	FillForward FillKind = "forward_fill"
	FillLiteral FillKind = "literal"
)

// FillStrategy describes how missing values of one column are imputed.
// Literal is only consulted for FillLiteral.
type FillStrategy struct {
	Kind    FillKind `json:"kind"`
	Literal string   `json:"literal,omitempty"`
}

// FormatKind selects a per-column formatting transform.
type FormatKind string

const (
	FormatTitleCase   FormatKind = "title_case"
	FormatUpperCase   FormatKind = "upper_case"
	FormatLowerCase   FormatKind = "lower_case"
	FormatCleanSpaces FormatKind = "clean_spaces"
	FormatNumeric     FormatKind = "numeric"
	FormatPattern     FormatKind = "pattern"
)

// FormatRule describes a formatting transform for one column. Pattern and
// Replacement are only consulted for FormatPattern.
type FormatRule struct {
	Kind        FormatKind `json:"kind"`
	Pattern     string     `json:"pattern,omitempty"`
	Replacement string     `json:"replacement,omitempty"`
}

// Predicate is a boolean test over one row. Implementations form a closed
// set so rule configurations never carry executable expressions.
type Predicate interface {
	// Evaluate returns the predicate result for the row. It returns an
	// error when the referenced column is not present.
	Evaluate(row Row) (bool, error)
	// Describe returns a short human-readable form for logging.
	Describe() string
}

// NotIn matches rows whose column value is non-missing and outside the
// allowed set (compared on rendered string form).
type NotIn struct {
	Column string
	Values []string
}

func (p NotIn) Evaluate(row Row) (bool, error) {
	val, ok := row[p.Column]
	if !ok {
		return false, fmt.Errorf("column %q not found", p.Column)
	}
	if val.IsMissing() {
		return false, nil
	}
	text := val.Text()
	for _, allowed := range p.Values {
		if text == allowed {
			return false, nil
		}
	}
	return true, nil
}

func (p NotIn) Describe() string {
	return fmt.Sprintf("%s not in {%s}", p.Column, strings.Join(p.Values, ","))
}

// LessThan matches rows whose column value parses as a number below Bound.
type LessThan struct {
	Column string
	Bound  float64
}

func (p LessThan) Evaluate(row Row) (bool, error) {
	val, ok := row[p.Column]
	if !ok {
		return false, fmt.Errorf("column %q not found", p.Column)
	}
	f, numeric := val.Float()
	if !numeric {
		return false, nil
	}
	return f < p.Bound, nil
}

func (p LessThan) Describe() string {
	return fmt.Sprintf("%s < %g", p.Column, p.Bound)
}

// GreaterThan matches rows whose column value parses as a number above Bound.
type GreaterThan struct {
	Column string
	Bound  float64
}

func (p GreaterThan) Evaluate(row Row) (bool, error) {
	val, ok := row[p.Column]
	if !ok {
		return false, fmt.Errorf("column %q not found", p.Column)
	}
	f, numeric := val.Float()
	if !numeric {
		return false, nil
	}
	return f > p.Bound, nil
}

func (p GreaterThan) Describe() string {
	return fmt.Sprintf("%s > %g", p.Column, p.Bound)
}

// IsMissingPredicate matches rows whose column value is missing.
type IsMissingPredicate struct {
	Column string
}

func (p IsMissingPredicate) Evaluate(row Row) (bool, error) {
	val, ok := row[p.Column]
	if !ok {
		return false, fmt.Errorf("column %q not found", p.Column)
	}
	return val.IsMissing(), nil
}

func (p IsMissingPredicate) Describe() string {
	return fmt.Sprintf("%s is missing", p.Column)
}

// ActionKind selects the corrective action of a business rule.
type ActionKind string

const (
	ActionSetValue   ActionKind = "set_value"
	ActionMultiplyBy ActionKind = "multiply_by"
	ActionSetFlag    ActionKind = "set_flag"
)

// RuleAction describes what happens to matched rows. SetValue overwrites
// Column with Value; MultiplyBy multiplies a numeric Column by Factor
// (non-numeric cells are left as they are); SetFlag writes Value into a
// separate FlagColumn, declaring it on the dataset when absent.
type RuleAction struct {
	Kind       ActionKind `json:"kind"`
	Column     string     `json:"column"`
	FlagColumn string     `json:"flag_column,omitempty"`
	Value      string     `json:"value,omitempty"`
	Factor     float64    `json:"factor,omitempty"`
}

// BusinessRule is a named (predicate, action) pair applied conditionally
// to rows during improvement. Rule order is significant: later rules see
// the effects of earlier ones.
type BusinessRule struct {
	Name      string
	Predicate Predicate
	Action    RuleAction
}

// ImprovementConfig is the four-part declarative cleaning configuration
// for one dataset family.
type ImprovementConfig struct {
	CompletenessStrategies map[string]FillStrategy      `json:"completeness_strategies"`
	FormatRules            map[string]FormatRule        `json:"format_rules"`
	CodificationRules      map[string]map[string]string `json:"codification_rules"`
	BusinessRules          []BusinessRule               `json:"-"`
}

// ImprovementEntry is one audit-trail record of a corrective action.
type ImprovementEntry struct {
	Category  string    `json:"category"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// ImprovementSummary aggregates an improvement log by category.
type ImprovementSummary struct {
	TotalActions int            `json:"total_actions"`
	ByCategory   map[string]int `json:"by_category"`
}
