package filter

import (
	"fmt"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 64

// Expression is a structured filter with must/should boolean semantics:
// every must condition holds and, when present, at least one should condition holds.
type Expression struct {
	must      []Condition
	should    []Condition
	matchNone bool
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should}, nil
}

// MatchNone returns an expression no document satisfies.
func MatchNone() Expression {
	return Expression{matchNone: true}
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// IsMatchNone reports whether the expression is vacuous and selects nothing.
func (e Expression) IsMatchNone() bool { return e.matchNone }

// IsEmpty reports whether the expression has no conditions (selects everything).
func (e Expression) IsEmpty() bool {
	return !e.matchNone && len(e.must) == 0 && len(e.should) == 0
}

// Matches evaluates the expression in process. values returns the stored values of a key.
func (e Expression) Matches(values func(key string) []string) bool {
	if e.matchNone {
		return false
	}
	for _, c := range e.must {
		if !c.matches(values) {
			return false
		}
	}
	if len(e.should) == 0 {
		return true
	}
	for _, c := range e.should {
		if c.matches(values) {
			return true
		}
	}
	return false
}

// String returns a debug representation.
func (e Expression) String() string {
	if e.matchNone {
		return "NONE"
	}
	if e.IsEmpty() {
		return "*"
	}
	parts := make([]string, 0, len(e.must)+1)
	for _, c := range e.must {
		parts = append(parts, c.String())
	}
	if len(e.should) > 0 {
		or := make([]string, 0, len(e.should))
		for _, c := range e.should {
			or = append(or, c.String())
		}
		parts = append(parts, "("+strings.Join(or, " | ")+")")
	}
	return strings.Join(parts, " ")
}

// Condition is a single exact-match clause against a multi-valued key.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// String returns a debug representation.
func (c Condition) String() string { return c.key + "=" + c.match }

func (c Condition) matches(values func(key string) []string) bool {
	for _, v := range values(c.key) {
		if v == c.match {
			return true
		}
	}
	return false
}
