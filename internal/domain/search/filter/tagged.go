package filter

import (
	"fmt"
	"strings"
)

// TaggedWith selects documents whose key contains tag.
func TaggedWith(key, tag string) (Expression, error) {
	return TaggedWithAll(key, []string{tag})
}

// TaggedWithAll selects documents whose key holds every given tag (superset).
// Nested lists are flattened; an empty list selects nothing.
func TaggedWithAll(key string, tags ...[]string) (Expression, error) {
	conds, err := matches(key, Flatten(tags...))
	if err != nil {
		return Expression{}, err
	}
	if len(conds) == 0 {
		return MatchNone(), nil
	}
	return NewExpression(conds, nil)
}

// TaggedWithAny selects documents whose key holds at least one given tag.
// Nested lists are flattened; an empty list selects nothing.
func TaggedWithAny(key string, tags ...[]string) (Expression, error) {
	conds, err := matches(key, Flatten(tags...))
	if err != nil {
		return Expression{}, err
	}
	if len(conds) == 0 {
		return MatchNone(), nil
	}
	return NewExpression(nil, conds)
}

// Flatten joins nested tag lists into one. Entries are trimmed the way stored
// tags are, and blank ones are dropped.
func Flatten(tags ...[]string) []string {
	var out []string
	for _, group := range tags {
		for _, t := range group {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func matches(key string, tags []string) ([]Condition, error) {
	conds := make([]Condition, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		c, err := NewMatch(key, t)
		if err != nil {
			return nil, fmt.Errorf("build tag condition: %w", err)
		}
		conds = append(conds, c)
	}
	return conds, nil
}
