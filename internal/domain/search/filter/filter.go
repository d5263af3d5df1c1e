// Package filter holds the structured pre-filter applied to facility retrieval.
package filter

import "fmt"

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 16

// Expression is a conjunctive filter: every condition must hold.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	seen := make(map[string]struct{}, len(must))
	for _, c := range must {
		if _, dup := seen[c.key]; dup {
			return Expression{}, fmt.Errorf("duplicate filter key %q", c.key)
		}
		seen[c.key] = struct{}{}
	}
	return Expression{must: must}, nil
}

// Equal builds an expression from field/value pairs, skipping empty values.
// Keys are processed in the given order so the rendered query is stable.
func Equal(pairs ...string) (Expression, error) {
	if len(pairs)%2 != 0 {
		return Expression{}, fmt.Errorf("filter pairs must be key/value")
	}
	var conds []Condition
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		c, err := NewMatch(pairs[i], pairs[i+1])
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return NewExpression(conds...)
}

// Must returns the conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Value returns the required value for key, or "".
func (e Expression) Value(key string) string {
	for _, c := range e.must {
		if c.key == key {
			return c.match
		}
	}
	return ""
}

// Condition is a single exact-equality clause on a tag field.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact tag match condition.
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
