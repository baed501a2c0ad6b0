package engine

import (
	"fmt"
	"strings"

	"finhealth/internal/model"
)

// EvaluateCondition reports whether the condition tree holds for d.
// A nil tree always holds. A leaf whose field is missing from d is false.
func EvaluateCondition(c *model.Condition, d model.Demographics) bool {
	if c == nil {
		return true
	}
	return evaluate(*c, d)
}

func evaluate(c model.Condition, d model.Demographics) bool {
	switch c.Kind {
	case model.NodeAnd:
		for _, child := range c.Children {
			if !evaluate(child, d) {
				return false
			}
		}
		return true
	case model.NodeOr:
		for _, child := range c.Children {
			if evaluate(child, d) {
				return true
			}
		}
		return false
	case model.NodeLeaf, "":
		return evaluateLeaf(c, d)
	}
	return false
}

func evaluateLeaf(c model.Condition, d model.Demographics) bool {
	attr, ok := d[c.Field]
	if !ok || attr.IsZero() {
		return false
	}

	switch c.Operator {
	case model.OpEq:
		return valuesEqual(attr, c.Value)
	case model.OpNe:
		return !valuesEqual(attr, c.Value)
	case model.OpGt, model.OpGte, model.OpLt, model.OpLte:
		a, okA := attr.Number()
		b, okB := c.Value.Number()
		if !okA || !okB {
			return false
		}
		switch c.Operator {
		case model.OpGt:
			return a > b
		case model.OpGte:
			return a >= b
		case model.OpLt:
			return a < b
		default:
			return a <= b
		}
	case model.OpIn:
		return inList(attr, c.Value.Strings())
	case model.OpNotIn:
		return !inList(attr, c.Value.Strings())
	case model.OpContains:
		needle := c.Value.String()
		if attr.IsList() {
			for _, item := range attr.List {
				if strings.EqualFold(item, needle) {
					return true
				}
			}
			return false
		}
		return strings.Contains(strings.ToLower(attr.String()), strings.ToLower(needle))
	}
	return false
}

func valuesEqual(a, b model.Value) bool {
	if an, ok := a.Number(); ok {
		if bn, ok := b.Number(); ok {
			return an == bn
		}
	}
	return strings.EqualFold(strings.TrimSpace(a.String()), strings.TrimSpace(b.String()))
}

// inList reports whether attr (or any element of a list attribute) matches an item
func inList(attr model.Value, items []string) bool {
	for _, candidate := range attr.Strings() {
		for _, item := range items {
			if valuesEqual(model.StringValue(candidate), model.StringValue(item)) {
				return true
			}
		}
	}
	return false
}

// ValidateCondition rejects unknown kinds, fields and operators anywhere in the tree
func ValidateCondition(c model.Condition) error {
	switch c.Kind {
	case model.NodeAnd, model.NodeOr:
		for i, child := range c.Children {
			if err := ValidateCondition(child); err != nil {
				return fmt.Errorf("%s[%d]: %w", c.Kind, i, err)
			}
		}
		return nil
	case model.NodeLeaf, "":
		if !c.Field.Valid() {
			return fmt.Errorf("unknown demographic field %q", c.Field)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("unknown operator %q", c.Operator)
		}
		if c.Value.IsZero() {
			return fmt.Errorf("condition on %q has no value", c.Field)
		}
		return nil
	}
	return fmt.Errorf("unknown condition kind %q", c.Kind)
}
