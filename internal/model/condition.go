package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a demographic attribute name rules can test
type Field string

const (
	FieldAge               Field = "age"
	FieldNationality       Field = "nationality"
	FieldEmirate           Field = "emirate"
	FieldEmploymentStatus  Field = "employment_status"
	FieldIncome            Field = "income"
	FieldEducation         Field = "education"
	FieldTenure            Field = "tenure"
	FieldFamilyStatus      Field = "family_status"
	FieldHousing           Field = "housing"
	FieldFinancePreference Field = "finance_preference"
)

// Fields returns the demographic vocabulary
func Fields() []Field {
	return []Field{
		FieldAge, FieldNationality, FieldEmirate, FieldEmploymentStatus, FieldIncome,
		FieldEducation, FieldTenure, FieldFamilyStatus, FieldHousing, FieldFinancePreference,
	}
}

// Valid reports whether f belongs to the demographic vocabulary
func (f Field) Valid() bool {
	for _, known := range Fields() {
		if f == known {
			return true
		}
	}
	return false
}

// Operator compares a demographic attribute with a rule value
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpNotIn    Operator = "not_in"
	OpContains Operator = "contains"
)

// Valid reports whether op is a supported operator
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNotIn, OpContains:
		return true
	}
	return false
}

// Value is a typed demographic or rule value: a string, a number, or a list of strings
type Value struct {
	Str  string   `bson:"str,omitempty"`
	Num  *float64 `bson:"num,omitempty"`
	List []string `bson:"list,omitempty"`
}

// StringValue wraps s
func StringValue(s string) Value { return Value{Str: s} }

// NumberValue wraps n
func NumberValue(n float64) Value { return Value{Num: &n} }

// ListValue wraps items
func ListValue(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{List: items}
}

// IsZero reports whether the value carries nothing
func (v Value) IsZero() bool {
	return v.Str == "" && v.Num == nil && len(v.List) == 0
}

// IsList reports whether the value is a list
func (v Value) IsList() bool {
	return v.List != nil
}

// Number returns the numeric reading of v; strings are parsed
func (v Value) Number() (float64, bool) {
	if v.Num != nil {
		return *v.Num, true
	}
	if v.Str == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Strings returns the value as a list of strings
func (v Value) Strings() []string {
	if v.List != nil {
		return v.List
	}
	if v.IsZero() {
		return nil
	}
	return []string{v.String()}
}

func (v Value) String() string {
	switch {
	case v.List != nil:
		return strings.Join(v.List, ",")
	case v.Num != nil:
		return strconv.FormatFloat(*v.Num, 'f', -1, 64)
	default:
		return v.Str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.List != nil:
		return json.Marshal(v.List)
	case v.Num != nil:
		return json.Marshal(*v.Num)
	default:
		return json.Marshal(v.Str)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	switch {
	case v.List != nil:
		return v.List, nil
	case v.Num != nil:
		return *v.Num, nil
	default:
		return v.Str, nil
	}
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*v = ListValue(items...)
	case yaml.ScalarNode:
		if node.Tag == "!!int" || node.Tag == "!!float" {
			var n float64
			if err := node.Decode(&n); err != nil {
				return err
			}
			*v = NumberValue(n)
			return nil
		}
		*v = StringValue(node.Value)
	default:
		return fmt.Errorf("line %d: value must be a scalar or a list", node.Line)
	}
	return nil
}

func valueFromAny(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case bool:
		return StringValue(strconv.FormatBool(t)), nil
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			inner, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			if inner.IsList() {
				return Value{}, fmt.Errorf("nested lists are not supported")
			}
			items = append(items, inner.String())
		}
		return ListValue(items...), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

// Demographics is a respondent's attribute map keyed by demographic field
type Demographics map[Field]Value

// NodeKind tags a condition tree node
type NodeKind string

const (
	NodeLeaf NodeKind = "leaf"
	NodeAnd  NodeKind = "and"
	NodeOr   NodeKind = "or"
)

// Condition is a node of a boolean condition tree: a leaf comparison or an and/or combinator
type Condition struct {
	Kind     NodeKind    `bson:"kind"`
	Field    Field       `bson:"field,omitempty"`
	Operator Operator    `bson:"operator,omitempty"`
	Value    Value       `bson:"value,omitempty"`
	Children []Condition `bson:"children,omitempty"`
}

// Leaf builds a comparison node
func Leaf(field Field, op Operator, value Value) Condition {
	return Condition{Kind: NodeLeaf, Field: field, Operator: op, Value: value}
}

// And builds a node that holds when every child holds
func And(children ...Condition) Condition {
	return Condition{Kind: NodeAnd, Children: children}
}

// Or builds a node that holds when any child holds
func Or(children ...Condition) Condition {
	return Condition{Kind: NodeOr, Children: children}
}

type leafJSON struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
}

// MarshalJSON writes the compact form: {"and":[...]}, {"or":[...]} or {"field","operator","value"}
func (c Condition) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case NodeAnd, NodeOr:
		children := c.Children
		if children == nil {
			children = []Condition{}
		}
		return json.Marshal(map[string][]Condition{string(c.Kind): children})
	default:
		return json.Marshal(leafJSON{Field: c.Field, Operator: c.Operator, Value: c.Value})
	}
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, kind := range []NodeKind{NodeAnd, NodeOr} {
		body, ok := raw[string(kind)]
		if !ok {
			continue
		}
		var children []Condition
		if err := json.Unmarshal(body, &children); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		*c = Condition{Kind: kind, Children: children}
		return nil
	}
	if _, ok := raw["field"]; !ok {
		return fmt.Errorf("condition needs one of and, or, field")
	}
	var leaf leafJSON
	if err := json.Unmarshal(data, &leaf); err != nil {
		return err
	}
	*c = Leaf(leaf.Field, leaf.Operator, leaf.Value)
	return nil
}

// MarshalYAML writes the same compact form as MarshalJSON
func (c Condition) MarshalYAML() (interface{}, error) {
	switch c.Kind {
	case NodeAnd, NodeOr:
		children := c.Children
		if children == nil {
			children = []Condition{}
		}
		return map[string][]Condition{string(c.Kind): children}, nil
	default:
		return struct {
			Field    Field    `yaml:"field"`
			Operator Operator `yaml:"operator"`
			Value    Value    `yaml:"value"`
		}{c.Field, c.Operator, c.Value}, nil
	}
}

func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}
	for _, kind := range []NodeKind{NodeAnd, NodeOr} {
		body, ok := raw[string(kind)]
		if !ok {
			continue
		}
		var children []Condition
		if err := body.Decode(&children); err != nil {
			return err
		}
		*c = Condition{Kind: kind, Children: children}
		return nil
	}
	fieldNode, ok := raw["field"]
	if !ok {
		return fmt.Errorf("line %d: condition needs one of and, or, field", node.Line)
	}
	leaf := Condition{Kind: NodeLeaf, Field: Field(fieldNode.Value)}
	if opNode, ok := raw["operator"]; ok {
		leaf.Operator = Operator(opNode.Value)
	}
	if valueNode, ok := raw["value"]; ok {
		if err := valueNode.Decode(&leaf.Value); err != nil {
			return err
		}
	}
	*c = leaf
	return nil
}
