package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// conditionDoc is the document form of a Condition. Exactly one of Value or
// Expr is set.
type conditionDoc struct {
	Field string  `json:"field" yaml:"field"`
	Op    string  `json:"op" yaml:"op"`
	Value *string `json:"value,omitempty" yaml:"value,omitempty"`
	Expr  *string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

func (d conditionDoc) toCondition() (Condition, error) {
	if d.Field == "" {
		return Condition{}, fmt.Errorf("condition field cannot be empty")
	}
	op := Operator(d.Op)
	if !op.IsValid() {
		return Condition{}, fmt.Errorf("unsupported operator %q for field '%s'", d.Op, d.Field)
	}
	switch {
	case d.Value != nil && d.Expr != nil:
		return Condition{}, fmt.Errorf("condition on '%s' sets both value and expr", d.Field)
	case d.Value != nil:
		return Condition{Field: d.Field, Operator: op, Value: StringValue(*d.Value)}, nil
	case d.Expr != nil:
		return Condition{Field: d.Field, Operator: op, Value: Expression(*d.Expr)}, nil
	default:
		return Condition{}, fmt.Errorf("condition on '%s' has no value or expr", d.Field)
	}
}

func (c Condition) toDoc() (conditionDoc, error) {
	doc := conditionDoc{Field: c.Field, Op: string(c.Operator)}
	switch v := c.Value.(type) {
	case StringValue:
		s := string(v)
		doc.Value = &s
	case Expression:
		s := string(v)
		doc.Expr = &s
	default:
		return doc, fmt.Errorf("unsupported value type %T for field '%s'", c.Value, c.Field)
	}
	return doc, nil
}

// MarshalJSON encodes the condition as {"field", "op", "value"|"expr"}.
func (c Condition) MarshalJSON() ([]byte, error) {
	doc, err := c.toDoc()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a condition document and validates its operator.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var doc conditionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	cond, err := doc.toCondition()
	if err != nil {
		return err
	}
	*c = cond
	return nil
}

// MarshalYAML encodes the condition in the same shape as MarshalJSON.
func (c Condition) MarshalYAML() (any, error) {
	return c.toDoc()
}

// UnmarshalYAML decodes a condition mapping and validates its operator.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	var doc conditionDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	cond, err := doc.toCondition()
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = cond
	return nil
}

// UnmarshalJSON accepts either a list of conditions, read as a single group,
// or a list of condition lists.
func (w *Where) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("where must be a list: %w", err)
	}
	if len(items) == 0 {
		*w = nil
		return nil
	}

	nested := bytes.HasPrefix(bytes.TrimSpace(items[0]), []byte("["))
	if !nested {
		var group ConditionGroup
		if err := json.Unmarshal(data, &group); err != nil {
			return fmt.Errorf("where conditions: %w", err)
		}
		*w = Where{group}
		return nil
	}

	var groups []ConditionGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return fmt.Errorf("where groups: %w", err)
	}
	*w = groups
	return nil
}

// UnmarshalYAML accepts the same two shapes as UnmarshalJSON.
func (w *Where) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: where must be a sequence", value.Line)
	}
	if len(value.Content) == 0 {
		*w = nil
		return nil
	}

	if value.Content[0].Kind != yaml.SequenceNode {
		var group ConditionGroup
		if err := value.Decode(&group); err != nil {
			return err
		}
		*w = Where{group}
		return nil
	}

	var groups []ConditionGroup
	if err := value.Decode(&groups); err != nil {
		return err
	}
	*w = groups
	return nil
}
