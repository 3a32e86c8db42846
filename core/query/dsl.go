// Package query defines the declarative description of an InfluxQL select
// query. A QuerySpec names the measurements, fields, conditions, time range and
// grouping of a query; the influxql package compiles it into query text.
package query

import (
	"time"

	"github.com/influxdata/influxql"
)

// Operator is a comparison operator used in a Condition. Its value is the
// literal symbol written into the query text.
type Operator string

// Supported comparison operators.
const (
	OperatorEq  Operator = "="
	OperatorNeq Operator = "!="
	OperatorLt  Operator = "<"
	OperatorLte Operator = "<="
	OperatorGt  Operator = ">"
	OperatorGte Operator = ">="
)

// standardOperators is the set of all operators a Condition may carry.
var standardOperators = map[Operator]struct{}{
	OperatorEq:  {},
	OperatorNeq: {},
	OperatorLt:  {},
	OperatorLte: {},
	OperatorGt:  {},
	OperatorGte: {},
}

// IsValid reports whether o is one of the supported comparison operators.
func (o Operator) IsValid() bool {
	_, ok := standardOperators[o]
	return ok
}

// Value is the right-hand side of a Condition. It is a closed set: a
// StringValue or an Expression.
type Value interface {
	isValue()
}

// StringValue is a plain literal. It is single-quoted when rendered, unless it
// is a duration literal such as "20d".
type StringValue string

// Expression is raw query text (e.g. "now() - 2h") that is never quoted.
type Expression string

func (StringValue) isValue() {}
func (Expression) isValue()  {}

// String returns a literal value.
func String(s string) Value {
	return StringValue(s)
}

// Expr returns a raw expression value.
func Expr(s string) Value {
	return Expression(s)
}

// Duration returns an unquoted duration literal for d in its largest whole
// unit, e.g. 48h becomes "2d".
func Duration(d time.Duration) Value {
	return Expression(influxql.FormatDuration(d))
}

// Condition compares a field against a value.
type Condition struct {
	Field    string
	Operator Operator
	Value    Value
}

// NewCondition is shorthand for building a Condition.
func NewCondition(field string, operator Operator, value Value) Condition {
	return Condition{Field: field, Operator: operator, Value: value}
}

// ConditionGroup is a conjunction of conditions.
type ConditionGroup []Condition

// Where is a disjunction of condition groups. A query using a single
// conjunction holds exactly one group.
type Where []ConditionGroup

// Conditions returns the total number of conditions across all groups.
func (w Where) Conditions() int {
	n := 0
	for _, g := range w {
		n += len(g)
	}
	return n
}

// QuerySpec is the complete description of a select query.
type QuerySpec struct {
	// Measurements to select from. Required.
	Measurements []string `json:"measurements" yaml:"measurements"`
	// Fields or expressions to select. Empty selects all fields.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Where  Where    `json:"where,omitempty" yaml:"where,omitempty"`
	// From and To are raw time expressions contributing `time > From` and
	// `time < To` conditions.
	From    *string  `json:"from,omitempty" yaml:"from,omitempty"`
	To      *string  `json:"to,omitempty" yaml:"to,omitempty"`
	GroupBy []string `json:"group_by,omitempty" yaml:"group_by,omitempty"`
}
