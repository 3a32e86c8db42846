// Package query provides a fluent API for building QuerySpec values, so that
// callers do not have to assemble condition groups by hand.
package query

import (
	"slices"
)

// QueryBuilder provides a fluent API for building QuerySpec structures.
// Conditions added with Where accumulate in the current group; Or starts a
// new group.
type QueryBuilder struct {
	query QuerySpec
}

// NewQueryBuilder creates a new builder selecting from the given measurements.
func NewQueryBuilder(measurements ...string) *QueryBuilder {
	return &QueryBuilder{
		query: QuerySpec{Measurements: measurements},
	}
}

// Build returns the constructed QuerySpec. The returned spec shares no slices
// with the builder.
func (qb *QueryBuilder) Build() QuerySpec {
	spec := cloneSpec(qb.query)
	// Or leaves a trailing empty group open.
	spec.Where = slices.DeleteFunc(spec.Where, func(g ConditionGroup) bool {
		return len(g) == 0
	})
	if len(spec.Where) == 0 {
		spec.Where = nil
	}
	return spec
}

// Clone creates a deep copy of the builder so that a query can be derived from
// an existing one without modifying the original.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{query: cloneSpec(qb.query)}
}

// Reset clears everything except the measurements.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = QuerySpec{Measurements: qb.query.Measurements}
	return qb
}

// From appends measurements to select from.
func (qb *QueryBuilder) From(measurements ...string) *QueryBuilder {
	qb.query.Measurements = append(qb.query.Measurements, measurements...)
	return qb
}

// Select appends fields or expressions to the projection.
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	qb.query.Fields = append(qb.query.Fields, fields...)
	return qb
}

// GroupBy appends grouping terms, e.g. "host" or "time(5m)".
func (qb *QueryBuilder) GroupBy(terms ...string) *QueryBuilder {
	qb.query.GroupBy = append(qb.query.GroupBy, terms...)
	return qb
}

// Since sets the lower time bound expression.
func (qb *QueryBuilder) Since(from string) *QueryBuilder {
	qb.query.From = StringPtr(from)
	return qb
}

// Until sets the upper time bound expression.
func (qb *QueryBuilder) Until(to string) *QueryBuilder {
	qb.query.To = StringPtr(to)
	return qb
}

// Between sets both time bound expressions.
func (qb *QueryBuilder) Between(from, to string) *QueryBuilder {
	return qb.Since(from).Until(to)
}

// Or closes the current condition group. Conditions added afterwards form a
// new group, joined to the previous ones by OR.
func (qb *QueryBuilder) Or() *QueryBuilder {
	if n := len(qb.query.Where); n > 0 && len(qb.query.Where[n-1]) > 0 {
		qb.query.Where = append(qb.query.Where, ConditionGroup{})
	}
	return qb
}

// Where begins a condition on the given field.
func (qb *QueryBuilder) Where(field string) *ConditionBuilder {
	return &ConditionBuilder{parent: qb, field: field}
}

// ConditionBuilder builds a single condition. It is part of the fluent API
// and is not intended to be used directly.
type ConditionBuilder struct {
	parent *QueryBuilder
	field  string
}

// Eq adds an equality condition.
func (cb *ConditionBuilder) Eq(value Value) *QueryBuilder {
	return cb.addCondition(OperatorEq, value)
}

// Neq adds a not-equal condition.
func (cb *ConditionBuilder) Neq(value Value) *QueryBuilder {
	return cb.addCondition(OperatorNeq, value)
}

// Lt adds a less-than condition.
func (cb *ConditionBuilder) Lt(value Value) *QueryBuilder {
	return cb.addCondition(OperatorLt, value)
}

// Lte adds a less-than-or-equal condition.
func (cb *ConditionBuilder) Lte(value Value) *QueryBuilder {
	return cb.addCondition(OperatorLte, value)
}

// Gt adds a greater-than condition.
func (cb *ConditionBuilder) Gt(value Value) *QueryBuilder {
	return cb.addCondition(OperatorGt, value)
}

// Gte adds a greater-than-or-equal condition.
func (cb *ConditionBuilder) Gte(value Value) *QueryBuilder {
	return cb.addCondition(OperatorGte, value)
}

// addCondition appends the condition to the current group, opening the first
// group if none exists yet.
func (cb *ConditionBuilder) addCondition(operator Operator, value Value) *QueryBuilder {
	q := &cb.parent.query
	if len(q.Where) == 0 {
		q.Where = append(q.Where, ConditionGroup{})
	}
	last := len(q.Where) - 1
	q.Where[last] = append(q.Where[last], Condition{
		Field:    cb.field,
		Operator: operator,
		Value:    value,
	})
	return cb.parent
}

func cloneSpec(s QuerySpec) QuerySpec {
	out := QuerySpec{
		Measurements: slices.Clone(s.Measurements),
		Fields:       slices.Clone(s.Fields),
		GroupBy:      slices.Clone(s.GroupBy),
	}
	if s.From != nil {
		out.From = StringPtr(*s.From)
	}
	if s.To != nil {
		out.To = StringPtr(*s.To)
	}
	if s.Where != nil {
		out.Where = make(Where, 0, len(s.Where))
		for _, g := range s.Where {
			out.Where = append(out.Where, slices.Clone(g))
		}
	}
	return out
}
