package influxql

import (
	"strings"

	"github.com/asaidimu/go-influxql/core/query"
)

// validate checks the structural preconditions of a spec, in order: at least
// one measurement, a time bound for time-bucketed grouping, and whatever the
// where strategy requires.
func validate(spec *query.QuerySpec, strategy WhereStrategy) error {
	if len(spec.Measurements) == 0 {
		return ErrNoMeasurements
	}

	for _, term := range spec.GroupBy {
		if isTimeBucket(term) && !hasTimeBound(spec) {
			return newValidationError(CodeMissingTimeBoundForGroupByTime,
				"GROUP BY %s requires a time condition in the WHERE clause", strings.TrimSpace(term))
		}
	}

	return strategy.Validate(spec)
}

// hasTimeBound reports whether the compiled WHERE clause will constrain time:
// either an explicit condition on the time field or an implicit lower bound
// from From.
func hasTimeBound(spec *query.QuerySpec) bool {
	if spec.From != nil {
		return true
	}
	for _, group := range spec.Where {
		for _, cond := range group {
			if isTimeField(cond.Field) {
				return true
			}
		}
	}
	return false
}

func isTimeField(field string) bool {
	return strings.EqualFold(strings.Trim(strings.TrimSpace(field), `"`), "time")
}
