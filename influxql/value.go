package influxql

import (
	"fmt"
	"regexp"

	"github.com/asaidimu/go-influxql/core/query"
)

var (
	// durationPattern matches InfluxQL duration literals such as 20d or 500ms.
	durationPattern = regexp.MustCompile(`^\d+(u|µ|ms|s|m|h|d|w)$`)
	// identifierPattern matches group by terms that are quoted as identifiers.
	identifierPattern = regexp.MustCompile(`^\w+$`)
	// timeBucketPattern matches a time(...) group by term.
	timeBucketPattern = regexp.MustCompile(`(?i)^\s*time\s*\(.*\)\s*$`)
)

// isDuration reports whether s is a duration literal.
func isDuration(s string) bool {
	return durationPattern.MatchString(s)
}

// isTimeBucket reports whether a group by term buckets by time.
func isTimeBucket(term string) bool {
	return timeBucketPattern.MatchString(term)
}

// quoteLiteral wraps a string literal in single quotes. Embedded quotes are
// not escaped.
func quoteLiteral(s string) string {
	return "'" + s + "'"
}

// quoteIdentifier wraps an identifier in double quotes.
func quoteIdentifier(s string) string {
	return `"` + s + `"`
}

// renderValue renders the right-hand side of a condition.
func renderValue(v query.Value) (string, error) {
	switch val := v.(type) {
	case query.Expression:
		return string(val), nil
	case query.StringValue:
		if isDuration(string(val)) {
			return string(val), nil
		}
		return quoteLiteral(string(val)), nil
	case nil:
		return "", fmt.Errorf("condition value cannot be nil")
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// renderCondition translates a single condition into `field op value`.
func renderCondition(cond query.Condition) (string, error) {
	if !cond.Operator.IsValid() {
		return "", fmt.Errorf("unsupported comparison operator %q for field '%s'", cond.Operator, cond.Field)
	}
	value, err := renderValue(cond.Value)
	if err != nil {
		return "", fmt.Errorf("field '%s': %w", cond.Field, err)
	}
	return fmt.Sprintf("%s %s %s", cond.Field, cond.Operator, value), nil
}

// renderConditions renders each condition in order.
func renderConditions(conds []query.Condition) ([]string, error) {
	out := make([]string, 0, len(conds))
	for _, cond := range conds {
		clause, err := renderCondition(cond)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, nil
}
