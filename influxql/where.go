package influxql

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-influxql/core/query"
)

// Strategy names accepted by ParseStrategy.
const (
	StrategyGrouped = "grouped"
	StrategyFlat    = "flat"
)

// WhereStrategy decides how the conditions of a QuerySpec, explicit and
// implicit, are combined into the WHERE clause.
type WhereStrategy interface {
	// Name returns the strategy name.
	Name() string
	// Validate rejects specs whose conditions the strategy cannot express.
	Validate(spec *query.QuerySpec) error
	// Build renders the WHERE clause body, or "" when there are no conditions.
	Build(spec *query.QuerySpec) (string, error)
}

// ParseStrategy returns the strategy registered under name.
func ParseStrategy(name string) (WhereStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyGrouped, "":
		return GroupedStrategy(), nil
	case StrategyFlat:
		return FlatStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown where strategy '%s'", name)
	}
}

// implicitConditions synthesizes the time range conditions derived from the
// From and To bounds, in that order.
func implicitConditions(spec *query.QuerySpec) []query.Condition {
	var conds []query.Condition
	if spec.From != nil {
		conds = append(conds, query.NewCondition("time", query.OperatorGt, query.Expr(*spec.From)))
	}
	if spec.To != nil {
		conds = append(conds, query.NewCondition("time", query.OperatorLt, query.Expr(*spec.To)))
	}
	return conds
}

// nonEmptyGroups drops groups without conditions.
func nonEmptyGroups(w query.Where) []query.ConditionGroup {
	groups := make([]query.ConditionGroup, 0, len(w))
	for _, g := range w {
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

type groupedStrategy struct{}

// GroupedStrategy joins conditions within a group with AND and groups with
// OR. The implicit time range is ANDed in front of the whole disjunction.
func GroupedStrategy() WhereStrategy {
	return groupedStrategy{}
}

func (groupedStrategy) Name() string { return StrategyGrouped }

func (groupedStrategy) Validate(*query.QuerySpec) error { return nil }

func (groupedStrategy) Build(spec *query.QuerySpec) (string, error) {
	var groups []string
	for _, g := range nonEmptyGroups(spec.Where) {
		clauses, err := renderConditions(g)
		if err != nil {
			return "", err
		}
		groups = append(groups, strings.Join(clauses, " AND "))
	}

	implicit, err := renderConditions(implicitConditions(spec))
	if err != nil {
		return "", err
	}

	switch {
	case len(groups) == 0:
		return strings.Join(implicit, " AND "), nil
	case len(implicit) == 0:
		return strings.Join(groups, " OR "), nil
	}

	timeRange := implicit[0]
	if len(implicit) > 1 {
		timeRange = "(" + strings.Join(implicit, " AND ") + ")"
	}
	explicit := strings.Join(groups, " OR ")
	if len(groups) > 1 {
		// AND binds tighter than OR; keep the range global.
		explicit = "(" + explicit + ")"
	}
	return timeRange + " AND " + explicit, nil
}

type flatStrategy struct{}

// FlatStrategy joins every condition, explicit first and then the implicit
// time range, with a single lowercase "and".
func FlatStrategy() WhereStrategy {
	return flatStrategy{}
}

func (flatStrategy) Name() string { return StrategyFlat }

func (flatStrategy) Validate(spec *query.QuerySpec) error {
	if n := len(nonEmptyGroups(spec.Where)); n > 1 {
		return newValidationError(CodeDisjunctionUnsupported,
			"flat where strategy supports a single condition group, got %d", n)
	}
	return nil
}

func (flatStrategy) Build(spec *query.QuerySpec) (string, error) {
	var conds []query.Condition
	for _, g := range nonEmptyGroups(spec.Where) {
		conds = append(conds, g...)
	}
	conds = append(conds, implicitConditions(spec)...)

	clauses, err := renderConditions(conds)
	if err != nil {
		return "", err
	}
	return strings.Join(clauses, " and "), nil
}
