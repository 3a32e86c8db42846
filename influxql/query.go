// Package influxql compiles query.QuerySpec values into InfluxQL SELECT
// statements. It validates the spec, builds each clause and assembles them in
// the fixed order SELECT, FROM, WHERE, GROUP BY.
package influxql

import (
	"fmt"
	"strings"

	iql "github.com/influxdata/influxql"
	"go.uber.org/zap"

	"github.com/asaidimu/go-influxql/core/query"
)

// GeneratorOptions provides configuration for the query generator.
type GeneratorOptions struct {
	// SyntaxCheck parses every generated statement with the InfluxQL parser
	// and fails the compilation if it does not parse. Raw fields and
	// expressions are otherwise passed through unchecked.
	SyntaxCheck bool
}

// DefaultGeneratorOptions returns the options used when none are given.
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{}
}

// InfluxQLQueryGeneratorFactory implements query.QueryGeneratorFactory.
type InfluxQLQueryGeneratorFactory struct {
	logger  *zap.Logger
	options *GeneratorOptions
}

// Ensure the factory and generator implement the query interfaces.
var (
	_ query.QueryGeneratorFactory = (*InfluxQLQueryGeneratorFactory)(nil)
	_ query.QueryGenerator        = (*InfluxQLQuery)(nil)
)

// NewInfluxQLQueryGeneratorFactory creates a factory whose generators share
// the given logger and options.
func NewInfluxQLQueryGeneratorFactory(logger *zap.Logger, options *GeneratorOptions) *InfluxQLQueryGeneratorFactory {
	return &InfluxQLQueryGeneratorFactory{logger: logger, options: options}
}

// CreateGenerator creates a generator for the named where strategy.
func (f *InfluxQLQueryGeneratorFactory) CreateGenerator(strategy string) (query.QueryGenerator, error) {
	ws, err := ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	return NewInfluxQLQuery(ws, f.logger, f.options)
}

// InfluxQLQuery compiles QuerySpecs into InfluxQL text using a fixed where
// strategy. It holds no per-call state and is safe for concurrent use.
type InfluxQLQuery struct {
	strategy WhereStrategy
	options  *GeneratorOptions
	logger   *zap.Logger
}

// NewInfluxQLQuery creates a generator. A nil logger or options falls back to
// a no-op logger and the default options.
func NewInfluxQLQuery(strategy WhereStrategy, logger *zap.Logger, options *GeneratorOptions) (*InfluxQLQuery, error) {
	if strategy == nil {
		return nil, fmt.Errorf("where strategy cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &InfluxQLQuery{strategy: strategy, options: options, logger: logger}, nil
}

// Strategy returns the where strategy used by the generator.
func (q *InfluxQLQuery) Strategy() WhereStrategy {
	return q.strategy
}

// GenerateSelect validates the spec and compiles it into a SELECT statement.
// On failure no text is returned; validation failures are *ValidationError.
func (q *InfluxQLQuery) GenerateSelect(spec *query.QuerySpec) (string, error) {
	if spec == nil {
		return "", fmt.Errorf("QuerySpec cannot be nil")
	}

	if err := validate(spec, q.strategy); err != nil {
		q.logger.Warn("Rejected query spec",
			zap.Strings("measurements", spec.Measurements),
			zap.String("strategy", q.strategy.Name()),
			zap.Error(err))
		return "", err
	}

	whereSQL, err := q.strategy.Build(spec)
	if err != nil {
		return "", fmt.Errorf("error building WHERE clause: %w", err)
	}

	stmt := assemble(
		buildSelect(spec.Fields),
		buildFrom(spec.Measurements),
		whereSQL,
		buildGroupBy(spec.GroupBy),
	)

	if q.options.SyntaxCheck {
		if _, err := iql.ParseStatement(stmt); err != nil {
			return "", fmt.Errorf("generated query does not parse: %w", err)
		}
	}

	q.logger.Debug("Generated query",
		zap.String("strategy", q.strategy.Name()),
		zap.String("query", stmt))
	return stmt, nil
}

// BuildQuery compiles a spec with the grouped strategy and default options.
func BuildQuery(spec *query.QuerySpec) (string, error) {
	gen, err := NewInfluxQLQuery(GroupedStrategy(), nil, nil)
	if err != nil {
		return "", err
	}
	return gen.GenerateSelect(spec)
}

// buildSelect renders the projection; no fields selects everything.
func buildSelect(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	return strings.Join(fields, ",")
}

func buildFrom(measurements []string) string {
	return strings.Join(measurements, ",")
}

// buildGroupBy quotes plain identifiers and leaves function calls such as
// time(2d) untouched.
func buildGroupBy(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(terms))
	for _, term := range terms {
		if identifierPattern.MatchString(term) {
			rendered = append(rendered, quoteIdentifier(term))
		} else {
			rendered = append(rendered, term)
		}
	}
	return strings.Join(rendered, ",")
}

// assemble joins the clauses with single spaces, skipping the optional ones
// that are empty.
func assemble(selectSQL, fromSQL, whereSQL, groupBySQL string) string {
	var sb strings.Builder
	sb.WriteString("SELECT " + selectSQL)
	sb.WriteString(" FROM " + fromSQL)
	if whereSQL != "" {
		sb.WriteString(" WHERE " + whereSQL)
	}
	if groupBySQL != "" {
		sb.WriteString(" GROUP BY " + groupBySQL)
	}
	return sb.String()
}
