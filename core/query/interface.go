// Package query defines the interfaces for generating dialect-specific query
// text from a QuerySpec.
package query

// QueryGeneratorFactory defines the interface for a factory that creates
// QueryGenerator instances for a named where-composition strategy.
type QueryGeneratorFactory interface {
	// CreateGenerator creates a new QueryGenerator using the given strategy
	// name (e.g. "grouped" or "flat").
	CreateGenerator(strategy string) (QueryGenerator, error)
}

// QueryGenerator defines the interface for compiling a QuerySpec into query
// text. Implementations validate the spec first and never return partial text
// alongside an error.
type QueryGenerator interface {
	// GenerateSelect compiles the spec into a single SELECT statement.
	GenerateSelect(spec *QuerySpec) (string, error)
}
