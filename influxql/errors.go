package influxql

import "fmt"

// Validation error codes.
const (
	CodeNoMeasurements                 = "NO_MEASUREMENTS"
	CodeMissingTimeBoundForGroupByTime = "MISSING_TIME_BOUND_FOR_GROUP_BY_TIME"
	CodeDisjunctionUnsupported         = "DISJUNCTION_UNSUPPORTED"
)

// ValidationError reports a QuerySpec that cannot be compiled. Code identifies
// the violated rule and Message is meant for humans.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches any ValidationError carrying the same code, so callers can test
// with errors.Is(err, ErrNoMeasurements).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

// Sentinel validation errors, for use with errors.Is.
var (
	ErrNoMeasurements = &ValidationError{
		Code:    CodeNoMeasurements,
		Message: "query must select from at least one measurement",
	}
	ErrMissingTimeBoundForGroupByTime = &ValidationError{
		Code:    CodeMissingTimeBoundForGroupByTime,
		Message: "GROUP BY time() requires a time condition in the WHERE clause",
	}
	ErrDisjunctionUnsupported = &ValidationError{
		Code:    CodeDisjunctionUnsupported,
		Message: "where strategy does not support OR-joined condition groups",
	}
)

func newValidationError(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}
