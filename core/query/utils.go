// Package query provides small helpers used when building query specs.
package query

// StringPtr is a helper function that returns a pointer to a string. It is
// used for the optional From and To bounds of a QuerySpec.
func StringPtr(s string) *string {
	return &s
}
