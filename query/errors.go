package query

import "fmt"

// BuildError reports a query that cannot be compiled against the bound
// schema: unknown field references, kind/operator mismatches, bad projections.
// Raised before any store interaction.
type BuildError struct {
	Field string
	Msg   string
}

func (e *BuildError) Error() string {
	if e.Field == "" {
		return "query: " + e.Msg
	}
	return fmt.Sprintf("query: field %q: %s", e.Field, e.Msg)
}

// EncodingError reports a vector that cannot be packed for its bound field.
// No bytes are produced when this is returned.
type EncodingError struct {
	Field string
	Want  int // field dims
	Got   int // supplied vector length
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("query: vector for field %q has %d components, field declares dims %d",
		e.Field, e.Got, e.Want)
}
