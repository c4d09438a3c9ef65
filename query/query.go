// Package query builds structured, schema-validated search queries and
// compiles them into the store's FT.SEARCH syntax with bound parameters.
package query

import (
	"strconv"

	"github.com/vareon/searchdex/schema"
)

// DistanceField is the public name similarity distances are surfaced under.
// Compiled KNN and range clauses alias the store's internal distance field to
// this name, and result parsing reads it back.
const DistanceField = "vector_distance"

// DefaultMaxK bounds the K of a vector query unless overridden per query.
const DefaultMaxK = 10000

// dialect is the query dialect every compiled query pins. Parameterized
// vector clauses require dialect 2.
const dialect = 2

// Query is a structured search intent that compiles against a schema.
// Compilation is pure and idempotent: the same query and schema always yield
// an identical Compiled value, and the query itself is never mutated, so one
// query value may be compiled concurrently.
type Query interface {
	Compile(s *schema.IndexSchema) (*Compiled, error)
}

// Param is one bound query parameter. Parameters are ordered so compiled
// command output is byte-identical across compilations.
type Param struct {
	Name  string
	Value string
}

// Compiled is the store-ready form of a query: the query string, its bound
// parameters, and the deterministic trailing clauses.
type Compiled struct {
	Query        string
	Params       []Param
	ReturnFields []string
	SortBy       string
	SortDesc     bool
	HasSort      bool
	Offset       int
	Limit        int
	HasLimit     bool
	// WithDistance marks similarity queries; the parser extracts and renames
	// the distance alias for these.
	WithDistance bool
}

// Args assembles the full FT.SEARCH argument list for the given index.
// Clause order is fixed: RETURN, SORTBY, LIMIT, PARAMS, DIALECT.
func (c *Compiled) Args(index string) []string {
	args := []string{index, c.Query}

	if len(c.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(c.ReturnFields)))
		args = append(args, c.ReturnFields...)
	}

	if c.HasSort {
		dir := "ASC"
		if c.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", c.SortBy, dir)
	}

	if c.HasLimit {
		args = append(args, "LIMIT", strconv.Itoa(c.Offset), strconv.Itoa(c.Limit))
	}

	if len(c.Params) > 0 {
		args = append(args, "PARAMS", strconv.Itoa(len(c.Params)*2))
		for _, p := range c.Params {
			args = append(args, p.Name, p.Value)
		}
	}

	args = append(args, "DIALECT", strconv.Itoa(dialect))
	return args
}

// Float32s widens a float32 vector for the query constructors.
func Float32s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// validateReturnFields checks a projection against the schema. The distance
// alias is always a legal projection on similarity queries.
func validateReturnFields(s *schema.IndexSchema, fields []string, withDistance bool) error {
	for _, f := range fields {
		if withDistance && f == DistanceField {
			continue
		}
		if _, ok := s.Field(f); !ok {
			return &BuildError{Field: f, Msg: "unknown return field"}
		}
	}
	return nil
}

// resolveSort validates an explicit sort field against the schema.
func resolveSort(s *schema.IndexSchema, field string, withDistance bool) error {
	if withDistance && field == DistanceField {
		return nil
	}
	if _, ok := s.Field(field); !ok {
		return &BuildError{Field: field, Msg: "unknown sort field"}
	}
	return nil
}
