package query

import (
	"strconv"
	"strings"

	"github.com/vareon/searchdex/internal/vecpack"
	"github.com/vareon/searchdex/schema"
)

const vectorParam = "vector"

// VectorQuery is a K-nearest-neighbor similarity search against one vector
// field, optionally pre-filtered by a boolean Filter expression.
type VectorQuery struct {
	field        string
	vector       []float64
	k            int
	maxK         int
	filter       Filter
	returnFields []string
	efRuntime    int
	sortBy       string
	sortDesc     bool
	hasSort      bool
	offset       int
	limit        int
	hasPaging    bool
}

// NewVectorQuery starts a KNN query for the given vector field. K defaults
// to 10.
func NewVectorQuery(field string, vector []float64) *VectorQuery {
	return &VectorQuery{field: field, vector: vector, k: 10, maxK: DefaultMaxK}
}

// K sets the number of neighbors to return.
func (q *VectorQuery) K(k int) *VectorQuery {
	q.k = k
	return q
}

// MaxK overrides the upper bound K is validated against.
func (q *VectorQuery) MaxK(n int) *VectorQuery {
	q.maxK = n
	return q
}

// Filter restricts the candidate set before the KNN clause runs.
func (q *VectorQuery) Filter(f Filter) *VectorQuery {
	q.filter = f
	return q
}

// Return restricts the response projection to the given fields.
func (q *VectorQuery) Return(fields ...string) *VectorQuery {
	q.returnFields = fields
	return q
}

// EFRuntime sets the HNSW query-time candidate list size.
func (q *VectorQuery) EFRuntime(n int) *VectorQuery {
	q.efRuntime = n
	return q
}

// SortBy overrides the default distance-ascending ordering.
func (q *VectorQuery) SortBy(field string, desc bool) *VectorQuery {
	q.sortBy = field
	q.sortDesc = desc
	q.hasSort = true
	return q
}

// Paging sets the result window. Without it the window is [0, K).
func (q *VectorQuery) Paging(offset, limit int) *VectorQuery {
	q.offset = offset
	q.limit = limit
	q.hasPaging = true
	return q
}

// Compile validates the query against the schema and produces the KNN query
// string with the vector bound as a binary parameter, packed with the byte
// width the field spec declares.
func (q *VectorQuery) Compile(s *schema.IndexSchema) (*Compiled, error) {
	spec, err := resolveVectorField(s, q.field)
	if err != nil {
		return nil, err
	}
	if q.k <= 0 {
		return nil, &BuildError{Field: q.field, Msg: "k must be positive"}
	}
	if q.k > q.maxK {
		return nil, &BuildError{Field: q.field, Msg: "k exceeds maximum " + strconv.Itoa(q.maxK)}
	}
	if len(q.vector) != spec.Dims {
		return nil, &EncodingError{Field: q.field, Want: spec.Dims, Got: len(q.vector)}
	}
	if err := validateReturnFields(s, q.returnFields, true); err != nil {
		return nil, err
	}
	if q.hasSort {
		if err := resolveSort(s, q.sortBy, true); err != nil {
			return nil, err
		}
	}

	filterStr, err := CompileFilter(q.filter, s)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if filterStr == "*" {
		sb.WriteString("*=>")
	} else {
		sb.WriteByte('(')
		sb.WriteString(filterStr)
		sb.WriteString(")=>")
	}
	sb.WriteString("[KNN ")
	sb.WriteString(strconv.Itoa(q.k))
	sb.WriteString(" @")
	sb.WriteString(q.field)
	sb.WriteString(" $")
	sb.WriteString(vectorParam)
	if q.efRuntime > 0 {
		sb.WriteString(" EF_RUNTIME $EF")
	}
	sb.WriteString(" AS ")
	sb.WriteString(DistanceField)
	sb.WriteByte(']')

	packed, err := vecpack.Pack(q.vector, spec.DataType)
	if err != nil {
		return nil, err
	}

	c := &Compiled{
		Query:        sb.String(),
		Params:       []Param{{Name: vectorParam, Value: string(packed)}},
		ReturnFields: withDistanceProjection(q.returnFields),
		SortBy:       DistanceField,
		HasSort:      true,
		Offset:       0,
		Limit:        q.k,
		HasLimit:     true,
		WithDistance: true,
	}
	if q.efRuntime > 0 {
		c.Params = append(c.Params, Param{Name: "EF", Value: strconv.Itoa(q.efRuntime)})
	}
	if q.hasSort {
		c.SortBy = q.sortBy
		c.SortDesc = q.sortDesc
	}
	if q.hasPaging {
		c.Offset = q.offset
		c.Limit = q.limit
	}
	return c, nil
}

func resolveVectorField(s *schema.IndexSchema, field string) (schema.FieldSpec, error) {
	spec, ok := s.Field(field)
	if !ok {
		return schema.FieldSpec{}, &BuildError{Field: field, Msg: "unknown field"}
	}
	if spec.Kind != schema.KindVector {
		return schema.FieldSpec{}, &BuildError{
			Field: field,
			Msg:   "vector query requires a vector field, schema declares " + string(spec.Kind),
		}
	}
	return spec, nil
}

// withDistanceProjection appends the distance alias to an explicit projection
// so the store returns it alongside the requested fields.
func withDistanceProjection(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	for _, f := range fields {
		if f == DistanceField {
			out := make([]string, len(fields))
			copy(out, fields)
			return out
		}
	}
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields...)
	return append(out, DistanceField)
}
