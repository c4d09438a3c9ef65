package query

import (
	"strings"

	"github.com/vareon/searchdex/internal/vecpack"
	"github.com/vareon/searchdex/schema"
)

const radiusParam = "distance_threshold"

// RangeQuery returns every record whose vector lies within a distance
// threshold of the query vector, optionally intersected with a Filter.
type RangeQuery struct {
	field        string
	vector       []float64
	radius       float64
	filter       Filter
	returnFields []string
	offset       int
	limit        int
	hasPaging    bool
}

// NewRangeQuery starts a vector range query for the given field. The distance
// threshold defaults to 0.2.
func NewRangeQuery(field string, vector []float64) *RangeQuery {
	return &RangeQuery{field: field, vector: vector, radius: 0.2}
}

// Radius sets the distance threshold.
func (q *RangeQuery) Radius(r float64) *RangeQuery {
	q.radius = r
	return q
}

// Filter intersects the range clause with a boolean filter.
func (q *RangeQuery) Filter(f Filter) *RangeQuery {
	q.filter = f
	return q
}

// Return restricts the response projection to the given fields.
func (q *RangeQuery) Return(fields ...string) *RangeQuery {
	q.returnFields = fields
	return q
}

// Paging sets the result window. Without it the window is [0, 10).
func (q *RangeQuery) Paging(offset, limit int) *RangeQuery {
	q.offset = offset
	q.limit = limit
	q.hasPaging = true
	return q
}

// Compile produces the VECTOR_RANGE query string with the vector and the
// threshold bound as parameters.
func (q *RangeQuery) Compile(s *schema.IndexSchema) (*Compiled, error) {
	spec, err := resolveVectorField(s, q.field)
	if err != nil {
		return nil, err
	}
	if q.radius <= 0 {
		return nil, &BuildError{Field: q.field, Msg: "distance threshold must be positive"}
	}
	if len(q.vector) != spec.Dims {
		return nil, &EncodingError{Field: q.field, Want: spec.Dims, Got: len(q.vector)}
	}
	if err := validateReturnFields(s, q.returnFields, true); err != nil {
		return nil, err
	}

	filterStr, err := CompileFilter(q.filter, s)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	rangeClause := "@" + q.field + ":[VECTOR_RANGE $" + radiusParam + " $" + vectorParam +
		"]=>{$yield_distance_as: " + DistanceField + "}"
	if filterStr == "*" {
		sb.WriteString(rangeClause)
	} else {
		sb.WriteByte('(')
		sb.WriteString(rangeClause)
		sb.WriteByte(' ')
		sb.WriteString(filterStr)
		sb.WriteByte(')')
	}

	packed, err := vecpack.Pack(q.vector, spec.DataType)
	if err != nil {
		return nil, err
	}

	c := &Compiled{
		Query: sb.String(),
		Params: []Param{
			{Name: radiusParam, Value: formatNum(q.radius)},
			{Name: vectorParam, Value: string(packed)},
		},
		ReturnFields: withDistanceProjection(q.returnFields),
		SortBy:       DistanceField,
		HasSort:      true,
		Offset:       0,
		Limit:        10,
		HasLimit:     true,
		WithDistance: true,
	}
	if q.hasPaging {
		c.Offset = q.offset
		c.Limit = q.limit
	}
	return c, nil
}
