package query

import "github.com/vareon/searchdex/schema"

// FilterQuery returns records matching a boolean filter, with optional sort
// and paging. No similarity clause is involved.
type FilterQuery struct {
	filter       Filter
	returnFields []string
	sortBy       string
	sortDesc     bool
	hasSort      bool
	offset       int
	limit        int
	hasPaging    bool
}

// NewFilterQuery starts a filter query. A nil filter matches everything.
func NewFilterQuery(f Filter) *FilterQuery {
	return &FilterQuery{filter: f}
}

// Return restricts the response projection to the given fields.
func (q *FilterQuery) Return(fields ...string) *FilterQuery {
	q.returnFields = fields
	return q
}

// SortBy orders results by a schema field.
func (q *FilterQuery) SortBy(field string, desc bool) *FilterQuery {
	q.sortBy = field
	q.sortDesc = desc
	q.hasSort = true
	return q
}

// Paging sets the result window. Without it the window is [0, 10).
func (q *FilterQuery) Paging(offset, limit int) *FilterQuery {
	q.offset = offset
	q.limit = limit
	q.hasPaging = true
	return q
}

// Compile validates the filter and projection against the schema.
func (q *FilterQuery) Compile(s *schema.IndexSchema) (*Compiled, error) {
	if err := validateReturnFields(s, q.returnFields, false); err != nil {
		return nil, err
	}
	if q.hasSort {
		if err := resolveSort(s, q.sortBy, false); err != nil {
			return nil, err
		}
	}

	filterStr, err := CompileFilter(q.filter, s)
	if err != nil {
		return nil, err
	}

	c := &Compiled{
		Query:        filterStr,
		ReturnFields: append([]string(nil), q.returnFields...),
		Offset:       0,
		Limit:        10,
		HasLimit:     true,
	}
	if q.hasSort {
		c.SortBy = q.sortBy
		c.SortDesc = q.sortDesc
		c.HasSort = true
	}
	if q.hasPaging {
		c.Offset = q.offset
		c.Limit = q.limit
	}
	return c, nil
}

// CountQuery counts records matching a filter without returning documents.
type CountQuery struct {
	filter Filter
}

// NewCountQuery starts a count query. A nil filter counts everything.
func NewCountQuery(f Filter) *CountQuery {
	return &CountQuery{filter: f}
}

// Compile produces a query whose LIMIT 0 0 window returns only the total.
func (q *CountQuery) Compile(s *schema.IndexSchema) (*Compiled, error) {
	filterStr, err := CompileFilter(q.filter, s)
	if err != nil {
		return nil, err
	}
	return &Compiled{
		Query:    filterStr,
		Offset:   0,
		Limit:    0,
		HasLimit: true,
	}, nil
}
