package companies

import (
	"net/url"

	"github.com/JaimeStill/job-board/pkg/query"
)

// Filters contains optional criteria for company queries.
type Filters struct {
	CreatedBy *string
	Name      *string
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if v := values.Get("createdBy"); v != "" {
		f.CreatedBy = &v
	}
	if v := values.Get("name"); v != "" {
		f.Name = &v
	}
	return f
}

// Query builds the companies query for f, ordered by name.
func (f Filters) Query() query.Query {
	q := query.New(Collection)
	if f.CreatedBy != nil {
		q = q.Where("createdBy", query.Equal, *f.CreatedBy)
	}
	if f.Name != nil {
		q = q.Where("name", query.Equal, *f.Name)
	}
	return q.OrderBy("name", query.Asc)
}
