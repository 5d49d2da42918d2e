package jobs

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/job-board/pkg/query"
)

// Filters contains optional equality criteria for job queries.
type Filters struct {
	CompanyID *string
	Type      *string
	Remote    *string
	Status    *string
	Country   *string
	Limit     int
}

// FiltersFromQuery extracts filter values from URL query parameters.
// The limit defaults to max and never exceeds it; max <= 0 means unbounded.
func FiltersFromQuery(values url.Values, max int) Filters {
	opt := func(key string) *string {
		if v := values.Get(key); v != "" {
			return &v
		}
		return nil
	}

	f := Filters{
		CompanyID: opt("companyID"),
		Type:      opt("type"),
		Remote:    opt("remote"),
		Status:    opt("status"),
		Country:   opt("country"),
	}
	f.Limit = max
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n > 0 {
		if max <= 0 || n < max {
			f.Limit = n
		}
	}
	return f
}

// Query builds the jobs query for f, newest first.
func (f Filters) Query() query.Query {
	q := query.New(Collection)
	clauses := []struct {
		field string
		value *string
	}{
		{"companyID", f.CompanyID},
		{"type", f.Type},
		{"remote", f.Remote},
		{"status", f.Status},
		{"location.country", f.Country},
	}
	for _, c := range clauses {
		if c.value != nil {
			q = q.Where(c.field, query.Equal, *c.value)
		}
	}
	return q.OrderBy("createdAt", query.Desc).Take(f.Limit)
}
