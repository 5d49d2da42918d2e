// Package query describes document queries as ordered filter and order
// clauses, and translates them for each document store backend: SQL over
// JSONB columns (Builder) and in-process evaluation (Match, Sort).
package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidClause is returned for clauses no backend can execute.
var ErrInvalidClause = errors.New("query: invalid clause")

// Op is a comparison operator. The set mirrors the operators supported by
// Firestore so clauses translate one-to-one.
type Op string

const (
	Equal            Op = "=="
	NotEqual         Op = "!="
	Less             Op = "<"
	LessOrEqual      Op = "<="
	Greater          Op = ">"
	GreaterOrEqual   Op = ">="
	In               Op = "in"
	NotIn            Op = "not-in"
	ArrayContains    Op = "array-contains"
	ArrayContainsAny Op = "array-contains-any"
)

// Valid reports whether o is a known operator.
func (o Op) Valid() bool {
	switch o {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual,
		In, NotIn, ArrayContains, ArrayContainsAny:
		return true
	}
	return false
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter constrains Field (a dotted path) with Op against Value.
type Filter struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

// Order sorts by Field. The zero Direction sorts ascending.
type Order struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction,omitempty"`
}

// Descending reports whether the order sorts high to low.
func (o Order) Descending() bool {
	return o.Direction == Desc
}

// Query selects documents from one collection. Filters are conjunctive;
// orders apply in slice order. A Limit of zero means unlimited.
type Query struct {
	Collection string   `json:"collection"`
	Filters    []Filter `json:"filters,omitempty"`
	Orders     []Order  `json:"orders,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// New starts a query over collection.
func New(collection string) Query {
	return Query{Collection: collection}
}

// Where returns a copy of q with an additional filter.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy returns a copy of q with an additional sort key.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Direction: dir})
	return q
}

// Take returns a copy of q limited to n documents.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Validate checks the clauses that cannot be expressed by any backend.
// Field existence is never checked.
func (q Query) Validate() error {
	if q.Collection == "" || strings.Contains(q.Collection, "/") {
		return fmt.Errorf("%w: collection %q", ErrInvalidClause, q.Collection)
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("%w: empty filter field", ErrInvalidClause)
		}
		if !f.Op.Valid() {
			return fmt.Errorf("%w: operator %q", ErrInvalidClause, f.Op)
		}
		switch f.Op {
		case In, NotIn, ArrayContainsAny:
			if _, ok := asList(f.Value); !ok {
				return fmt.Errorf("%w: %s on %s requires a list value", ErrInvalidClause, f.Op, f.Field)
			}
		}
	}
	for _, o := range q.Orders {
		if o.Field == "" {
			return fmt.Errorf("%w: empty order field", ErrInvalidClause)
		}
		if o.Direction != "" && o.Direction != Asc && o.Direction != Desc {
			return fmt.Errorf("%w: direction %q", ErrInvalidClause, o.Direction)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidClause)
	}
	return nil
}

// Path splits a dotted field into its segments.
func Path(field string) []string {
	return strings.Split(field, ".")
}
