package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Columns selected by Builder queries, in scan order.
const Columns = "id, data, created_at, updated_at"

const fieldExpr = "data #> $%d::text[]"

type condition struct {
	clause string
	args   []any
}

// Builder constructs SQL over a table of JSONB documents with the shape
// (collection, id, data, created_at, updated_at). Placeholders are written
// as $%d and numbered when the statement is built.
type Builder struct {
	table      string
	conditions []condition
	orders     []Order
	limit      int
	err        error
}

// NewBuilder creates a Builder over table.
func NewBuilder(table string) *Builder {
	return &Builder{
		table:      table,
		conditions: make([]condition, 0),
	}
}

// FromQuery creates a Builder with every clause of q applied.
func FromQuery(table string, q Query) *Builder {
	b := NewBuilder(table).WhereCollection(q.Collection)
	for _, f := range q.Filters {
		b.Where(f)
	}
	for _, o := range q.Orders {
		b.OrderBy(o)
	}
	return b.Limit(q.Limit)
}

// WhereCollection restricts rows to one collection.
func (b *Builder) WhereCollection(collection string) *Builder {
	b.conditions = append(b.conditions, condition{
		clause: "collection = $%d",
		args:   []any{collection},
	})
	return b
}

// Where adds a filter clause. Range operators only match values of the
// same JSON type as the operand.
func (b *Builder) Where(f Filter) *Builder {
	if !f.Op.Valid() {
		b.fail(fmt.Errorf("%w: operator %q", ErrInvalidClause, f.Op))
		return b
	}

	value, err := json.Marshal(f.Value)
	if err != nil {
		b.fail(fmt.Errorf("%w: encode %s: %v", ErrInvalidClause, f.Field, err))
		return b
	}
	path := Path(f.Field)
	operand := string(value)

	var c condition
	switch f.Op {
	case Equal:
		c = condition{fieldExpr + " = $%d::jsonb", []any{path, operand}}
	case NotEqual:
		c = condition{fieldExpr + " <> $%d::jsonb", []any{path, operand}}
	case Less, LessOrEqual, Greater, GreaterOrEqual:
		c = condition{
			"(jsonb_typeof(" + fieldExpr + ") = jsonb_typeof($%d::jsonb) AND " +
				fieldExpr + " " + string(f.Op) + " $%d::jsonb)",
			[]any{path, operand, path, operand},
		}
	case In:
		c = condition{
			"EXISTS (SELECT 1 FROM jsonb_array_elements($%d::jsonb) AS v WHERE v = " + fieldExpr + ")",
			[]any{operand, path},
		}
	case NotIn:
		c = condition{
			"(" + fieldExpr + " IS NOT NULL AND NOT EXISTS (SELECT 1 FROM jsonb_array_elements($%d::jsonb) AS v WHERE v = " + fieldExpr + "))",
			[]any{path, operand, path},
		}
	case ArrayContains:
		c = condition{
			"(CASE WHEN jsonb_typeof(" + fieldExpr + ") = 'array' THEN EXISTS (SELECT 1 FROM jsonb_array_elements(" +
				fieldExpr + ") AS e WHERE e = $%d::jsonb) ELSE false END)",
			[]any{path, path, operand},
		}
	case ArrayContainsAny:
		c = condition{
			"(CASE WHEN jsonb_typeof(" + fieldExpr + ") = 'array' THEN EXISTS (SELECT 1 FROM jsonb_array_elements(" +
				fieldExpr + ") AS e, jsonb_array_elements($%d::jsonb) AS v WHERE e = v) ELSE false END)",
			[]any{path, path, operand},
		}
	}

	b.conditions = append(b.conditions, c)
	return b
}

// OrderBy appends a sort key. Rows missing the field are excluded.
func (b *Builder) OrderBy(o Order) *Builder {
	b.orders = append(b.orders, o)
	b.conditions = append(b.conditions, condition{
		clause: fieldExpr + " IS NOT NULL",
		args:   []any{Path(o.Field)},
	})
	return b
}

// Limit caps the number of rows. Zero means unlimited.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// BuildSelect returns the SELECT statement, its arguments, and any error
// recorded while adding clauses.
func (b *Builder) BuildSelect() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	where, args, next := b.buildWhere(1)
	orderBy, orderArgs := b.buildOrderBy(next)
	args = append(args, orderArgs...)

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s", Columns, b.table, where, orderBy)
	if b.limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", b.limit)
	}
	return sql, args, nil
}

// BuildSingle returns a SELECT for one document.
func (b *Builder) BuildSingle(collection, id string) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE collection = $1 AND id = $2",
		Columns,
		b.table,
	)
	return sql, []any{collection, id}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) buildOrderBy(startParam int) (string, []any) {
	keys := make([]string, 0, len(b.orders)+1)
	args := make([]any, 0, len(b.orders))
	paramIdx := startParam

	for _, o := range b.orders {
		dir := "ASC"
		if o.Descending() {
			dir = "DESC"
		}
		keys = append(keys, fmt.Sprintf("data #> $%d::text[] %s", paramIdx, dir))
		args = append(args, Path(o.Field))
		paramIdx++
	}
	keys = append(keys, "id ASC")

	return " ORDER BY " + strings.Join(keys, ", "), args
}

func (b *Builder) buildWhere(startParam int) (string, []any, int) {
	if len(b.conditions) == 0 {
		return "", nil, startParam
	}

	clauses := make([]string, 0, len(b.conditions))
	args := make([]any, 0)
	paramIdx := startParam

	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", paramIdx), 1)
			args = append(args, arg)
			paramIdx++
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, paramIdx
}
