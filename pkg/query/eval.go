package query

import (
	"cmp"
	"encoding/json"
	"reflect"
	"slices"
)

// Normalize converts v into the JSON data model (map[string]any, []any,
// float64, string, bool, nil) so values from Go callers compare the same
// way as values decoded from storage.
func Normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup resolves a dotted field path inside data.
func Lookup(data map[string]any, field string) (any, bool) {
	var cur any = data
	for _, seg := range Path(field) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Match reports whether normalized data satisfies every filter. A filter on
// a missing field never matches.
func Match(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matchOne(data, f) {
			return false
		}
	}
	return true
}

// Orderable reports whether data has every field named by orders.
// Documents missing an order field are excluded from ordered results.
func Orderable(data map[string]any, orders []Order) bool {
	for _, o := range orders {
		if _, ok := Lookup(data, o.Field); !ok {
			return false
		}
	}
	return true
}

// CompareDocs orders two documents by the given clauses.
func CompareDocs(a, b map[string]any, orders []Order) int {
	for _, o := range orders {
		av, _ := Lookup(a, o.Field)
		bv, _ := Lookup(b, o.Field)
		c := Compare(av, bv)
		if o.Descending() {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Compare orders two normalized values the way Postgres orders jsonb.
// Values of different types order by type: null, string, number,
// boolean, array, object. Arrays order by length, then element by
// element. Objects order by pair count, then pair by pair with keys in
// jsonb storage order (shorter first, then bytewise). Strings compare
// bytewise, which matches Postgres under the C collation.
func Compare(a, b any) int {
	if c := cmp.Compare(rank(a), rank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		return cmp.Compare(av, b.(float64))
	case string:
		return cmp.Compare(av, b.(string))
	case []any:
		bv := b.([]any)
		if c := cmp.Compare(len(av), len(bv)); c != 0 {
			return c
		}
		for i := range av {
			if c := Compare(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return 0
	case map[string]any:
		bv := b.(map[string]any)
		if c := cmp.Compare(len(av), len(bv)); c != 0 {
			return c
		}
		ak, bk := storageKeys(av), storageKeys(bv)
		for i := range ak {
			if c := compareKeys(ak[i], bk[i]); c != 0 {
				return c
			}
			if c := Compare(av[ak[i]], bv[bk[i]]); c != 0 {
				return c
			}
		}
		return 0
	}
	return 0
}

func storageKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

func compareKeys(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// EqualValues reports deep equality of two normalized values.
func EqualValues(a, b any) bool {
	return rank(a) == rank(b) && reflect.DeepEqual(a, b)
}

func matchOne(data map[string]any, f Filter) bool {
	field, ok := Lookup(data, f.Field)
	if !ok {
		return false
	}
	value, err := Normalize(f.Value)
	if err != nil {
		return false
	}

	switch f.Op {
	case Equal:
		return EqualValues(field, value)
	case NotEqual:
		return !EqualValues(field, value)
	case Less, LessOrEqual, Greater, GreaterOrEqual:
		if rank(field) != rank(value) {
			return false
		}
		c := Compare(field, value)
		switch f.Op {
		case Less:
			return c < 0
		case LessOrEqual:
			return c <= 0
		case Greater:
			return c > 0
		default:
			return c >= 0
		}
	case In, NotIn:
		list, _ := value.([]any)
		found := slices.ContainsFunc(list, func(v any) bool { return EqualValues(field, v) })
		if f.Op == In {
			return found
		}
		return !found
	case ArrayContains:
		arr, ok := field.([]any)
		return ok && slices.ContainsFunc(arr, func(v any) bool { return EqualValues(v, value) })
	case ArrayContainsAny:
		arr, ok := field.([]any)
		list, _ := value.([]any)
		if !ok {
			return false
		}
		return slices.ContainsFunc(arr, func(v any) bool {
			return slices.ContainsFunc(list, func(w any) bool { return EqualValues(v, w) })
		})
	}
	return false
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 1
	case float64:
		return 2
	case bool:
		return 3
	case []any:
		return 4
	case map[string]any:
		return 5
	}
	return 6
}

func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
