package query_test

import (
	"reflect"
	"slices"
	"testing"

	"github.com/JaimeStill/job-board/pkg/query"
)

func fixture() map[string]map[string]any {
	docs := map[string]map[string]any{
		"a": {"status": "active", "createdAt": "2024-01-01T00:00:00Z", "salary": map[string]any{"amount": 3000}, "tags": []string{"go", "remote"}},
		"b": {"status": "closed", "createdAt": "2024-02-01T00:00:00Z", "salary": map[string]any{"amount": 5000}, "tags": []string{"rust"}},
		"c": {"status": "active", "createdAt": "2024-03-01T00:00:00Z", "salary": map[string]any{"amount": "unknown"}},
		"d": {"status": "active"},
	}
	out := make(map[string]map[string]any, len(docs))
	for id, d := range docs {
		n, _ := query.Normalize(d)
		out[id] = n.(map[string]any)
	}
	return out
}

func run(q query.Query) []string {
	docs := fixture()
	ids := make([]string, 0)
	for id, d := range docs {
		if query.Match(d, q.Filters) && query.Orderable(d, q.Orders) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(x, y string) int {
		if c := query.CompareDocs(docs[x], docs[y], q.Orders); c != 0 {
			return c
		}
		if x < y {
			return -1
		}
		return 1
	})
	return ids
}

func TestMatch_StatusOrderedByCreatedAtDesc(t *testing.T) {
	got := run(query.New("jobs").
		Where("status", query.Equal, "active").
		OrderBy("createdAt", query.Desc))

	want := []string{"c", "a"}
	if !slices.Equal(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestMatch_Operators(t *testing.T) {
	tests := []struct {
		name string
		q    query.Query
		want []string
	}{
		{"not equal excludes missing", query.New("jobs").Where("salary.amount", query.NotEqual, 3000), []string{"b", "c"}},
		{"range is type guarded", query.New("jobs").Where("salary.amount", query.Greater, 1000), []string{"a", "b"}},
		{"less", query.New("jobs").Where("salary.amount", query.Less, 4000), []string{"a"}},
		{"in", query.New("jobs").Where("status", query.In, []string{"closed"}), []string{"b"}},
		{"not in", query.New("jobs").Where("status", query.NotIn, []string{"closed"}), []string{"a", "c", "d"}},
		{"array contains", query.New("jobs").Where("tags", query.ArrayContains, "go"), []string{"a"}},
		{"array contains any", query.New("jobs").Where("tags", query.ArrayContainsAny, []string{"rust", "remote"}), []string{"a", "b"}},
		{"conjunctive", query.New("jobs").Where("status", query.Equal, "active").Where("tags", query.ArrayContains, "go"), []string{"a"}},
		{"multi order", query.New("jobs").OrderBy("status", query.Asc).OrderBy("createdAt", query.Desc), []string{"c", "a", "b"}},
		{"mixed types order strings before numbers", query.New("jobs").OrderBy("salary.amount", query.Asc), []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.q); !slices.Equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompare_TypeOrder(t *testing.T) {
	values := []any{map[string]any{}, []any{}, true, 1.0, "a", nil}
	slices.SortFunc(values, query.Compare)

	want := []any{nil, "a", 1.0, true, []any{}, map[string]any{}}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("sorted = %v, want %v", values, want)
	}
}

func TestCompare_Containers(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"shorter array first", []any{9.0}, []any{1.0, 1.0}, -1},
		{"equal length elementwise", []any{1.0, 2.0}, []any{1.0, 3.0}, -1},
		{"equal arrays", []any{"x", true}, []any{"x", true}, 0},
		{"fewer pairs first", map[string]any{"zz": 9.0}, map[string]any{"a": 1.0, "b": 1.0}, -1},
		{"shorter key first", map[string]any{"zz": 1.0}, map[string]any{"aaa": 1.0}, -1},
		{"same key by value", map[string]any{"k": 2.0}, map[string]any{"k": 1.0}, 1},
		{"equal objects", map[string]any{"a": []any{1.0}, "bb": nil}, map[string]any{"bb": nil, "a": []any{1.0}}, 0},
		{"strings bytewise", "Zeta", "alpha", -1},
		{"false before true", false, true, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := query.Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := query.Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}
