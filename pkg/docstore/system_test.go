package docstore_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/docstore/memory"
	"github.com/JaimeStill/job-board/pkg/query"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSystem(t *testing.T) *docstore.System {
	t.Helper()
	sys := docstore.New(memory.New(), testLogger())
	t.Cleanup(func() { sys.Close() })
	return sys
}

func mustCreate(t *testing.T, sys *docstore.System, collection, id string, data map[string]any) string {
	t.Helper()
	got, err := sys.Create(context.Background(), collection, data, id)
	if err != nil {
		t.Fatalf("Create(%s/%s) failed: %v", collection, id, err)
	}
	return got
}

func TestCreate_ExplicitIDOverwrites(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	mustCreate(t, sys, "jobs", "j1", map[string]any{"title": "A", "status": "active"})
	id := mustCreate(t, sys, "jobs", "j1", map[string]any{"title": "B"})

	if id != "j1" {
		t.Errorf("id = %q, want j1", id)
	}

	doc, err := sys.Get(ctx, "jobs", "j1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Data["title"] != "B" {
		t.Errorf("title = %v, want B", doc.Data["title"])
	}
	if _, ok := doc.Data["status"]; ok {
		t.Error("overwrite should replace the whole document")
	}
}

func TestCreate_GeneratedIDsAreUnique(t *testing.T) {
	sys := newSystem(t)

	a := mustCreate(t, sys, "jobs", "", map[string]any{"title": "A"})
	b := mustCreate(t, sys, "jobs", "", map[string]any{"title": "B"})

	if a == "" || b == "" {
		t.Fatal("generated id is empty")
	}
	if a == b {
		t.Errorf("generated ids collide: %q", a)
	}
}

func TestCreate_InvalidReference(t *testing.T) {
	sys := newSystem(t)

	tests := []struct {
		name       string
		collection string
		id         string
	}{
		{"empty collection", "", "x"},
		{"slash in collection", "a/b", "x"},
		{"slash in id", "jobs", "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Create(context.Background(), tt.collection, map[string]any{}, tt.id)
			if docstore.KindOf(err) != docstore.KindInvalid {
				t.Errorf("KindOf = %s, want invalid", docstore.KindOf(err))
			}
		})
	}
}

func TestUpdate_ShallowMerge(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	mustCreate(t, sys, "jobs", "j1", map[string]any{
		"title":  "A",
		"salary": map[string]any{"amount": 10, "frequency": "Yearly"},
	})

	if err := sys.Update(ctx, "jobs", "j1", map[string]any{"salary": map[string]any{"amount": 20}}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, _ := sys.Get(ctx, "jobs", "j1")
	if doc.Data["title"] != "A" {
		t.Errorf("title = %v, want A", doc.Data["title"])
	}
	salary := doc.Data["salary"].(map[string]any)
	if _, ok := salary["frequency"]; ok {
		t.Error("nested maps should be replaced, not merged")
	}
	if salary["amount"] != float64(20) {
		t.Errorf("amount = %v, want 20", salary["amount"])
	}
}

func TestUpdate_ArrayOps(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	mustCreate(t, sys, "companies", "c1", map[string]any{"jobs": []any{"a", "b", "a"}})

	err := sys.Update(ctx, "companies", "c1", nil,
		docstore.Union("jobs", "b"),
		docstore.Union("jobs", "c"),
		docstore.Remove("jobs", "a"),
		docstore.Union("tags", "new"),
	)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, _ := sys.Get(ctx, "companies", "c1")
	jobs := doc.Data["jobs"].([]any)
	want := []any{"b", "c"}
	if len(jobs) != len(want) {
		t.Fatalf("jobs = %v, want %v", jobs, want)
	}
	for i := range want {
		if jobs[i] != want[i] {
			t.Errorf("jobs[%d] = %v, want %v", i, jobs[i], want[i])
		}
	}

	tags := doc.Data["tags"].([]any)
	if len(tags) != 1 || tags[0] != "new" {
		t.Errorf("tags = %v, want [new]", tags)
	}
}

func TestUpdate_MissingDocument(t *testing.T) {
	sys := newSystem(t)

	err := sys.Update(context.Background(), "jobs", "missing", map[string]any{"title": "x"})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}

	var de *docstore.Error
	if !errors.As(err, &de) {
		t.Fatal("error should be a *docstore.Error")
	}
	if de.Op != "update" || de.Collection != "jobs" || de.ID != "missing" {
		t.Errorf("error context = %+v", de)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	mustCreate(t, sys, "jobs", "j1", map[string]any{"title": "A"})

	for i := range 2 {
		if err := sys.Delete(ctx, "jobs", "j1"); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}

	if _, err := sys.Get(ctx, "jobs", "j1"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
}

func TestQuery_FilterAndOrder(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	mustCreate(t, sys, "jobs", "a", map[string]any{"status": "active", "createdAt": 1})
	mustCreate(t, sys, "jobs", "b", map[string]any{"status": "closed", "createdAt": 2})
	mustCreate(t, sys, "jobs", "c", map[string]any{"status": "active", "createdAt": 3})
	mustCreate(t, sys, "jobs", "d", map[string]any{"status": "active"})
	mustCreate(t, sys, "other", "e", map[string]any{"status": "active", "createdAt": 4})

	q := query.New("jobs").
		Where("status", query.Equal, "active").
		OrderBy("createdAt", query.Desc)

	docs, err := sys.Query(ctx, q)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	got := ids(docs)
	want := []string{"c", "a"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestQuery_NoClausesReturnsCollection(t *testing.T) {
	sys := newSystem(t)

	mustCreate(t, sys, "jobs", "a", map[string]any{})
	mustCreate(t, sys, "jobs", "b", map[string]any{})

	docs, err := sys.Query(context.Background(), query.New("jobs"))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("len = %d, want 2", len(docs))
	}
}

func TestQuery_InvalidOperator(t *testing.T) {
	sys := newSystem(t)

	q := query.New("jobs").Where("status", query.Op("~="), "x")
	_, err := sys.Query(context.Background(), q)
	if docstore.KindOf(err) != docstore.KindInvalid {
		t.Errorf("KindOf = %s, want invalid", docstore.KindOf(err))
	}
}

func TestApply_MixedBatch(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	mustCreate(t, sys, "companies", "B", map[string]any{"name": "b"})

	err := sys.Batch().
		Set("companies", "A", map[string]any{"name": "a"}).
		Update("companies", "A", map[string]any{"website": "a.example"}).
		Delete("companies", "B").
		Commit(ctx)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	a, err := sys.Get(ctx, "companies", "A")
	if err != nil {
		t.Fatalf("Get A failed: %v", err)
	}
	if a.Data["name"] != "a" || a.Data["website"] != "a.example" {
		t.Errorf("A = %v", a.Data)
	}
	if _, err := sys.Get(ctx, "companies", "B"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("B should be deleted, got %v", err)
	}
}

func TestApply_UnknownKindAppliesNothing(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	err := sys.Batch().
		Set("companies", "A", map[string]any{"name": "a"}).
		Add(docstore.Operation{Kind: "upsert", Collection: "companies", ID: "B"}).
		Commit(ctx)

	if !errors.Is(err, docstore.ErrUnsupported) {
		t.Fatalf("Commit error = %v, want ErrUnsupported", err)
	}
	if _, err := sys.Get(ctx, "companies", "A"); !errors.Is(err, docstore.ErrNotFound) {
		t.Error("no operation should be applied when the batch is malformed")
	}
}

func TestApply_FailingUpdateRollsBack(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	err := sys.Batch().
		Set("companies", "A", map[string]any{"name": "a"}).
		Update("companies", "missing", map[string]any{"name": "x"}).
		Commit(ctx)

	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Commit error = %v, want ErrNotFound", err)
	}
	if _, err := sys.Get(ctx, "companies", "A"); !errors.Is(err, docstore.ErrNotFound) {
		t.Error("earlier operations should be rolled back")
	}
}

func TestApply_Empty(t *testing.T) {
	sys := newSystem(t)

	if err := sys.Apply(context.Background(), nil); err != nil {
		t.Errorf("empty batch error = %v, want nil", err)
	}
}

func TestCollection_LiveUpdates(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	mustCreate(t, sys, "jobs", "a", map[string]any{"status": "active"})

	view, err := sys.Collection(ctx, query.New("jobs").Where("status", query.Equal, "active"))
	if err != nil {
		t.Fatalf("Collection failed: %v", err)
	}
	defer view.Close()

	if got := ids(view.Data()); len(got) != 1 || got[0] != "a" {
		t.Fatalf("initial = %v, want [a]", got)
	}

	mustCreate(t, sys, "jobs", "b", map[string]any{"status": "active"})

	waitFor(t, view.Updates(), func(docs []docstore.Document) bool {
		return len(docs) == 2
	})

	if view.Stale() {
		t.Error("view should not be stale after a good snapshot")
	}
}

func TestCollection_CloseMarksStale(t *testing.T) {
	sys := newSystem(t)

	view, err := sys.Collection(context.Background(), query.New("jobs"))
	if err != nil {
		t.Fatalf("Collection failed: %v", err)
	}

	view.Close()

	if !view.Stale() {
		t.Error("closed view should be stale")
	}
	select {
	case <-view.Done():
	default:
		t.Error("Done should be closed after Close")
	}
}

func TestDocument_LiveUpdates(t *testing.T) {
	sys := newSystem(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view, err := sys.Document(ctx, "jobs", "j1")
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	if view.Data() != nil {
		t.Fatal("absent document should yield nil")
	}

	mustCreate(t, sys, "jobs", "j1", map[string]any{"title": "A"})

	waitFor(t, view.Updates(), func(doc *docstore.Document) bool {
		return doc != nil && doc.Data["title"] == "A"
	})

	if err := sys.Delete(ctx, "jobs", "j1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	waitFor(t, view.Updates(), func(doc *docstore.Document) bool {
		return doc == nil
	})

	cancel()
	select {
	case <-view.Done():
	case <-time.After(time.Second):
		t.Fatal("view did not stop after context cancellation")
	}
}

func TestDecode(t *testing.T) {
	type job struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	got, err := docstore.Decode[job](docstore.Document{
		ID:   "j1",
		Data: map[string]any{"title": "A"},
	})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ID != "j1" || got.Title != "A" {
		t.Errorf("Decode = %+v", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", docstore.ErrNotFound, 404},
		{"permission", docstore.ErrPermission, 403},
		{"transient", docstore.ErrTransient, 503},
		{"invalid", docstore.ErrInvalid, 400},
		{"unsupported", docstore.ErrUnsupported, 400},
		{"other", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := docstore.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func waitFor[T any](t *testing.T, ch <-chan T, ok func(T) bool) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case v, open := <-ch:
			if !open {
				t.Fatal("updates closed before condition was met")
			}
			if ok(v) {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for update")
		}
	}
}
