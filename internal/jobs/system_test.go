package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/job-board/internal/jobs"
	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/docstore/memory"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/validation"
)

const testSecret = "jobs-test-secret-0123456789abcdef"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	docs     *docstore.System
	identity *identity.System
	sys      jobs.System
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	docs := docstore.New(memory.New(), testLogger())
	t.Cleanup(func() { docs.Close() })

	cfg := &identity.Config{Secret: testSecret}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	v, err := validation.New()
	if err != nil {
		t.Fatalf("validation.New failed: %v", err)
	}

	f := &fixture{
		docs:     docs,
		identity: identity.New(cfg, docs, testLogger()),
		sys:      jobs.New(docs, v, testLogger()),
	}

	_, err = docs.Create(context.Background(), jobs.CompanyCollection, map[string]any{
		"name":      "Amazon",
		"website":   "https://amazon.com",
		"createdBy": "owner",
		"jobs":      []any{},
	}, "amazon")
	if err != nil {
		t.Fatalf("seed company failed: %v", err)
	}
	return f
}

func (f *fixture) session(t *testing.T, uid string) *identity.Session {
	t.Helper()
	s, err := f.identity.Issue(context.Background(), uid)
	if err != nil {
		t.Fatalf("Issue(%s) failed: %v", uid, err)
	}
	return s
}

func (f *fixture) companyJobs(t *testing.T) []any {
	t.Helper()
	doc, err := f.docs.Get(context.Background(), jobs.CompanyCollection, "amazon")
	if err != nil {
		t.Fatalf("Get company failed: %v", err)
	}
	list, _ := doc.Data["jobs"].([]any)
	return list
}

func validJob() map[string]any {
	return map[string]any{
		"companyID":   "amazon",
		"title":       "Backend Engineer",
		"description": "Build and run the job board services.",
		"type":        "Full-time",
		"remote":      "Remote",
		"salary":      map[string]any{"amount": "120000", "frequency": "Yearly"},
		"location":    map[string]any{"city": "Seattle", "state": "WA", "country": "USA"},
		"contactPerson": map[string]any{
			"name":  "Jeff",
			"email": "jeff@amazon.com",
		},
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.sys.Create(ctx, f.session(t, "owner"), validJob())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if job.ID == "" {
		t.Error("expected generated id")
	}
	if job.Status != jobs.StatusActive {
		t.Errorf("status = %q, want %q", job.Status, jobs.StatusActive)
	}
	if job.CreatedAt == "" || job.CreatedAt != job.UpdatedAt {
		t.Errorf("timestamps = %q/%q, want equal and set", job.CreatedAt, job.UpdatedAt)
	}

	linked := f.companyJobs(t)
	if len(linked) != 1 || linked[0] != job.ID {
		t.Errorf("company jobs = %v, want [%s]", linked, job.ID)
	}
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invalid := validJob()
	invalid["type"] = "Internship"

	unknown := validJob()
	unknown["companyID"] = "missing"

	tests := []struct {
		name    string
		uid     string
		data    map[string]any
		wantErr error
	}{
		{"anonymous", "", validJob(), identity.ErrUnauthenticated},
		{"invalid", "owner", invalid, validation.ErrValidation},
		{"nil data", "owner", nil, validation.ErrValidation},
		{"unknown company", "owner", unknown, jobs.ErrUnknownCompany},
		{"not owner", "intruder", validJob(), jobs.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var session *identity.Session
			if tt.uid != "" {
				session = f.session(t, tt.uid)
			}

			_, err := f.sys.Create(ctx, session, tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if linked := f.companyJobs(t); len(linked) != 0 {
		t.Errorf("company jobs = %v, want none after failed creates", linked)
	}
}

func TestCreate_AdminBypassesOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.identity.SetRole(ctx, "root", identity.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}

	if _, err := f.sys.Create(ctx, f.session(t, "root"), validJob()); err != nil {
		t.Fatalf("Create as admin failed: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.session(t, "owner")

	job, err := f.sys.Create(ctx, owner, validJob())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := f.sys.Update(ctx, owner, job.ID, map[string]any{
		"title":     "Staff Engineer",
		"companyID": "elsewhere",
		"status":    jobs.StatusClosed,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Title != "Staff Engineer" {
		t.Errorf("title = %q, want Staff Engineer", updated.Title)
	}
	if updated.CompanyID != "amazon" {
		t.Errorf("companyID = %q, want amazon", updated.CompanyID)
	}
	if updated.Status != jobs.StatusClosed {
		t.Errorf("status = %q, want %q", updated.Status, jobs.StatusClosed)
	}

	found, err := f.sys.Find(ctx, job.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found.Title != "Staff Engineer" || found.Location.City != "Seattle" {
		t.Errorf("stored job = %+v, want merged fields", found)
	}
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.session(t, "owner")

	job, err := f.sys.Create(ctx, owner, validJob())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name    string
		session *identity.Session
		id      string
		patch   map[string]any
		wantErr error
	}{
		{"missing", owner, "missing", map[string]any{"title": "X Y"}, jobs.ErrNotFound},
		{"not owner", f.session(t, "intruder"), job.ID, map[string]any{"title": "X Y"}, jobs.ErrForbidden},
		{"invalid", owner, job.ID, map[string]any{"remote": "Moon"}, validation.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sys.Update(ctx, tt.session, tt.id, tt.patch)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Update error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	found, err := f.sys.Find(ctx, job.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found.Remote != "Remote" {
		t.Errorf("remote = %q, rejected patch should not be stored", found.Remote)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.session(t, "owner")

	job, err := f.sys.Create(ctx, owner, validJob())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := f.sys.Delete(ctx, f.session(t, "intruder"), job.ID); !errors.Is(err, jobs.ErrForbidden) {
		t.Fatalf("Delete by intruder error = %v, want ErrForbidden", err)
	}

	if err := f.sys.Delete(ctx, owner, job.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := f.sys.Find(ctx, job.ID); !errors.Is(err, jobs.ErrNotFound) {
		t.Errorf("Find after delete error = %v, want ErrNotFound", err)
	}
	if linked := f.companyJobs(t); len(linked) != 0 {
		t.Errorf("company jobs = %v, want none", linked)
	}

	if err := f.sys.Delete(ctx, owner, job.ID); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
	if err := f.sys.Delete(ctx, nil, job.ID); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Errorf("anonymous Delete error = %v, want ErrUnauthenticated", err)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seed := []struct {
		id   string
		kind string
		at   string
	}{
		{"j1", "Full-time", "2024-01-01T00:00:00.000Z"},
		{"j2", "Part-time", "2024-02-01T00:00:00.000Z"},
		{"j3", "Full-time", "2024-03-01T00:00:00.000Z"},
	}
	for _, s := range seed {
		data := validJob()
		data["type"] = s.kind
		data["status"] = jobs.StatusActive
		data["createdAt"] = s.at
		if _, err := f.docs.Create(ctx, jobs.Collection, data, s.id); err != nil {
			t.Fatalf("seed %s failed: %v", s.id, err)
		}
	}

	fullTime := "Full-time"
	tests := []struct {
		name    string
		filters jobs.Filters
		want    []string
	}{
		{"all newest first", jobs.Filters{}, []string{"j3", "j2", "j1"}},
		{"by type", jobs.Filters{Type: &fullTime}, []string{"j3", "j1"}},
		{"limit", jobs.Filters{Limit: 1}, []string{"j3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.sys.List(ctx, tt.filters)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("jobs[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}
