package companies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/JaimeStill/job-board/internal/jobs"
	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/query"
	"github.com/JaimeStill/job-board/pkg/validation"
)

// System defines company storage and the company job page. Writes take the
// acting session; only the creator or an admin may change a company.
type System interface {
	List(ctx context.Context, filters Filters) ([]Company, error)
	Find(ctx context.Context, id string) (*Company, error)
	Page(ctx context.Context, id string) (*Page, error)
	Create(ctx context.Context, session *identity.Session, data map[string]any) (*Company, error)
	Update(ctx context.Context, session *identity.Session, id string, patch map[string]any) (*Company, error)
	Delete(ctx context.Context, session *identity.Session, id string) error
	PostJob(ctx context.Context, session *identity.Session, id string, data map[string]any) (*jobs.Job, error)
	RemoveJob(ctx context.Context, session *identity.Session, id, jobID string) error
}

var immutable = []string{"id", "createdBy", "jobs", "createdAt", "updatedAt"}

type repo struct {
	docs      *docstore.System
	jobs      jobs.System
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// New creates the companies system. Job writes are delegated to jobsSys.
func New(docs *docstore.System, jobsSys jobs.System, validator *validation.Validator, logger *slog.Logger) System {
	return &repo{
		docs:      docs,
		jobs:      jobsSys,
		validator: validator,
		logger:    logger.With("domain", "companies"),
		now:       time.Now,
	}
}

func (r *repo) List(ctx context.Context, filters Filters) ([]Company, error) {
	docs, err := r.docs.Query(ctx, filters.Query())
	if err != nil {
		return nil, err
	}

	out := make([]Company, 0, len(docs))
	for _, doc := range docs {
		c, err := decode(doc.ID, doc.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Company, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decode(id, doc.Data)
}

// Page resolves the company's postings by companyID, newest first.
func (r *repo) Page(ctx context.Context, id string) (*Page, error) {
	company, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	postings, err := r.jobs.List(ctx, jobs.Filters{CompanyID: &id})
	if err != nil {
		return nil, err
	}
	return &Page{Company: *company, Postings: postings}, nil
}

func (r *repo) Create(ctx context.Context, session *identity.Session, data map[string]any) (*Company, error) {
	if session == nil {
		return nil, identity.ErrUnauthenticated
	}

	now := docstore.Timestamp(r.now())
	doc := maps.Clone(data)
	if doc == nil {
		doc = map[string]any{}
	}
	delete(doc, "id")
	doc["createdBy"] = session.UID()
	doc["jobs"] = []any{}
	doc["createdAt"] = now
	doc["updatedAt"] = now

	doc, err := docstore.Normalize(doc)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(validation.Company, doc); err != nil {
		return nil, err
	}

	id, err := r.docs.Create(ctx, Collection, doc, "")
	if err != nil {
		return nil, err
	}

	r.logger.Info("company created", "id", id, "created_by", session.UID())
	return decode(id, doc)
}

func (r *repo) Update(ctx context.Context, session *identity.Session, id string, patch map[string]any) (*Company, error) {
	stored, err := r.authorize(ctx, session, id)
	if err != nil {
		return nil, err
	}

	changes := maps.Clone(patch)
	if changes == nil {
		changes = map[string]any{}
	}
	for _, key := range immutable {
		delete(changes, key)
	}
	changes["updatedAt"] = docstore.Timestamp(r.now())

	merged, err := docstore.ApplyUpdate(stored.Data, changes, nil)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(validation.Company, merged); err != nil {
		return nil, err
	}

	if err := r.docs.Update(ctx, Collection, id, changes); err != nil {
		return nil, err
	}
	return decode(id, merged)
}

// Delete removes the company and every job posted under it in one batch.
// Jobs are found both through the company's jobs list and by companyID.
func (r *repo) Delete(ctx context.Context, session *identity.Session, id string) error {
	stored, err := r.authorize(ctx, session, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	company, err := decode(id, stored.Data)
	if err != nil {
		return err
	}

	linked, err := r.docs.Query(ctx, query.New(jobs.Collection).Where("companyID", query.Equal, id))
	if err != nil {
		return err
	}

	ids := make(map[string]struct{}, len(company.Jobs)+len(linked))
	batch := r.docs.Batch()
	for _, jobID := range company.Jobs {
		if _, seen := ids[jobID]; !seen {
			ids[jobID] = struct{}{}
			batch.Delete(jobs.Collection, jobID)
		}
	}
	for _, doc := range linked {
		if _, seen := ids[doc.ID]; !seen {
			ids[doc.ID] = struct{}{}
			batch.Delete(jobs.Collection, doc.ID)
		}
	}
	batch.Delete(Collection, id)

	if err := batch.Commit(ctx); err != nil {
		return err
	}

	r.logger.Info("company deleted", "id", id, "jobs", len(ids))
	return nil
}

// PostJob creates a job under company id.
func (r *repo) PostJob(ctx context.Context, session *identity.Session, id string, data map[string]any) (*jobs.Job, error) {
	if _, err := r.authorize(ctx, session, id); err != nil {
		return nil, err
	}

	body := maps.Clone(data)
	if body == nil {
		body = map[string]any{}
	}
	body["companyID"] = id
	return r.jobs.Create(ctx, session, body)
}

// RemoveJob deletes jobID when it is posted under company id.
func (r *repo) RemoveJob(ctx context.Context, session *identity.Session, id, jobID string) error {
	if _, err := r.authorize(ctx, session, id); err != nil {
		return err
	}

	job, err := r.jobs.Find(ctx, jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if job.CompanyID != id {
		return fmt.Errorf("%w: %s is not posted under %s", jobs.ErrNotFound, jobID, id)
	}
	return r.jobs.Delete(ctx, session, jobID)
}

func (r *repo) get(ctx context.Context, id string) (*docstore.Document, error) {
	doc, err := r.docs.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, err
}

// authorize loads company id and checks that session may change it.
func (r *repo) authorize(ctx context.Context, session *identity.Session, id string) (*docstore.Document, error) {
	if session == nil {
		return nil, identity.ErrUnauthenticated
	}

	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Role() == identity.RoleAdmin {
		return doc, nil
	}
	if owner, _ := doc.Data["createdBy"].(string); owner != session.UID() {
		return nil, ErrForbidden
	}
	return doc, nil
}

func decode(id string, data map[string]any) (*Company, error) {
	c, err := docstore.Decode[Company](docstore.Document{ID: id, Collection: Collection, Data: data})
	if err != nil {
		return nil, fmt.Errorf("decode company %s: %w", id, err)
	}
	if c.Jobs == nil {
		c.Jobs = []string{}
	}
	return &c, nil
}
