package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/validation"
	"github.com/google/uuid"
)

// System defines job reads, writes and live listings. Writes take the
// acting session; only the company's creator or an admin may change its
// jobs.
type System interface {
	List(ctx context.Context, filters Filters) ([]Job, error)
	Find(ctx context.Context, id string) (*Job, error)
	Watch(ctx context.Context, filters Filters) (*docstore.CollectionView, error)
	Create(ctx context.Context, session *identity.Session, data map[string]any) (*Job, error)
	Update(ctx context.Context, session *identity.Session, id string, patch map[string]any) (*Job, error)
	Delete(ctx context.Context, session *identity.Session, id string) error
}

// immutable fields are owned by the system and dropped from client patches.
var immutable = []string{"id", "companyID", "createdAt", "updatedAt"}

type repo struct {
	docs      *docstore.System
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// New creates the jobs system.
func New(docs *docstore.System, validator *validation.Validator, logger *slog.Logger) System {
	return &repo{
		docs:      docs,
		validator: validator,
		logger:    logger.With("domain", "jobs"),
		now:       time.Now,
	}
}

func (r *repo) List(ctx context.Context, filters Filters) ([]Job, error) {
	docs, err := r.docs.Query(ctx, filters.Query())
	if err != nil {
		return nil, err
	}
	return Decode(docs)
}

func (r *repo) Find(ctx context.Context, id string) (*Job, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeData(id, doc.Data)
}

func (r *repo) get(ctx context.Context, id string) (*docstore.Document, error) {
	doc, err := r.docs.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, err
}

func (r *repo) Watch(ctx context.Context, filters Filters) (*docstore.CollectionView, error) {
	return r.docs.Collection(ctx, filters.Query())
}

// Create validates data as a new active job and posts it under its
// company: the job is written and its id appended to the company's jobs
// in one batch.
func (r *repo) Create(ctx context.Context, session *identity.Session, data map[string]any) (*Job, error) {
	if session == nil {
		return nil, identity.ErrUnauthenticated
	}

	now := docstore.Timestamp(r.now())
	doc := maps.Clone(data)
	if doc == nil {
		doc = map[string]any{}
	}
	delete(doc, "id")
	doc["createdAt"] = now
	doc["updatedAt"] = now
	if _, ok := doc["status"]; !ok {
		doc["status"] = StatusActive
	}

	doc, err := docstore.Normalize(doc)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(validation.Job, doc); err != nil {
		return nil, err
	}

	companyID, _ := doc["companyID"].(string)
	if err := r.authorize(ctx, session, companyID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	err = r.docs.Batch().
		Set(Collection, id, doc).
		Update(CompanyCollection, companyID, map[string]any{"updatedAt": now}, docstore.Union("jobs", id)).
		Commit(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Info("job posted", "id", id, "company", companyID)
	return decodeData(id, doc)
}

// Update merges patch into the stored job and validates the result before
// writing. Fields in immutable are ignored.
func (r *repo) Update(ctx context.Context, session *identity.Session, id string, patch map[string]any) (*Job, error) {
	stored, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	companyID, _ := stored.Data["companyID"].(string)
	if err := r.authorize(ctx, session, companyID); err != nil {
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
	if err := r.validator.Validate(validation.Job, merged); err != nil {
		return nil, err
	}

	if err := r.docs.Update(ctx, Collection, id, changes); err != nil {
		return nil, err
	}
	return decodeData(id, merged)
}

// Delete removes the job and its id from the owning company's jobs in one
// batch. Deleting a job that does not exist succeeds.
func (r *repo) Delete(ctx context.Context, session *identity.Session, id string) error {
	job, err := r.Find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		if session == nil {
			return identity.ErrUnauthenticated
		}
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.authorize(ctx, session, job.CompanyID); err != nil {
		if !errors.Is(err, ErrUnknownCompany) {
			return err
		}
		if session.Role() != identity.RoleAdmin {
			return ErrForbidden
		}
		return r.docs.Delete(ctx, Collection, id)
	}

	err = r.docs.Batch().
		Delete(Collection, id).
		Update(CompanyCollection, job.CompanyID,
			map[string]any{"updatedAt": docstore.Timestamp(r.now())},
			docstore.Remove("jobs", id)).
		Commit(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("job removed", "id", id, "company", job.CompanyID)
	return nil
}

// authorize checks that session may post under companyID.
func (r *repo) authorize(ctx context.Context, session *identity.Session, companyID string) error {
	if session == nil {
		return identity.ErrUnauthenticated
	}
	if companyID == "" {
		return fmt.Errorf("%w: companyID required", ErrUnknownCompany)
	}

	company, err := r.docs.Get(ctx, CompanyCollection, companyID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownCompany, companyID)
		}
		return err
	}

	if session.Role() == identity.RoleAdmin {
		return nil
	}
	if owner, _ := company.Data["createdBy"].(string); owner != session.UID() {
		return ErrForbidden
	}
	return nil
}

// Decode converts job documents in order.
func Decode(docs []docstore.Document) ([]Job, error) {
	out := make([]Job, 0, len(docs))
	for _, doc := range docs {
		job, err := docstore.Decode[Job](doc)
		if err != nil {
			return nil, fmt.Errorf("decode job %s: %w", doc.ID, err)
		}
		out = append(out, job)
	}
	return out, nil
}

func decodeData(id string, data map[string]any) (*Job, error) {
	job, err := docstore.Decode[Job](docstore.Document{ID: id, Collection: Collection, Data: data})
	if err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
