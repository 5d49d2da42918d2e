package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// System is the document access layer. Every failure is logged with its
// operation, collection and document id, then returned as an *Error
// classifiable with KindOf. Nothing is retried.
type System struct {
	store  Store
	logger *slog.Logger
}

// New creates a System over store.
func New(store Store, logger *slog.Logger) *System {
	return &System{
		store:  store,
		logger: logger.With("system", "docstore"),
	}
}

// Query runs q once.
func (s *System) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, s.fail("query", q.Collection, "", fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, s.fail("query", q.Collection, "", err)
	}
	return docs, nil
}

// Get reads one document. Missing documents return ErrNotFound.
func (s *System) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := validateRef(collection, id); err != nil {
		return nil, s.fail("get", collection, id, err)
	}
	doc, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, s.fail("get", collection, id, err)
	}
	return doc, nil
}

// Collection opens a live view of q. It blocks until the first snapshot
// resolves. The view follows the store until Close is called or ctx ends.
func (s *System) Collection(ctx context.Context, q Query) (*CollectionView, error) {
	if err := q.Validate(); err != nil {
		return nil, s.fail("watch", q.Collection, "", fmt.Errorf("%w: %w", ErrInvalid, err))
	}

	vctx, cancel := context.WithCancel(ctx)
	ch, err := s.store.Watch(vctx, q)
	if err != nil {
		cancel()
		return nil, s.fail("watch", q.Collection, "", err)
	}

	view, err := open(vctx, ch, cancel, s.logger.With("collection", q.Collection))
	if err != nil {
		return nil, s.fail("watch", q.Collection, "", err)
	}
	return view, nil
}

// Document opens a live view of one document, nil while it is absent.
func (s *System) Document(ctx context.Context, collection, id string) (*DocumentView, error) {
	if err := validateRef(collection, id); err != nil {
		return nil, s.fail("watch", collection, id, err)
	}

	vctx, cancel := context.WithCancel(ctx)
	ch, err := s.store.WatchDocument(vctx, collection, id)
	if err != nil {
		cancel()
		return nil, s.fail("watch", collection, id, err)
	}

	view, err := open(vctx, ch, cancel, s.logger.With("collection", collection, "id", id))
	if err != nil {
		return nil, s.fail("watch", collection, id, err)
	}
	return view, nil
}

// Create writes data and returns the document id. An explicit id overwrites
// any document already stored there; an empty id is generated.
func (s *System) Create(ctx context.Context, collection string, data map[string]any, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := validateRef(collection, id); err != nil {
		return "", s.fail("create", collection, id, err)
	}
	if err := s.store.Set(ctx, collection, id, data); err != nil {
		return "", s.fail("create", collection, id, err)
	}

	s.logger.Info("document created", "collection", collection, "id", id)
	return id, nil
}

// Update merges data into an existing document and applies ops in order.
// Fields not named in data are untouched. Updating a missing document fails
// with ErrNotFound.
func (s *System) Update(ctx context.Context, collection, id string, data map[string]any, ops ...ArrayOp) error {
	if err := validateRef(collection, id); err != nil {
		return s.fail("update", collection, id, err)
	}
	for _, op := range ops {
		if err := op.validate(); err != nil {
			return s.fail("update", collection, id, err)
		}
	}
	if err := s.store.Update(ctx, collection, id, data, ops); err != nil {
		return s.fail("update", collection, id, err)
	}

	s.logger.Info("document updated", "collection", collection, "id", id)
	return nil
}

// Delete removes a document. Deleting an absent document succeeds.
func (s *System) Delete(ctx context.Context, collection, id string) error {
	if err := validateRef(collection, id); err != nil {
		return s.fail("delete", collection, id, err)
	}
	if err := s.store.Delete(ctx, collection, id); err != nil {
		return s.fail("delete", collection, id, err)
	}

	s.logger.Info("document deleted", "collection", collection, "id", id)
	return nil
}

// Apply commits ops atomically. Every operation is validated before the
// store is contacted; an unknown kind fails with ErrUnsupported and nothing
// is written.
func (s *System) Apply(ctx context.Context, ops []Operation) error {
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return s.fail("batch", op.Collection, op.ID, fmt.Errorf("operation %d: %w", i, err))
		}
	}
	if len(ops) == 0 {
		return nil
	}
	if err := s.store.Apply(ctx, ops); err != nil {
		return s.fail("batch", "", "", err)
	}

	s.logger.Info("batch applied", "operations", len(ops))
	return nil
}

// Batch starts an empty batch bound to s.
func (s *System) Batch() *Batch {
	return &Batch{sys: s}
}

// Close releases the underlying store.
func (s *System) Close() error {
	return s.store.Close()
}

func (s *System) fail(op, collection, id string, err error) error {
	var de *Error
	if !errors.As(err, &de) {
		de = &Error{Op: op, Collection: collection, ID: id, Err: err}
	}

	kind := KindOf(err)
	level := slog.LevelError
	if kind == KindNotFound {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "docstore operation failed",
		"op", op,
		"collection", collection,
		"id", id,
		"kind", kind.String(),
		"error", err,
	)
	return de
}
