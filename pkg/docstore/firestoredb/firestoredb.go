// Package firestoredb implements docstore.Store over Cloud Firestore.
// Filters and orders map one-to-one onto Firestore queries, live views use
// snapshot listeners, and batches run in a transaction.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/query"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Config selects the Firestore project and database.
type Config struct {
	ProjectID       string `toml:"project_id"`
	DatabaseID      string `toml:"database_id"`
	CredentialsFile string `toml:"credentials_file"`
}

// Store is a docstore.Store backed by a Firestore client.
type Store struct {
	client *firestore.Client
	logger *slog.Logger
}

// New connects to Firestore. An empty DatabaseID selects the default
// database. The FIRESTORE_EMULATOR_HOST variable is honored by the client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	opts := make([]option.ClientOption, 0, 1)
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var (
		client *firestore.Client
		err    error
	)
	if cfg.DatabaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, opts...)
	} else {
		client, err = firestore.NewClient(ctx, cfg.ProjectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	return &Store{
		client: client,
		logger: logger.With("system", "docstore.firestore"),
	}, nil
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) Query(ctx context.Context, q query.Query) ([]docstore.Document, error) {
	snaps, err := s.native(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, MapError(err)
	}
	return toDocuments(q.Collection, snaps)
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	doc, err := toDocument(collection, snap)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	n, err := docstore.Normalize(data)
	if err != nil {
		return err
	}
	_, err = s.client.Collection(collection).Doc(id).Set(ctx, n)
	return MapError(err)
}

func (s *Store) Update(ctx context.Context, collection, id string, data map[string]any, ops []docstore.ArrayOp) error {
	ref := s.client.Collection(collection).Doc(id)
	updates, err := toUpdates(data, ops)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		_, err := ref.Get(ctx)
		return MapError(err)
	}
	_, err = ref.Update(ctx, updates)
	return MapError(err)
}

// Delete has no existence precondition, so absent documents succeed.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return MapError(err)
}

// Apply runs ops in a single Firestore transaction. Updates carrying no
// changes read the document first so a missing target still fails.
func (s *Store) Apply(ctx context.Context, ops []docstore.Operation) error {
	type prepared struct {
		ref     *firestore.DocumentRef
		op      docstore.Operation
		data    map[string]any
		updates []firestore.Update
	}

	steps := make([]prepared, len(ops))
	for i, op := range ops {
		p := prepared{ref: s.client.Collection(op.Collection).Doc(op.ID), op: op}
		var err error
		switch op.Kind {
		case docstore.OpSet:
			p.data, err = docstore.Normalize(op.Data)
		case docstore.OpUpdate:
			p.updates, err = toUpdates(op.Data, op.Array)
		case docstore.OpDelete:
		default:
			err = fmt.Errorf("%w: %q", docstore.ErrUnsupported, op.Kind)
		}
		if err != nil {
			return fmt.Errorf("operation %d (%s %s/%s): %w", i, op.Kind, op.Collection, op.ID, err)
		}
		steps[i] = p
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, p := range steps {
			if p.op.Kind == docstore.OpUpdate && len(p.updates) == 0 {
				if _, err := tx.Get(p.ref); err != nil {
					return err
				}
			}
		}
		for _, p := range steps {
			var err error
			switch p.op.Kind {
			case docstore.OpSet:
				err = tx.Set(p.ref, p.data)
			case docstore.OpUpdate:
				if len(p.updates) > 0 {
					err = tx.Update(p.ref, p.updates)
				}
			case docstore.OpDelete:
				err = tx.Delete(p.ref)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return MapError(err)
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) native(q query.Query) firestore.Query {
	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.WherePath(firestore.FieldPath(query.Path(f.Field)), string(f.Op), f.Value)
	}
	for _, o := range q.Orders {
		dir := firestore.Asc
		if o.Descending() {
			dir = firestore.Desc
		}
		fq = fq.OrderByPath(firestore.FieldPath(query.Path(o.Field)), dir)
	}
	if len(q.Orders) > 0 {
		fq = fq.OrderBy(firestore.DocumentID, firestore.Asc)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

// toUpdates converts a shallow patch and array ops into field updates.
// Keys are literal top-level field names. Firestore rejects two updates to
// one field, so a field may appear in data or ops only once.
func toUpdates(data map[string]any, ops []docstore.ArrayOp) ([]firestore.Update, error) {
	n, err := docstore.Normalize(data)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(n)+len(ops))
	updates := make([]firestore.Update, 0, len(n)+len(ops))
	for k, v := range n {
		seen[k] = true
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}

	for _, op := range ops {
		if seen[op.Field] {
			return nil, fmt.Errorf("%w: field %q updated more than once", docstore.ErrInvalid, op.Field)
		}
		seen[op.Field] = true

		var value any
		switch op.Kind {
		case docstore.ArrayUnion:
			value = firestore.ArrayUnion(op.Value)
		case docstore.ArrayRemove:
			value = firestore.ArrayRemove(op.Value)
		default:
			return nil, fmt.Errorf("%w: array op %q", docstore.ErrUnsupported, op.Kind)
		}
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{op.Field}, Value: value})
	}
	return updates, nil
}

func toDocuments(collection string, snaps []*firestore.DocumentSnapshot) ([]docstore.Document, error) {
	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := toDocument(collection, snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func toDocument(collection string, snap *firestore.DocumentSnapshot) (docstore.Document, error) {
	data, err := docstore.Normalize(snap.Data())
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		ID:         snap.Ref.ID,
		Collection: collection,
		Data:       data,
		CreatedAt:  snap.CreateTime,
		UpdatedAt:  snap.UpdateTime,
	}, nil
}

func done(err error) bool {
	return errors.Is(err, iterator.Done)
}
