// Package memory implements docstore.Store in process memory. It replaces
// global fixture state with a store value that is constructed and injected
// explicitly, and supports live views and atomic batches like the durable
// backends.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/query"
	"github.com/tidwall/btree"
)

type entry struct {
	data    map[string]any
	created time.Time
	updated time.Time
}

type watcher struct {
	collection string
	id         string
	q          *query.Query
	send       func(tree *btree.Map[string, entry])
}

// Store keeps documents in a B-tree keyed by "collection/id", so a
// collection is a contiguous key range.
type Store struct {
	mu       sync.Mutex
	docs     *btree.Map[string, entry]
	watchers map[int]*watcher
	nextID   int
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:     btree.NewMap[string, entry](0),
		watchers: make(map[int]*watcher),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) Query(ctx context.Context, q query.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return run(s.docs, q), nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := lookup(s.docs, collection, id)
	if doc == nil {
		return nil, docstore.ErrNotFound
	}
	return doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return s.Apply(ctx, []docstore.Operation{{Kind: docstore.OpSet, Collection: collection, ID: id, Data: data}})
}

func (s *Store) Update(ctx context.Context, collection, id string, data map[string]any, ops []docstore.ArrayOp) error {
	return s.Apply(ctx, []docstore.Operation{{Kind: docstore.OpUpdate, Collection: collection, ID: id, Data: data, Array: ops}})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.Apply(ctx, []docstore.Operation{{Kind: docstore.OpDelete, Collection: collection, ID: id}})
}

// Apply writes ops to a copy of the tree and swaps it in only when every
// operation succeeded.
func (s *Store) Apply(ctx context.Context, ops []docstore.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.docs.Copy()
	now := s.now()
	touched := make(map[string]struct{})

	for i, op := range ops {
		if err := apply(tx, op, now); err != nil {
			return fmt.Errorf("operation %d (%s %s/%s): %w", i, op.Kind, op.Collection, op.ID, err)
		}
		touched[op.Collection] = struct{}{}
	}

	s.docs = tx
	s.broadcast(touched)
	return nil
}

func (s *Store) Watch(ctx context.Context, q query.Query) (<-chan docstore.Snapshot[[]docstore.Document], error) {
	ch := make(chan docstore.Snapshot[[]docstore.Document], 1)
	w := &watcher{
		collection: q.Collection,
		q:          &q,
		send: func(tree *btree.Map[string, entry]) {
			latest(ch, docstore.Snapshot[[]docstore.Document]{Value: run(tree, q)})
		},
	}
	s.register(ctx, w, func() { close(ch) })
	return ch, nil
}

func (s *Store) WatchDocument(ctx context.Context, collection, id string) (<-chan docstore.Snapshot[*docstore.Document], error) {
	ch := make(chan docstore.Snapshot[*docstore.Document], 1)
	w := &watcher{
		collection: collection,
		id:         id,
		send: func(tree *btree.Map[string, entry]) {
			latest(ch, docstore.Snapshot[*docstore.Document]{Value: lookup(tree, collection, id)})
		},
	}
	s.register(ctx, w, func() { close(ch) })
	return ch, nil
}

// Close is a no-op; watchers end with their contexts.
func (s *Store) Close() error {
	return nil
}

func (s *Store) register(ctx context.Context, w *watcher, closeFn func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	w.send(s.docs)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		closeFn()
		s.mu.Unlock()
	}()
}

// broadcast runs with s.mu held, so no send races a watcher's close.
func (s *Store) broadcast(collections map[string]struct{}) {
	for _, w := range s.watchers {
		if _, ok := collections[w.collection]; ok {
			w.send(s.docs)
		}
	}
}

func apply(tx *btree.Map[string, entry], op docstore.Operation, now time.Time) error {
	k := key(op.Collection, op.ID)
	current, exists := tx.Get(k)

	switch op.Kind {
	case docstore.OpSet:
		data, err := docstore.Normalize(op.Data)
		if err != nil {
			return err
		}
		created := now
		if exists {
			created = current.created
		}
		tx.Set(k, entry{data: data, created: created, updated: now})
	case docstore.OpUpdate:
		if !exists {
			return docstore.ErrNotFound
		}
		data, err := docstore.ApplyUpdate(current.data, op.Data, op.Array)
		if err != nil {
			return err
		}
		tx.Set(k, entry{data: data, created: current.created, updated: now})
	case docstore.OpDelete:
		tx.Delete(k)
	default:
		return fmt.Errorf("%w: %q", docstore.ErrUnsupported, op.Kind)
	}
	return nil
}

func run(tree *btree.Map[string, entry], q query.Query) []docstore.Document {
	prefix := q.Collection + "/"
	docs := make([]docstore.Document, 0)

	tree.Ascend(prefix, func(k string, e entry) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		if query.Match(e.data, q.Filters) && query.Orderable(e.data, q.Orders) {
			docs = append(docs, toDocument(q.Collection, strings.TrimPrefix(k, prefix), e))
		}
		return true
	})

	slices.SortStableFunc(docs, func(a, b docstore.Document) int {
		if c := query.CompareDocs(a.Data, b.Data, q.Orders); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

func lookup(tree *btree.Map[string, entry], collection, id string) *docstore.Document {
	e, ok := tree.Get(key(collection, id))
	if !ok {
		return nil
	}
	doc := toDocument(collection, id, e)
	return &doc
}

func toDocument(collection, id string, e entry) docstore.Document {
	data, _ := docstore.Normalize(e.data)
	return docstore.Document{
		ID:         id,
		Collection: collection,
		Data:       data,
		CreatedAt:  e.created,
		UpdatedAt:  e.updated,
	}
}

func key(collection, id string) string {
	return collection + "/" + id
}

// latest replaces any undelivered value in ch with v.
func latest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
