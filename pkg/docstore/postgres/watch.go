package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/query"
)

type watcher struct {
	collection string
	refresh    func(ctx context.Context)
	fail       func(err error)
}

// Watch re-runs q whenever the listener reports a change to its collection.
func (s *Store) Watch(ctx context.Context, q query.Query) (<-chan docstore.Snapshot[[]docstore.Document], error) {
	out := newFeed[[]docstore.Document]()
	w := &watcher{
		collection: q.Collection,
		refresh: func(ctx context.Context) {
			docs, err := s.Query(ctx, q)
			out.send(docstore.Snapshot[[]docstore.Document]{Value: docs, Err: err})
		},
		fail: func(err error) {
			out.send(docstore.Snapshot[[]docstore.Document]{Err: err})
		},
	}
	s.register(ctx, w, out.close)
	return out.ch, nil
}

// WatchDocument re-reads one document whenever its collection changes.
func (s *Store) WatchDocument(ctx context.Context, collection, id string) (<-chan docstore.Snapshot[*docstore.Document], error) {
	out := newFeed[*docstore.Document]()
	w := &watcher{
		collection: collection,
		refresh: func(ctx context.Context) {
			doc, err := s.Get(ctx, collection, id)
			if err != nil && docstore.KindOf(err) == docstore.KindNotFound {
				doc, err = nil, nil
			}
			out.send(docstore.Snapshot[*docstore.Document]{Value: doc, Err: err})
		},
		fail: func(err error) {
			out.send(docstore.Snapshot[*docstore.Document]{Err: err})
		},
	}
	s.register(ctx, w, out.close)
	return out.ch, nil
}

func (s *Store) register(ctx context.Context, w *watcher, closeFn func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	if !s.listening {
		s.listening = true
		s.wg.Add(1)
		go s.listen()
	}
	s.mu.Unlock()

	w.refresh(ctx)

	go func() {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		closeFn()
	}()
}

func (s *Store) listen() {
	defer s.wg.Done()

	for {
		err := s.listenOnce()
		if s.ctx.Err() != nil {
			return
		}

		s.logger.Warn("notification listener interrupted", "error", err)
		s.each("", func(w *watcher) {
			w.fail(fmt.Errorf("%w: %v", docstore.ErrTransient, err))
		})

		select {
		case <-time.After(s.retry):
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Store) listenOnce() error {
	conn, err := s.db.Conn(s.ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		sc, err := stdlibConn(driverConn)
		if err != nil {
			return err
		}
		pc := sc.Conn()

		if _, err := pc.Exec(s.ctx, "LISTEN "+channel); err != nil {
			return err
		}
		defer pc.Exec(context.Background(), "UNLISTEN "+channel)

		s.logger.Info("listening for document changes", "channel", channel)
		s.each("", func(w *watcher) { w.refresh(s.ctx) })

		for {
			n, err := pc.WaitForNotification(s.ctx)
			if err != nil {
				return err
			}
			s.each(n.Payload, func(w *watcher) { w.refresh(s.ctx) })
		}
	})
}

// each calls fn for the watchers of collection, or every watcher when
// collection is empty.
func (s *Store) each(collection string, fn func(*watcher)) {
	s.mu.Lock()
	targets := make([]*watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		if collection == "" || w.collection == collection {
			targets = append(targets, w)
		}
	}
	s.mu.Unlock()

	for _, w := range targets {
		fn(w)
	}
}

// feed is a latest-wins channel that tolerates sends after close.
type feed[T any] struct {
	mu     sync.Mutex
	ch     chan docstore.Snapshot[T]
	closed bool
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{ch: make(chan docstore.Snapshot[T], 1)}
}

func (f *feed[T]) send(v docstore.Snapshot[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.ch <- v:
		return
	default:
	}
	select {
	case <-f.ch:
	default:
	}
	f.ch <- v
}

func (f *feed[T]) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}
