package firestoredb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/query"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const relisten = 2 * time.Second

// Watch follows q with a query snapshot listener. A listener failure is
// delivered as an error snapshot and the listener is reopened.
func (s *Store) Watch(ctx context.Context, q query.Query) (<-chan docstore.Snapshot[[]docstore.Document], error) {
	ch := make(chan docstore.Snapshot[[]docstore.Document], 1)

	go func() {
		defer close(ch)
		for {
			it := s.native(q).Snapshots(ctx)
			for {
				qs, err := it.Next()
				if err != nil {
					it.Stop()
					if stopped(ctx, err) {
						return
					}
					s.logger.Warn("query listener failed", "collection", q.Collection, "error", err)
					latest(ch, docstore.Snapshot[[]docstore.Document]{Err: MapError(err)})
					break
				}
				snaps, err := qs.Documents.GetAll()
				if err != nil {
					latest(ch, docstore.Snapshot[[]docstore.Document]{Err: MapError(err)})
					continue
				}
				docs, err := toDocuments(q.Collection, snaps)
				latest(ch, docstore.Snapshot[[]docstore.Document]{Value: docs, Err: err})
			}
			if !wait(ctx) {
				return
			}
		}
	}()

	return ch, nil
}

// WatchDocument follows one document with a document snapshot listener.
func (s *Store) WatchDocument(ctx context.Context, collection, id string) (<-chan docstore.Snapshot[*docstore.Document], error) {
	ch := make(chan docstore.Snapshot[*docstore.Document], 1)
	ref := s.client.Collection(collection).Doc(id)

	go func() {
		defer close(ch)
		for {
			it := ref.Snapshots(ctx)
			for {
				snap, err := it.Next()
				if err != nil {
					it.Stop()
					if stopped(ctx, err) {
						return
					}
					s.logger.Warn("document listener failed", "collection", collection, "id", id, "error", err)
					latest(ch, docstore.Snapshot[*docstore.Document]{Err: MapError(err)})
					break
				}
				latest(ch, documentSnapshot(collection, snap))
			}
			if !wait(ctx) {
				return
			}
		}
	}()

	return ch, nil
}

func documentSnapshot(collection string, snap *firestore.DocumentSnapshot) docstore.Snapshot[*docstore.Document] {
	if !snap.Exists() {
		return docstore.Snapshot[*docstore.Document]{}
	}
	doc, err := toDocument(collection, snap)
	if err != nil {
		return docstore.Snapshot[*docstore.Document]{Err: err}
	}
	return docstore.Snapshot[*docstore.Document]{Value: &doc}
}

func stopped(ctx context.Context, err error) bool {
	return ctx.Err() != nil || done(err) || status.Code(err) == codes.Canceled
}

func wait(ctx context.Context) bool {
	select {
	case <-time.After(relisten):
		return true
	case <-ctx.Done():
		return false
	}
}

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
