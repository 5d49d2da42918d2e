package docstore

import "context"

// Snapshot is one delivery on a live view. Err reports a delivery failure;
// the view keeps its previous value and marks itself stale.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Store is implemented by document store backends. Watch channels deliver
// the current state first and close once ctx is done. Every write must be
// visible to subsequent reads on the same Store.
type Store interface {
	Query(ctx context.Context, q Query) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)

	Watch(ctx context.Context, q Query) (<-chan Snapshot[[]Document], error)
	WatchDocument(ctx context.Context, collection, id string) (<-chan Snapshot[*Document], error)

	// Set writes data at id, replacing any existing document.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges data into an existing document, then applies ops.
	// Returns ErrNotFound when the document does not exist.
	Update(ctx context.Context, collection, id string, data map[string]any, ops []ArrayOp) error
	// Delete removes a document. Absent documents are not an error.
	Delete(ctx context.Context, collection, id string) error
	// Apply commits ops atomically and in order.
	Apply(ctx context.Context, ops []Operation) error

	Close() error
}
