package docstore

import "context"

// Batch accumulates operations for one atomic commit.
type Batch struct {
	sys *System
	ops []Operation
}

// Set adds a create-or-overwrite of collection/id.
func (b *Batch) Set(collection, id string, data map[string]any) *Batch {
	b.ops = append(b.ops, Operation{Kind: OpSet, Collection: collection, ID: id, Data: data})
	return b
}

// Update adds a merge into an existing document.
func (b *Batch) Update(collection, id string, data map[string]any, ops ...ArrayOp) *Batch {
	b.ops = append(b.ops, Operation{Kind: OpUpdate, Collection: collection, ID: id, Data: data, Array: ops})
	return b
}

// Delete adds a delete of collection/id.
func (b *Batch) Delete(collection, id string) *Batch {
	b.ops = append(b.ops, Operation{Kind: OpDelete, Collection: collection, ID: id})
	return b
}

// Add appends a prepared operation.
func (b *Batch) Add(op Operation) *Batch {
	b.ops = append(b.ops, op)
	return b
}

// Operations returns the accumulated operations in order.
func (b *Batch) Operations() []Operation {
	return b.ops
}

// Commit applies every operation atomically.
func (b *Batch) Commit(ctx context.Context) error {
	return b.sys.Apply(ctx, b.ops)
}
