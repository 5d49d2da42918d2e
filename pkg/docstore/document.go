// Package docstore is the document access layer: collection and document
// reads (one-shot and live), writes, and atomic batches over a pluggable
// Store backend.
package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/job-board/pkg/query"
)

// Document is one stored record. Data holds values in the JSON data model.
type Document struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"createdAt,omitzero"`
	UpdatedAt  time.Time      `json:"updatedAt,omitzero"`
}

// Decode converts a document's data into T. The document id is exposed to T
// under the "id" key unless data already carries one.
func Decode[T any](doc Document) (T, error) {
	data := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = v
	}
	if _, ok := data["id"]; !ok {
		data["id"] = doc.ID
	}
	var result T
	b, err := json.Marshal(data)
	if err != nil {
		return result, fmt.Errorf("encode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("decode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	return result, nil
}

// ArrayOpKind selects how an ArrayOp changes an array field.
type ArrayOpKind string

const (
	// ArrayUnion appends Value unless an equal element is present.
	ArrayUnion ArrayOpKind = "union"
	// ArrayRemove removes every element equal to Value.
	ArrayRemove ArrayOpKind = "remove"
)

// ArrayOp is one array delta applied by an update.
type ArrayOp struct {
	Field string      `json:"field"`
	Kind  ArrayOpKind `json:"kind"`
	Value any         `json:"value"`
}

// Union builds an ArrayUnion op.
func Union(field string, value any) ArrayOp {
	return ArrayOp{Field: field, Kind: ArrayUnion, Value: value}
}

// Remove builds an ArrayRemove op.
func Remove(field string, value any) ArrayOp {
	return ArrayOp{Field: field, Kind: ArrayRemove, Value: value}
}

// OpKind tags a batch operation.
type OpKind string

const (
	OpSet    OpKind = "set"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Operation is one write inside a batch.
type Operation struct {
	Kind       OpKind         `json:"kind"`
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Data       map[string]any `json:"data,omitempty"`
	Array      []ArrayOp      `json:"array,omitempty"`
}

// Validate checks an operation before any backend call.
func (o Operation) Validate() error {
	switch o.Kind {
	case OpSet, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("%w: batch operation %q", ErrUnsupported, o.Kind)
	}
	if err := validateRef(o.Collection, o.ID); err != nil {
		return err
	}
	if o.Kind == OpSet && o.Data == nil {
		return fmt.Errorf("%w: set on %s/%s without data", ErrInvalid, o.Collection, o.ID)
	}
	for _, op := range o.Array {
		if err := op.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a ArrayOp) validate() error {
	if a.Field == "" {
		return fmt.Errorf("%w: array op without field", ErrInvalid)
	}
	switch a.Kind {
	case ArrayUnion, ArrayRemove:
		return nil
	}
	return fmt.Errorf("%w: array op %q", ErrUnsupported, a.Kind)
}

func validateCollection(collection string) error {
	if collection == "" || strings.Contains(collection, "/") {
		return fmt.Errorf("%w: collection %q", ErrInvalid, collection)
	}
	return nil
}

func validateRef(collection, id string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: document id %q", ErrInvalid, id)
	}
	return nil
}

// Query aliases keep call sites in terms of this package.
type (
	Query  = query.Query
	Filter = query.Filter
	Order  = query.Order
)

// TimestampLayout renders UTC times at fixed millisecond precision so
// stored timestamps sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t for storage in document data.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
