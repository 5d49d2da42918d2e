// Package postgres implements docstore.Store over a JSONB table. Live views
// are fed by a trigger that publishes the changed collection on the
// "docstore" notification channel.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/query"
	"github.com/JaimeStill/job-board/pkg/repository"
	"github.com/jackc/pgx/v5/stdlib"
)

// Migrations holds the schema for the documents table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"

const (
	table   = "documents"
	channel = "docstore"
)

type tx interface {
	repository.Querier
	repository.Executor
}

// Store is a docstore.Store backed by PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	retry  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	watchers  map[int]*watcher
	nextID    int
	listening bool
}

// New creates a Store over db. The schema must already be migrated.
func New(db *sql.DB, logger *slog.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		db:       db,
		logger:   logger.With("system", "docstore.postgres"),
		retry:    2 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		watchers: make(map[int]*watcher),
	}
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) Query(ctx context.Context, q query.Query) ([]docstore.Document, error) {
	return s.query(ctx, s.db, q)
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	stmt, args := query.NewBuilder(table).BuildSingle(collection, id)
	doc, err := repository.QueryOne(ctx, s.db, stmt, args, scanDocument(collection))
	if err != nil {
		return nil, MapError(err)
	}
	return &doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return MapError(set(ctx, s.db, collection, id, data))
}

func (s *Store) Update(ctx context.Context, collection, id string, data map[string]any, ops []docstore.ArrayOp) error {
	_, err := repository.WithTx(ctx, s.db, func(t *sql.Tx) (struct{}, error) {
		return struct{}{}, update(ctx, t, collection, id, data, ops)
	})
	return MapError(err)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return MapError(remove(ctx, s.db, collection, id))
}

// Apply runs ops in a single transaction.
func (s *Store) Apply(ctx context.Context, ops []docstore.Operation) error {
	_, err := repository.WithTx(ctx, s.db, func(t *sql.Tx) (struct{}, error) {
		for i, op := range ops {
			var err error
			switch op.Kind {
			case docstore.OpSet:
				err = set(ctx, t, op.Collection, op.ID, op.Data)
			case docstore.OpUpdate:
				err = update(ctx, t, op.Collection, op.ID, op.Data, op.Array)
			case docstore.OpDelete:
				err = remove(ctx, t, op.Collection, op.ID)
			default:
				err = fmt.Errorf("%w: %q", docstore.ErrUnsupported, op.Kind)
			}
			if err != nil {
				return struct{}{}, fmt.Errorf("operation %d (%s %s/%s): %w", i, op.Kind, op.Collection, op.ID, err)
			}
		}
		return struct{}{}, nil
	})
	return MapError(err)
}

// Close stops the notification listener. The *sql.DB is owned by the
// caller and left open.
func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *Store) query(ctx context.Context, q repository.Querier, dq query.Query) ([]docstore.Document, error) {
	stmt, args, err := query.FromQuery(table, dq).BuildSelect()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", docstore.ErrInvalid, err)
	}
	docs, err := repository.QueryMany(ctx, q, stmt, args, scanDocument(dq.Collection))
	if err != nil {
		return nil, MapError(err)
	}
	return docs, nil
}

func set(ctx context.Context, t repository.Executor, collection, id string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	_, err = t.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		collection, id, raw,
	)
	return err
}

func update(ctx context.Context, t tx, collection, id string, data map[string]any, ops []docstore.ArrayOp) error {
	var raw []byte
	err := t.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE",
		collection, id,
	).Scan(&raw)
	if err != nil {
		return MapError(err)
	}

	var current map[string]any
	if err := json.Unmarshal(raw, &current); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}

	merged, err := docstore.ApplyUpdate(current, data, ops)
	if err != nil {
		return err
	}
	encoded, err := encode(merged)
	if err != nil {
		return err
	}

	return repository.ExecExpectOne(ctx, t,
		"UPDATE documents SET data = $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2",
		[]any{collection, id, encoded},
		docstore.ErrNotFound,
	)
}

func remove(ctx context.Context, t repository.Executor, collection, id string) error {
	_, err := t.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = $1 AND id = $2",
		collection, id,
	)
	return err
}

func encode(data map[string]any) (string, error) {
	n, err := docstore.Normalize(data)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("%w: %v", docstore.ErrInvalid, err)
	}
	return string(b), nil
}

func scanDocument(collection string) repository.ScanFunc[docstore.Document] {
	return func(s repository.Scanner) (docstore.Document, error) {
		var (
			doc docstore.Document
			raw []byte
		)
		if err := s.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return doc, err
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return doc, fmt.Errorf("decode %s/%s: %w", collection, doc.ID, err)
		}
		doc.Collection = collection
		return doc, nil
	}
}

// stdlibConn unwraps the pgx connection behind a database/sql conn.
func stdlibConn(driverConn any) (*stdlib.Conn, error) {
	c, ok := driverConn.(*stdlib.Conn)
	if !ok {
		return nil, fmt.Errorf("unexpected driver connection %T", driverConn)
	}
	return c, nil
}
