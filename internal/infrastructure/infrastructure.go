// Package infrastructure provides core service initialization for application startup.
// It assembles the shared systems (logging, document store, blob storage,
// identity, validation) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/job-board/internal/config"
	"github.com/JaimeStill/job-board/pkg/database"
	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/docstore/firestoredb"
	"github.com/JaimeStill/job-board/pkg/docstore/memory"
	"github.com/JaimeStill/job-board/pkg/docstore/postgres"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/lifecycle"
	"github.com/JaimeStill/job-board/pkg/logging"
	"github.com/JaimeStill/job-board/pkg/notify"
	"github.com/JaimeStill/job-board/pkg/storage"
	"github.com/JaimeStill/job-board/pkg/validation"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil unless the postgres document store is selected.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Docs      *docstore.System
	Storage   storage.System
	Blobs     *storage.Blobs
	Identity  *identity.System
	Validator *validation.Validator
	Notify    notify.Sink
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Notify:    notify.NewLogSink(logger),
	}

	store, err := infra.newStore(lc.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("docstore init failed: %w", err)
	}
	infra.Docs = docstore.New(store, logger)

	blobs, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	infra.Storage = blobs
	infra.Blobs = storage.NewBlobs(blobs, &cfg.Storage, logger)

	infra.Identity = identity.New(&cfg.Auth, infra.Docs, logger)

	infra.Validator, err = validation.New()
	if err != nil {
		return nil, fmt.Errorf("validation init failed: %w", err)
	}

	return infra, nil
}

func (i *Infrastructure) newStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.DocStore.Backend {
	case config.DocStorePostgres:
		db, err := database.New(&cfg.Database, i.Logger)
		if err != nil {
			return nil, err
		}
		i.Database = db
		return postgres.New(db.Connection(), i.Logger), nil
	case config.DocStoreFirestore:
		return firestoredb.New(ctx, cfg.DocStore.Firestore, i.Logger)
	default:
		i.Logger.Warn("using in-memory document store; data is lost on shutdown")
		return memory.New(), nil
	}
}

// Start initializes all infrastructure systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.Docs.Close(); err != nil {
			i.Logger.Error("docstore close failed", "error", err)
		}
	})
	return nil
}
