// Package database manages the PostgreSQL connection pool and schema
// migrations for services backed by pgx.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/job-board/pkg/lifecycle"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// System owns a *sql.DB whose lifetime follows the lifecycle coordinator.
type System interface {
	Connection() *sql.DB
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	db     *sql.DB
	cfg    *Config
	logger *slog.Logger
}

// New opens the connection pool. No connection is made until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		db:     db,
		cfg:    cfg,
		logger: logger.With("system", "database"),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.db
}

// Start verifies connectivity on startup and closes the pool on shutdown.
func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database system", "host", d.cfg.Host, "name", d.cfg.Name)

	lc.OnStartup("database", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, d.cfg.ConnTimeoutDuration())
		defer cancel()

		if err := d.db.PingContext(ctx); err != nil {
			d.logger.Error("database ping failed", "error", err)
			return fmt.Errorf("ping: %w", err)
		}
		d.logger.Info("database connection established")
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.logger.Info("closing database connection")
		if err := d.db.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
		}
	})

	return nil
}
