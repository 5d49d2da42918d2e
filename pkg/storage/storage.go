// Package storage provides blob storage over a filesystem directory or an
// S3-compatible object store, and the Blobs access layer built on top:
// uploads with progress, download URLs, deletes, and copy or move between
// paths.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/JaimeStill/job-board/pkg/lifecycle"
)

// Info describes a stored blob.
type Info struct {
	Key         string
	Size        int64
	ContentType string
	Updated     time.Time
}

// System defines the storage operations interface for blob storage.
type System interface {
	// Store saves size bytes from r at key, overwriting any existing blob.
	// Returns ErrInvalidKey if the key is empty or contains path traversal.
	Store(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Retrieve returns the data stored at key, or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete deletes the data at key. Returns nil if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Validate reports whether key exists and is accessible.
	Validate(ctx context.Context, key string) (bool, error)

	// Stat returns blob metadata, or ErrNotFound.
	Stat(ctx context.Context, key string) (*Info, error)

	// URL returns a URL from which the blob can be downloaded.
	URL(ctx context.Context, key string) (string, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// New creates the System selected by cfg.Backend.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Backend {
	case BackendS3:
		return newS3(cfg, logger)
	case BackendFilesystem, "":
		return newFilesystem(cfg, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// cleanKey normalizes key to a slash separated relative path.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
