package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/job-board/pkg/docstore/firestoredb"
)

// DocStoreBackend names a document store implementation.
type DocStoreBackend string

const (
	DocStoreMemory    DocStoreBackend = "memory"
	DocStorePostgres  DocStoreBackend = "postgres"
	DocStoreFirestore DocStoreBackend = "firestore"
)

const (
	EnvDocStoreBackend             = "DOCSTORE_BACKEND"
	EnvDocStoreFirestoreProject    = "DOCSTORE_FIRESTORE_PROJECT_ID"
	EnvDocStoreFirestoreDatabase   = "DOCSTORE_FIRESTORE_DATABASE_ID"
	EnvDocStoreFirestoreCredential = "DOCSTORE_FIRESTORE_CREDENTIALS_FILE"
)

// DocStoreConfig selects the document store backend. The postgres backend
// uses the [database] section.
type DocStoreConfig struct {
	Backend   DocStoreBackend    `toml:"backend"`
	Firestore firestoredb.Config `toml:"firestore"`
}

func (c *DocStoreConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *DocStoreConfig) Merge(overlay *DocStoreConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Firestore.ProjectID != "" {
		c.Firestore.ProjectID = overlay.Firestore.ProjectID
	}
	if overlay.Firestore.DatabaseID != "" {
		c.Firestore.DatabaseID = overlay.Firestore.DatabaseID
	}
	if overlay.Firestore.CredentialsFile != "" {
		c.Firestore.CredentialsFile = overlay.Firestore.CredentialsFile
	}
}

func (c *DocStoreConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = DocStoreMemory
	}
}

func (c *DocStoreConfig) loadEnv() {
	if v := os.Getenv(EnvDocStoreBackend); v != "" {
		c.Backend = DocStoreBackend(v)
	}
	if v := os.Getenv(EnvDocStoreFirestoreProject); v != "" {
		c.Firestore.ProjectID = v
	}
	if v := os.Getenv(EnvDocStoreFirestoreDatabase); v != "" {
		c.Firestore.DatabaseID = v
	}
	if v := os.Getenv(EnvDocStoreFirestoreCredential); v != "" {
		c.Firestore.CredentialsFile = v
	}
}

func (c *DocStoreConfig) validate() error {
	switch c.Backend {
	case DocStoreMemory, DocStorePostgres:
	case DocStoreFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore.project_id required")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}
