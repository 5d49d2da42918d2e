package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/job-board/internal/companies"
	"github.com/JaimeStill/job-board/internal/jobs"
	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/validation"
)

//go:embed seeds/*.json
var seedFiles embed.FS

func init() {
	registerSeeder(&FixtureSeeder{now: time.Now})
}

// FixtureData is the JSON structure of fixture files. Every record keeps
// its id so runs are idempotent.
type FixtureData struct {
	Users     []map[string]any `json:"users"`
	Companies []map[string]any `json:"companies"`
	Jobs      []map[string]any `json:"jobs"`
}

// FixtureSeeder writes users, companies and jobs from an embedded file or
// an external file path.
type FixtureSeeder struct {
	file string
	now  func() time.Time
}

func (s *FixtureSeeder) Name() string {
	return "fixtures"
}

func (s *FixtureSeeder) Description() string {
	return "Seeds sample users, companies and job postings"
}

// SetFile configures an external seed file path, overriding the embedded default.
func (s *FixtureSeeder) SetFile(path string) {
	s.file = path
}

// Seed validates every company and job against its schema and sets each
// record with fresh timestamps.
func (s *FixtureSeeder) Seed(ctx context.Context, batch *docstore.Batch, v *validation.Validator) error {
	data, err := s.load()
	if err != nil {
		return err
	}

	now := docstore.Timestamp(s.now())
	stamp := func(doc map[string]any) (string, map[string]any, error) {
		id, _ := doc["id"].(string)
		if id == "" {
			return "", nil, fmt.Errorf("record without id: %v", doc)
		}
		out := make(map[string]any, len(doc)+2)
		for k, val := range doc {
			if k != "id" {
				out[k] = val
			}
		}
		out["createdAt"] = now
		out["updatedAt"] = now
		return id, out, nil
	}

	for _, u := range data.Users {
		uid, _ := u["uid"].(string)
		if uid == "" {
			return fmt.Errorf("user without uid: %v", u)
		}
		u["id"] = uid
		id, doc, err := stamp(u)
		if err != nil {
			return err
		}
		batch.Set(identity.UsersCollection, id, doc)
	}

	for _, c := range data.Companies {
		id, doc, err := stamp(c)
		if err != nil {
			return err
		}
		if err := v.Validate(validation.Company, doc); err != nil {
			return fmt.Errorf("company %s: %w", id, err)
		}
		batch.Set(companies.Collection, id, doc)
	}

	for _, j := range data.Jobs {
		id, doc, err := stamp(j)
		if err != nil {
			return err
		}
		if _, ok := doc["status"]; !ok {
			doc["status"] = jobs.StatusActive
		}
		if err := v.Validate(validation.Job, doc); err != nil {
			return fmt.Errorf("job %s: %w", id, err)
		}
		batch.Set(jobs.Collection, id, doc)
	}

	return nil
}

func (s *FixtureSeeder) load() (*FixtureData, error) {
	var content []byte
	var err error

	if s.file != "" {
		content, err = os.ReadFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	} else {
		content, err = seedFiles.ReadFile("seeds/fixtures.json")
		if err != nil {
			return nil, fmt.Errorf("read embedded seed file: %w", err)
		}
	}

	var data FixtureData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &data, nil
}
