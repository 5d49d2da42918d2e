// Package main provides the seed command for populating the document store
// with fixture data and minting development tokens. Seeders add their
// writes to one batch so a run applies entirely or not at all.
package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/validation"
)

// Seeder defines the interface for document store seeders.
type Seeder interface {
	// Name returns the unique identifier for this seeder.
	Name() string

	// Description returns a human-readable description of what this seeder does.
	Description() string

	// Seed validates its data and adds the writes to batch.
	Seed(ctx context.Context, batch *docstore.Batch, v *validation.Validator) error
}

var seeders = map[string]Seeder{}

// registerSeeder adds a seeder to the global registry.
// Seeders self-register via init() functions.
func registerSeeder(s Seeder) {
	seeders[s.Name()] = s
}

func getSeeder(name string) (Seeder, bool) {
	s, ok := seeders[name]
	return s, ok
}

// listSeeders returns all registered seeders ordered by name.
func listSeeders() []Seeder {
	result := make([]Seeder, 0, len(seeders))
	for _, s := range seeders {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// runSeeders collects the writes of every named seeder and commits them in
// one batch. An empty names list runs all seeders.
func runSeeders(ctx context.Context, docs *docstore.System, v *validation.Validator, names []string) (int, error) {
	selected := listSeeders()
	if len(names) > 0 {
		selected = selected[:0:0]
		for _, name := range names {
			s, ok := getSeeder(name)
			if !ok {
				return 0, fmt.Errorf("seeder not found: %s", name)
			}
			selected = append(selected, s)
		}
	}

	batch := docs.Batch()
	for _, s := range selected {
		if err := s.Seed(ctx, batch, v); err != nil {
			return 0, fmt.Errorf("seed %s: %w", s.Name(), err)
		}
	}

	if err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit seed batch: %w", err)
	}
	return len(batch.Operations()), nil
}
