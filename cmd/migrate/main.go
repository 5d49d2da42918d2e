// Command migrate applies or reverts the schema of the postgres document
// store.
package main

import (
	"log"
	"os"

	"github.com/JaimeStill/job-board/internal/config"
	"github.com/JaimeStill/job-board/pkg/database"
	"github.com/JaimeStill/job-board/pkg/docstore/postgres"
	"github.com/JaimeStill/job-board/pkg/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the documents schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply pending migrations",
				Action: func(cctx *cli.Context) error {
					cfg, err := load()
					if err != nil {
						return err
					}
					return database.Migrate(&cfg.Database, postgres.Migrations, postgres.MigrationsDir, logging.New(&cfg.Logging))
				},
			},
			{
				Name:  "down",
				Usage: "revert applied migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Value: 1,
						Usage: "number of migrations to revert",
					},
				},
				Action: func(cctx *cli.Context) error {
					cfg, err := load()
					if err != nil {
						return err
					}
					return database.Rollback(&cfg.Database, postgres.Migrations, postgres.MigrationsDir, cctx.Int("steps"), logging.New(&cfg.Logging))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func load() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.FinalizeDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}
