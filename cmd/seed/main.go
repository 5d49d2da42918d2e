package main

import (
	"fmt"
	"log"
	"os"

	"github.com/JaimeStill/job-board/internal/config"
	"github.com/JaimeStill/job-board/internal/infrastructure"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "populate the document store and mint development tokens",
		Commands: []*cli.Command{
			seedCmd,
			listCmd,
			tokenCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var seedCmd = &cli.Command{
	Name:  "run",
	Usage: "apply seeders in one batch",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "only",
			Usage: "seeders to run (default all)",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "external fixture file (overrides embedded)",
		},
	},
	Action: func(cctx *cli.Context) error {
		if file := cctx.String("file"); file != "" {
			if s, ok := getSeeder("fixtures"); ok {
				s.(*FixtureSeeder).SetFile(file)
			}
		}

		infra, cfg, err := open()
		if err != nil {
			return err
		}
		defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

		if cfg.DocStore.Backend == config.DocStoreMemory {
			infra.Logger.Warn("seeding the in-memory document store; nothing persists after exit")
		}

		n, err := runSeeders(cctx.Context, infra.Docs, infra.Validator, cctx.StringSlice("only"))
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d documents\n", n)
		return nil
	},
}

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "list available seeders",
	Action: func(cctx *cli.Context) error {
		fmt.Println("Available seeders:")
		for _, s := range listSeeders() {
			fmt.Printf("  - %s: %s\n", s.Name(), s.Description())
		}
		return nil
	},
}

var tokenCmd = &cli.Command{
	Name:  "token",
	Usage: "issue a session token for a uid",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "uid",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "role",
			Usage: "record this role before issuing",
		},
	},
	Action: func(cctx *cli.Context) error {
		infra, cfg, err := open()
		if err != nil {
			return err
		}
		defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

		uid := cctx.String("uid")
		if role := cctx.String("role"); role != "" {
			if err := infra.Identity.SetRole(cctx.Context, uid, role); err != nil {
				return err
			}
		}

		session, err := infra.Identity.Issue(cctx.Context, uid)
		if err != nil {
			return err
		}
		fmt.Println(session.Token)
		return nil
	},
}

// open loads configuration and starts the infrastructure seeding writes
// through.
func open() (*infrastructure.Infrastructure, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := infra.Start(); err != nil {
		return nil, nil, err
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		return nil, nil, fmt.Errorf("startup failed: %w", err)
	}
	return infra, cfg, nil
}
