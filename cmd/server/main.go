package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/job-board/internal/config"
	"github.com/JaimeStill/job-board/internal/infrastructure"
	"github.com/JaimeStill/job-board/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}

	log.Println("server stopped gracefully")
}

// run starts infrastructure, modules and the HTTP listener, then blocks
// until ctx is cancelled and shuts everything down within the configured
// timeout.
func run(ctx context.Context, cfg *config.Config) error {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return fmt.Errorf("infrastructure init failed: %w", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return fmt.Errorf("module init failed: %w", err)
	}

	router := buildRouter(infra, cfg)
	modules.Mount(router)

	logger := infra.Logger.With("system", "main")
	logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"docstore", string(cfg.DocStore.Backend),
		"storage", string(cfg.Storage.Backend),
	)

	if err := infra.Start(); err != nil {
		return fmt.Errorf("infrastructure start failed: %w", err)
	}

	srv := server.New(&cfg.Server, router, infra.Logger)
	if err := srv.Start(infra.Lifecycle); err != nil {
		return fmt.Errorf("http start failed: %w", err)
	}

	go func() {
		if err := infra.Lifecycle.WaitForStartup(); err != nil {
			logger.Error("startup failed, service not ready", "error", err)
			return
		}
		logger.Info("all subsystems ready")
	}()

	<-ctx.Done()
	logger.Info("initiating shutdown")

	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
