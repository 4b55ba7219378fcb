package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/logger"
	"github.com/salcon83/lifebooks-ai/internal/server"
	"github.com/salcon83/lifebooks-ai/internal/story"
	"github.com/salcon83/lifebooks-ai/internal/workdir"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	l := logger.SetupLogger(cfg)

	l.Info("Starting Lifebooks server",
		"env", cfg.Env,
		"port", cfg.Port,
		"remote_gateway", cfg.GatewayURL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := workdir.Resolve(cfg)
	if err != nil {
		l.Error("Failed to resolve data paths", "error", err)
		os.Exit(1)
	}
	if err := workdir.Prep(paths); err != nil {
		l.Error("Failed to prepare data directory", "error", err)
		os.Exit(1)
	}

	catalog, err := interview.DefaultCatalog()
	if err != nil {
		l.Error("Failed to load story catalog", "error", err)
		os.Exit(1)
	}

	store, err := story.Open(ctx, paths.Database)
	if err != nil {
		l.Error("Failed to open story store", "error", err, "path", paths.Database)
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(cfg, l, server.Deps{
		Catalog: catalog,
		Gateway: gateway.FromConfig(cfg, l),
		Store:   store,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(srv) }()

	select {
	case <-ctx.Done():
		l.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			l.Error("Failed to start server", "error", err)
			store.Close()
			os.Exit(1)
		}
	}
}
