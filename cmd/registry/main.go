// SmartChill Registry - authoritative device/user/service store.
//
// The Registry is the single source of truth for the fleet: which devices
// exist, who owns them, and which control services are alive. Every other
// SmartChill process talks to it over HTTP only.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/config"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/persistence"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registryapi"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	fmt.Printf("SmartChill Registry %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the Registry's components in order and blocks until ctx is
// canceled. Separated from main for testability.
func run(ctx context.Context) error {
	cfgPath := os.Getenv("SMARTCHILL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("registry: loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, "registry")

	persist, err := persistence.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("registry: opening state store: %w", err)
	}

	doc, err := persist.Load()
	if err != nil {
		return fmt.Errorf("registry: loading snapshot: %w", err)
	}
	if doc == nil {
		logger.Info("no existing snapshot, starting fresh", "path", cfg.StatePath)
		fresh := registry.EmptyDocument(cfg.ProjectOwner, cfg.ProjectName)
		doc = fresh
	}
	doc.Broker = registry.BrokerInfo{Address: cfg.Broker.IP, Port: cfg.Broker.Port}

	store := registry.New(doc, persist, logger)
	models, err := config.LoadModels(cfg.ModelsPath)
	if err != nil {
		return fmt.Errorf("registry: loading device models: %w", err)
	}
	if err := store.SeedModels(models); err != nil {
		return fmt.Errorf("registry: seeding device models: %w", err)
	}

	server, err := registryapi.New(registryapi.Deps{
		Addr:   cfg.HTTPAddr,
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("registry: building http server: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("registry: starting http server: %w", err)
	}

	logger.Info("registry ready", "addr", cfg.HTTPAddr)
	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := server.Close(); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
