package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/api"
	"github.com/mkret/firefly-enricher/internal/api/handlers"
	"github.com/mkret/firefly-enricher/internal/application/allegro"
	"github.com/mkret/firefly-enricher/internal/application/blik"
	"github.com/mkret/firefly-enricher/internal/application/enrichment"
	"github.com/mkret/firefly-enricher/internal/infrastructure/config"
	"github.com/mkret/firefly-enricher/internal/infrastructure/logging"
	"github.com/mkret/firefly-enricher/internal/infrastructure/storage"
)

func main() {
	cfg := config.LoadOrEnv()
	log := logging.NewLogger(cfg.Logging)

	if cfg.Firefly.BaseURL == "" || cfg.Firefly.Token == "" {
		log.Error("firefly base url and token are required")
		os.Exit(1)
	}

	store, err := storage.NewStore(cfg.Storage.DatabasePath, logging.NewComponentLogger(cfg.Logging, "storage"))
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ledgerClient := firefly.NewClient(cfg.Firefly.BaseURL, cfg.Firefly.Token)
	ledgerSvc := enrichment.NewService(ledgerClient, logging.NewComponentLogger(cfg.Logging, "ledger"))

	blikFilter := enrichment.DescriptionFilter{Text: cfg.Filters.Blik.Text, Exact: cfg.Filters.Blik.Exact}
	allegroFilter := enrichment.DescriptionFilter{Text: cfg.Filters.Allegro.Text, Exact: cfg.Filters.Allegro.Exact}

	stats := enrichment.NewStatsService(ledgerSvc, blikFilter, allegroFilter, logging.NewComponentLogger(cfg.Logging, "stats"))
	enricher := enrichment.NewEnrichmentService(ledgerSvc, logging.NewComponentLogger(cfg.Logging, "enricher"))
	screening := enrichment.NewScreeningService(ledgerSvc, blikFilter, allegroFilter, logging.NewComponentLogger(cfg.Logging, "screening"))

	blikSvc := blik.NewService(enricher, stats, blikFilter, "", logging.NewComponentLogger(cfg.Logging, "blik"))
	allegroSvc := allegro.NewService(
		store,
		allegro.NewClientFactory(cfg.Allegro.BaseURL),
		enricher,
		stats,
		allegro.NewStateStore(),
		allegroFilter,
		logging.NewComponentLogger(cfg.Logging, "allegro"),
	)

	server := api.NewServer(cfg.Server, logging.NewComponentLogger(cfg.Logging, "api"),
		handlers.NewBlikHandler(blikSvc),
		handlers.NewAllegroHandler(allegroSvc),
		handlers.NewTxHandler(stats, screening, ledgerSvc),
		handlers.NewSecretsHandler(store),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
