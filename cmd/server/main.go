package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/specscan/internal/api"
	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/catalog"
	"github.com/dgallion1/specscan/internal/classify"
	"github.com/dgallion1/specscan/internal/config"
	"github.com/dgallion1/specscan/internal/extract"
	"github.com/dgallion1/specscan/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			log.Error("failed to load catalog", "path", cfg.CatalogFile, "error", err)
			os.Exit(1)
		}
	}

	// Initialize clients.
	llm, err := extract.New(cfg.LLM())
	if err != nil {
		log.Error("failed to create model client", "error", err)
		os.Exit(1)
	}
	store, err := cache.OpenStore(ctx, cfg.Cache(), log)
	if err != nil {
		log.Error("failed to open document cache", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	docCache := cache.New(store, log)

	// Initialize pipeline.
	analyzer := pipeline.NewAnalyzer(pipeline.Options{
		Catalog:    cat,
		Cache:      docCache,
		Scanner:    classify.NewScanner(classify.NewClassifier(llm), cfg.Scan(), log),
		Extractor:  extract.NewDivisionExtractor(llm, log),
		Tiles:      cfg.Tiles(),
		HashPrefix: cfg.CacheHashPrefix,
	}, log)
	orch := pipeline.NewOrchestrator(cfg.Jobs(), analyzer, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, llm, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // a full tile scan of a large manual is slow
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llm.Close()
		if err := docCache.Close(); err != nil {
			log.Warn("closing document cache", "error", err)
		}
	}()

	log.Info("starting specscan",
		"port", cfg.Port,
		"provider", llm.Name(),
		"model", llm.Model(),
		"cache", cfg.CacheBackend,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
