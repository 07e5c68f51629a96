package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/config"
	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/pos"
	"github.com/omrysinwany/InvoTrack/internal/repository"
	"github.com/omrysinwany/InvoTrack/internal/router"
	"github.com/omrysinwany/InvoTrack/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker pool for post-commit POS synchronization. The relay and its
	// handlers are wired here (composition root) so the pool has full access
	// to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	posBreaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	extractionBreaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	extractor := infra.NewExtractionClient(cfg.ExtractionServiceURL, extractionBreaker)

	supplierRepo := repository.NewSupplierRepository(db)
	productRepo := repository.NewProductRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	posSettingsRepo := repository.NewPosSettingsRepository(db)

	relay := pos.NewRelay(posSettingsRepo, supplierRepo, productRepo, documentRepo, posBreaker)
	dispatcher := worker.NewDispatcher(rdb)
	handlers := map[string]worker.Handler{
		worker.JobTypePosSync: worker.NewPosSyncWorker(relay),
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

	r := router.New(cfg, router.Deps{
		DB:         db,
		Redis:      rdb,
		PosBreaker: posBreaker,
		Extractor:  extractor,
		Dispatcher: dispatcher,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("InvoTrack backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
