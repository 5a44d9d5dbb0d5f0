package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/vocabflash/internal/api"
	"github.com/vytor/vocabflash/internal/cards"
	"github.com/vytor/vocabflash/internal/config"
	"github.com/vytor/vocabflash/internal/jobs"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/source"
	"github.com/vytor/vocabflash/internal/storage"
	"github.com/vytor/vocabflash/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("VocabFlash Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("default_source_url=%s", cfg.DefaultSourceURL)
	log.Debug("progress_backend=%s", cfg.ProgressBackend)
	log.Debug("progress_dir=%s", cfg.ProgressDir)
	log.Debug("card_identity=%s", cfg.CardIdentity)
	log.Debug("fetch_timeout=%v", cfg.FetchTimeout)
	log.Debug("refresh_interval=%v", cfg.RefreshInterval)
	log.Debug("refresh_worker_count=%d", cfg.RefreshWorkerCount)
	log.Debug("refresh_queue_size=%d", cfg.RefreshQueueSize)

	store, err := storage.Open(cfg)
	if err != nil {
		log.Error("failed to open progress store: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing progress store")
		store.Close()
	}()

	studyService := services.NewStudyService(
		store.Progress,
		source.New(cfg.FetchTimeout),
		services.WithIdentity(cards.ParseIdentity(cfg.CardIdentity)),
	)

	// Background refreshes share the study service with the HTTP handlers.
	refreshPool := worker.NewPool(cfg.RefreshWorkerCount, cfg.RefreshQueueSize)
	jobQueue := jobs.NewWorkerQueue(refreshPool, worker.RefreshFunc(func(ctx context.Context, src string, bust bool) error {
		_, err := studyService.Refresh(ctx, src, bust)
		return err
	}))
	ticker := jobs.NewTicker(jobQueue, studyService.Sources, cfg.RefreshInterval)

	srv := &api.Server{
		StudyService:  studyService,
		JobQueue:      jobQueue,
		Store:         store,
		DefaultSource: cfg.DefaultSourceURL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	refreshPool.Start(ctx)
	if err := ticker.Start(); err != nil {
		log.Error("failed to start refresh ticker: %v", err)
		os.Exit(1)
	}

	if cfg.DefaultSourceURL != "" {
		if err := jobQueue.EnqueueRefresh(cfg.DefaultSourceURL, false); err != nil {
			log.Warn("failed to queue initial load: %v", err)
		}
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping refresh ticker")
	ticker.Stop()

	// Cancel worker context
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping refresh pool")
	refreshPool.Stop()

	log.Info("===========================================")
	log.Info("VocabFlash Server Stopped")
	log.Info("===========================================")
}
