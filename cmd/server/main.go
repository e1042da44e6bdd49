package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/car-ratings/internal/config"
	httpserver "github.com/Clark-Hu/car-ratings/internal/http"
	"github.com/Clark-Hu/car-ratings/internal/logging"
	"github.com/Clark-Hu/car-ratings/internal/repository"
	"github.com/Clark-Hu/car-ratings/internal/service"
	"github.com/Clark-Hu/car-ratings/internal/store"
	"github.com/Clark-Hu/car-ratings/internal/vpic"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", "car-ratings"))

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer st.Close()

	vehicles, err := vpic.NewClient(cfg.VPICURL, vpic.Options{
		Timeout:    time.Duration(cfg.VPICTimeoutSecs) * time.Second,
		MaxRetries: cfg.VPICMaxRetries,
		RateLimit:  cfg.VPICRateLimit,
		RateBurst:  cfg.VPICRateBurst,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("init vpic client", zap.Error(err))
	}

	repo := repository.New(st)
	server := httpserver.New(cfg, st, httpserver.Services{
		Registry: service.NewRegistry(repo.Cars, vehicles, logger),
		Recorder: service.NewRecorder(repo.Ratings, logger),
		Queries:  service.NewQueries(repo.Ratings, cfg.PopularLimit),
	}, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}
