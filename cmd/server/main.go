package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/pharmacy-marketplace/internal/config"
	"github.com/iliyamo/pharmacy-marketplace/internal/database"
	"github.com/iliyamo/pharmacy-marketplace/internal/handler"
	"github.com/iliyamo/pharmacy-marketplace/internal/logger"
	"github.com/iliyamo/pharmacy-marketplace/internal/metrics"
	"github.com/iliyamo/pharmacy-marketplace/internal/queue"
	"github.com/iliyamo/pharmacy-marketplace/internal/repository"
	"github.com/iliyamo/pharmacy-marketplace/internal/router"
	"github.com/iliyamo/pharmacy-marketplace/internal/search"
	"github.com/iliyamo/pharmacy-marketplace/internal/service"
	"github.com/iliyamo/pharmacy-marketplace/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		lg.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			lg.Fatal("database migrate failed", zap.Error(err))
		}
	}

	// Redis is optional: without it caching and rate limiting are off.
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		lg.Warn("redis unavailable, cache and rate limit disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	files, err := storage.New(cfg.Storage)
	if err != nil {
		lg.Fatal("storage init failed", zap.Error(err))
	}

	events := service.NewEventPublisher(cfg.Broker.Enabled, cfg.Broker.URL, lg)
	if cfg.Broker.Enabled {
		consumer := &queue.AuditConsumer{
			URL:   cfg.Broker.URL,
			Audit: logger.NewFileOnly(cfg.Log.AuditFile, cfg.Log),
			Log:   lg.Named("audit"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	pharmacists := repository.NewPharmacistRepo(db)
	owners := repository.NewPharmacyOwnerRepo(db)
	products := repository.NewProductRepo(db)

	searcher := search.NewService(products, pharmacists, search.Options{
		Policy: search.TierPolicy{
			NoneKm:    cfg.Search.NoneRadiusKm,
			BasicKm:   cfg.Search.BasicRadiusKm,
			PremiumKm: cfg.Search.PremiumRadiusKm,
		},
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		Observe:         metrics.ObserveSearch,
	})

	e := router.New(router.Deps{
		Cfg:    cfg,
		Log:    lg,
		Redis:  rdb,
		Health: &handler.HealthHandler{DB: db, Redis: rdb},
		Auth:   handler.NewAuthHandler(cfg, users, tokens, pharmacists, owners),
		Pharmacists: &handler.PharmacistHandler{
			Pharmacists:   pharmacists,
			Owners:        owners,
			Searcher:      searcher,
			Files:         files,
			MaxUpload:     cfg.Storage.MaxUploadSize,
			SearchTimeout: cfg.Search.Timeout,
		},
		Owners: &handler.PharmacyOwnerHandler{
			Owners:           owners,
			Events:           events,
			SubscriptionDays: cfg.Search.SubscriptionDays,
		},
		Store: &handler.StoreHandler{
			Products:      products,
			Owners:        owners,
			Searcher:      searcher,
			Events:        events,
			SearchTimeout: cfg.Search.Timeout,
		},
	})
	e.Server.ReadHeaderTimeout = 10 * time.Second

	addr := ":" + cfg.Port
	go func() {
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}
