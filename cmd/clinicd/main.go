package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"clinic-reservation-backend/config"
	"clinic-reservation-backend/internal/api"
	"clinic-reservation-backend/internal/app"
	"clinic-reservation-backend/internal/db"
	"clinic-reservation-backend/internal/notification"
	"clinic-reservation-backend/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("no configuration at %s, using defaults", configPath)
		cfg = config.Default()
	} else if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger := app.NewLogger(cfg.Env)
	defer logger.Sync()

	days, err := cfg.Reservation.GridDays()
	if err != nil {
		logger.Fatal("Invalid reservation grid", zap.Error(err))
	}
	loc := cfg.Reservation.Location()

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	logger.Info("Database initialized", zap.String("driver", cfg.Database.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, store.Options{
		NoShowThreshold: cfg.Reservation.NoShowThreshold,
		Days:            days,
		Times:           cfg.Reservation.Times,
		Logger:          logger,
	})

	responseCache := api.NewResponseCache(cfg.Server.CacheTTL)
	routerOpts := api.Options{
		Server:          cfg.Server,
		Location:        loc,
		Logger:          logger,
		Cache:           responseCache,
		DefaultCapacity: cfg.Reservation.DefaultCapacity,
	}

	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Fatal("VAPID keys must be configured when push is enabled")
		}
		webpushOptions := &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger)
		pool.Start(ctx)
		routerOpts.Webpush = webpushOptions
		routerOpts.Notifier = pool
		logger.Info("Push notifications enabled", zap.Int("workers", cfg.WorkerPool.Size))
	}

	scheduler, err := app.NewScheduler(cfg.Reservation.ResetCron, loc, appStore, logger)
	if err != nil {
		logger.Fatal("Failed to create weekly reset scheduler", zap.Error(err))
	}
	scheduler.OnReset(func(store.ResetSummary) { responseCache.Flush() })
	// Catch up on a reset missed while the server was down.
	if _, err := scheduler.RunOnce(ctx); err != nil {
		logger.Warn("Catch-up weekly reset failed", zap.Error(err))
	}
	scheduler.Start()
	logger.Info("Next weekly reset", zap.Time("at", scheduler.Next()))

	router := api.NewRouter(appStore, routerOpts)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
	cancel()

	logger.Info("Server gracefully stopped")
}
