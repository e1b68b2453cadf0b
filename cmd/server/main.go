package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Nicola-Bdewi/smartrajet/internal/cache"
	"github.com/Nicola-Bdewi/smartrajet/internal/clients/directions"
	"github.com/Nicola-Bdewi/smartrajet/internal/clients/opendata"
	"github.com/Nicola-Bdewi/smartrajet/internal/config"
	v1 "github.com/Nicola-Bdewi/smartrajet/internal/handler/http/v1"
	"github.com/Nicola-Bdewi/smartrajet/internal/notify"
	"github.com/Nicola-Bdewi/smartrajet/internal/services"
	"github.com/Nicola-Bdewi/smartrajet/internal/store"
	"github.com/Nicola-Bdewi/smartrajet/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open address store: %v", err)
	}
	addressRepo := store.NewAddressRepository(db)
	alertLog := store.NewAlertLog(db)
	log.WithField("path", cfg.Store.Path).Info("Address store ready")

	datasetClient := opendata.NewClient(cfg.Datasets.ObstructionsURL, cfg.Datasets.ImpactsURL)
	directionsClient := directions.NewClient(cfg.Directions.APIKey)
	if cfg.Directions.APIKey == "" {
		log.Warn("No directions API key configured, route and geocode endpoints disabled")
	}

	cacheInstance := cache.NewCache()

	constructionService := services.NewConstructionService(datasetClient, directionsClient, cacheInstance, cfg, log)

	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Secret, cfg.Notify.Timeout, log)
	sweeper := services.NewSweeper(constructionService, addressRepo, alertLog, notifier, cfg.Sweep.RadiusMeters, log)
	if err := sweeper.Start(context.Background(), cfg.Sweep.Interval); err != nil {
		log.Fatalf("Failed to start geofence sweeper: %v", err)
	}
	defer sweeper.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(v1.RequestID())

	handler := v1.NewHandler(constructionService, addressRepo, sweeper, log)
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.WithField("port", cfg.Server.Port).Info("HTTP server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
