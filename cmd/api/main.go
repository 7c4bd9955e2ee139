package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/api/routes"
	"github.com/blacklisthub/blacklisthub-backend/internal/app"
	"github.com/blacklisthub/blacklisthub-backend/internal/config"
	"github.com/blacklisthub/blacklisthub-backend/internal/handlers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := app.NewLogger(cfg.LogLevel)
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg, logger, registry)
	cancelStart()
	if err != nil {
		logger.Error("failed to initialise application", "error", err)
		os.Exit(1)
	}
	defer application.Close(context.Background())

	router := routes.SetupRouter(cfg, routes.HandlerDependencies{
		AuthHandler:      handlers.NewAuthHandler(application.Auth),
		UserHandler:      handlers.NewUserHandler(application.Auth),
		BlacklistHandler: handlers.NewBlacklistHandler(application.Blacklist),
		LookupHandler:    handlers.NewLookupHandler(application.Lookup),
		TaxonomyHandler:  handlers.NewTaxonomyHandler(application.Taxonomy),
		TokenVerifier:    application.Auth,
		Gatherer:         registry,
		HealthCheck:      application.HealthCheck,
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in a goroutine so that it doesn't block
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exiting")
}
