package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamcanvas-app/dreamcanvas/internal/archive"
	"github.com/dreamcanvas-app/dreamcanvas/internal/config"
	"github.com/dreamcanvas-app/dreamcanvas/internal/database"
	"github.com/dreamcanvas-app/dreamcanvas/internal/handlers"
	"github.com/dreamcanvas-app/dreamcanvas/internal/notify"
	"github.com/dreamcanvas-app/dreamcanvas/internal/provider"
	"github.com/dreamcanvas-app/dreamcanvas/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if !cfg.Production() {
		logger.SetLevel(logrus.DebugLevel)
	}

	var db *gorm.DB
	if cfg.DatabaseEnabled() {
		var err error
		db, err = database.NewPostgresDB(logger, database.PostgresConfig{
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			DBName:   cfg.PostgresDatabase,
			SSLMode:  cfg.PostgresSSLMode,
		})
		if err != nil {
			logger.WithError(err).Fatal("Database initialization failed")
		}
	} else {
		logger.Info("No database configured, gallery and access log persistence disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providerClient := provider.NewClient(logger, cfg)
	hub := notify.NewHub(logger)

	var store storage.Storage
	var archiver handlers.ImageArchiver
	if db != nil && cfg.ArchiveEnabled() {
		store = storage.NewS3Storage(cfg, db)
		worker := archive.NewArchiver(logger, db, store, cfg)
		go worker.Start(ctx)
		archiver = worker
	} else {
		logger.Info("Image archiving disabled")
	}

	handler := handlers.NewHandler(logger, cfg, providerClient, hub, db, store, archiver)

	r := mux.NewRouter()
	r.Use(handlers.LoggingMiddleware(logger, db))
	handlers.RegisterRoutes(r, handler, hub, cfg)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint

		cancel()
		hub.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
		}
	}()

	logger.WithField("addr", server.Addr).Info("Starting server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("Server failed")
	}
}
