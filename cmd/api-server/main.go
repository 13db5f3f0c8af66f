package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pwarestaurants/database"
	"pwarestaurants/internal/cache"
	"pwarestaurants/internal/config"
	"pwarestaurants/internal/http-api/server"
	"pwarestaurants/internal/http-api/service"
	"pwarestaurants/internal/logger"
	"pwarestaurants/internal/storage"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logr := logger.New(cfg.LogLevel, cfg.LogFormat)

	// 2. Connect to the database
	db, err := database.ConnectDB(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("could not connect to database")
	}
	defer database.Close(db)

	// 3. Icon storage and optional cache
	icons, err := storage.NewIconStore(cfg.IconsDir, cfg.UploadMaxSize)
	if err != nil {
		logr.WithError(err).Fatal("could not prepare icon directory")
	}

	var topCache service.TopRatedCache
	if cfg.CacheEnabled() {
		c, err := cache.NewTopRatedCache(cfg.RedisURL, cfg.CacheTTL, logr)
		if err != nil {
			logr.WithError(err).Warn("redis unavailable, top-rated cache disabled")
		} else {
			defer c.Close()
			topCache = c
		}
	}

	// 4. HTTP server
	srv := server.New(server.Deps{
		Config: cfg,
		DB:     db,
		Log:    logr,
		Icons:  icons,
		Cache:  topCache,
	})

	errCh := make(chan error, 1)
	go func() {
		logr.Infof("Server running at http://%s", cfg.Addr())
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logr.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		logr.WithError(err).Error("server stopped")
	}

	if err := srv.Shutdown(cfg.ShutdownTimeout); err != nil {
		logr.WithError(err).Error("graceful shutdown failed")
	}
}
