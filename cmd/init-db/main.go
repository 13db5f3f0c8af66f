package main

import (
	"context"
	"log"

	"pwarestaurants/database"
	"pwarestaurants/internal/config"
	"pwarestaurants/internal/logger"
)

// init-db drops the schema, re-creates it and loads the demo restaurants.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logr := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.ConnectDB(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("could not connect to database")
	}
	defer database.Close(db)

	if err := database.Reset(db, cfg.DBDriver, logr); err != nil {
		logr.WithError(err).Fatal("could not reset schema")
	}
	if err := database.Seed(context.Background(), db); err != nil {
		logr.WithError(err).Fatal("could not seed database")
	}
	logr.WithField("driver", cfg.DBDriver).Info("Database initialized")
}
