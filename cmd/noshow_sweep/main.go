package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"hotelstay/internal/config"
	"hotelstay/internal/database"
	appLogger "hotelstay/internal/pkg/logger"
	"hotelstay/internal/server"
)

// Run from cron; every overdue PENDING or CONFIRMED booking becomes NO_SHOW.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := appLogger.New(cfg.LogLevel, cfg.LogFormat, "hotel-noshow-sweep")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}

	app, err := server.New(ctx, cfg, db, zlog)
	if err != nil {
		zlog.Fatal("wiring failed", zap.Error(err))
	}
	defer func() { _ = app.Close() }()

	res, err := app.Engine.Lifecycle.SweepNoShows(ctx)
	if err != nil {
		zlog.Fatal("no-show sweep failed", zap.Error(err))
	}
	zlog.Info("no-show sweep completed",
		zap.Int("marked", len(res.Marked)),
		zap.Int("failed", len(res.Failed)),
	)
}
