package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"hotelstay/internal/config"
	"hotelstay/internal/database"
	"hotelstay/internal/domain"
	appLogger "hotelstay/internal/pkg/logger"
)

func main() {
	reset := flag.Bool("reset", false, "delete existing data before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := appLogger.New(cfg.LogLevel, cfg.LogFormat, "hotel-seed")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()
	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		zlog.Fatal("migrate failed", zap.Error(err))
	}

	if *reset {
		zlog.Info("cleaning old data")
		// Children first.
		for _, table := range []string{
			"deposit_invoice_bookings", "deposit_invoices", "service_charges", "service_items",
			"pre_allocations", "stay_segments", "bookings", "room_type_prices", "pricing_periods",
			"rooms", "room_types",
		} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				zlog.Fatal("cleanup failed", zap.String("table", table), zap.Error(err))
			}
		}
	}

	var existing int64
	if err := db.Model(&domain.RoomType{}).Count(&existing).Error; err != nil {
		zlog.Fatal("count room types", zap.Error(err))
	}
	if existing > 0 {
		zlog.Info("database already seeded, use -reset to reseed", zap.Int64("room_types", existing))
		return
	}

	cat, err := database.Seed(ctx, db)
	if err != nil {
		zlog.Fatal("seed failed", zap.Error(err))
	}
	zlog.Info("seed completed",
		zap.Int("rooms", len(cat.Rooms)),
		zap.Int64("base_period_id", cat.BasePeriod.ID),
		zap.Int64("special_period_id", cat.TetPeriod.ID),
	)
}
