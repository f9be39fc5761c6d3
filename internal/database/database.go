package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"hotelstay/internal/domain"
)

func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &gorm.Config{Logger: gormLogger(log)}

	if IsPostgres(dsn) {
		log.Info("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.Info("using SQLite for local development", zap.String("dsn", dsn))
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	// Transactions on sqlite run one at a time.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func gormLogger(log *zap.Logger) logger.Interface {
	switch {
	case log.Core().Enabled(zapcore.DebugLevel):
		return logger.Default.LogMode(logger.Info)
	case log.Core().Enabled(zapcore.WarnLevel):
		return logger.Default.LogMode(logger.Warn)
	}
	return logger.Default.LogMode(logger.Silent)
}

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&domain.RoomType{},
		&domain.Room{},
		&domain.PricingPeriod{},
		&domain.RoomTypePrice{},
		&domain.Booking{},
		&domain.StaySegment{},
		&domain.PreAllocation{},
		&domain.ServiceItem{},
		&domain.ServiceCharge{},
		&domain.DepositInvoice{},
		&domain.DepositInvoiceBooking{},
	}
}

// Migrate creates the schema and the storage backstops: at most one ACTIVE
// segment per room and start instant, a single base pricing period, and on
// postgres exclusion constraints against overlapping ACTIVE segments and
// overlapping special periods.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return applyBackstops(ctx, sqlDB, db.Dialector.Name())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func applyBackstops(ctx context.Context, db execer, dialect string) error {
	for _, stmt := range backstopStatements(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply backstop: %w", err)
		}
	}
	return nil
}

func backstopStatements(dialect string) []string {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_segments_active_room_start ON stay_segments (room_id, starts_at) WHERE status = 'ACTIVE'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_pricing_single_base ON pricing_periods (kind) WHERE kind = 'BASE'`,
	}
	if dialect != "postgres" {
		return stmts
	}

	return append(stmts,
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ex_segments_active_room_overlap') THEN
    ALTER TABLE stay_segments ADD CONSTRAINT ex_segments_active_room_overlap
      EXCLUDE USING gist (room_id WITH =, tstzrange(starts_at, ends_at, '[)') WITH &&)
      WHERE (status = 'ACTIVE');
  END IF;
END $$`,
		`DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ex_pricing_special_overlap') THEN
    ALTER TABLE pricing_periods ADD CONSTRAINT ex_pricing_special_overlap
      EXCLUDE USING gist (tstzrange(start_date, end_date, '[]') WITH &&)
      WHERE (kind = 'SPECIAL');
  END IF;
END $$`,
	)
}
