package pricing

import (
	"context"
	"time"

	"hotelstay/internal/domain"
)

// PeriodPrice is a unit-price row together with the period that owns it.
type PeriodPrice struct {
	PeriodID  int64
	Kind      domain.PeriodKind
	StartDate *time.Time
	EndDate   *time.Time
	UnitPrice float64
}

// PriceReader looks up unit-price rows. Both finders return nil, nil when no
// row exists.
type PriceReader interface {
	FindSpecialPrice(ctx context.Context, roomTypeID int64, mode domain.RentalMode, date time.Time) (*PeriodPrice, error)
	FindBasePrice(ctx context.Context, roomTypeID int64, mode domain.RentalMode) (*PeriodPrice, error)
}

// CalendarRepository maintains pricing periods and their price rows.
type CalendarRepository interface {
	PriceReader
	ListPeriods(ctx context.Context) ([]domain.PricingPeriod, error)
	GetPeriod(ctx context.Context, id int64) (*domain.PricingPeriod, error)
	GetBasePeriod(ctx context.Context) (*domain.PricingPeriod, error)
	FindOverlappingSpecial(ctx context.Context, start, end time.Time, excludeID int64) ([]domain.PricingPeriod, error)
	CreatePeriod(ctx context.Context, p *domain.PricingPeriod) error
	UpdatePeriod(ctx context.Context, p *domain.PricingPeriod) error
	DeletePeriod(ctx context.Context, id int64) error
	UpsertPrice(ctx context.Context, price *domain.RoomTypePrice) error
	ListPrices(ctx context.Context, periodID int64) ([]domain.RoomTypePrice, error)
	RoomTypeExists(ctx context.Context, id int64) (bool, error)
}

type CalendarTransactor interface {
	WithinCalendarTx(ctx context.Context, fn func(CalendarRepository) error) error
}
