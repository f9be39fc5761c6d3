package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/pricing"
)

// CalendarRepository stores pricing periods and their unit-price rows.
type CalendarRepository struct {
	db *gorm.DB
}

var _ pricing.CalendarRepository = (*CalendarRepository)(nil)

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

const periodPriceSelect = `
SELECT p.id AS period_id, p.kind, p.start_date, p.end_date, r.unit_price
FROM room_type_prices r
JOIN pricing_periods p ON p.id = r.period_id
WHERE r.room_type_id = ?
  AND r.rental_mode = ?
`

func (r *CalendarRepository) FindSpecialPrice(ctx context.Context, roomTypeID int64, mode domain.RentalMode, date time.Time) (*pricing.PeriodPrice, error) {
	q := periodPriceSelect + `  AND p.kind = 'SPECIAL'
  AND p.start_date <= ?
  AND p.end_date >= ?
ORDER BY p.start_date
LIMIT 1`
	return r.findPrice(ctx, q, roomTypeID, mode, date, date)
}

func (r *CalendarRepository) FindBasePrice(ctx context.Context, roomTypeID int64, mode domain.RentalMode) (*pricing.PeriodPrice, error) {
	q := periodPriceSelect + `  AND p.kind = 'BASE'
LIMIT 1`
	return r.findPrice(ctx, q, roomTypeID, mode)
}

func (r *CalendarRepository) findPrice(ctx context.Context, q string, args ...any) (*pricing.PeriodPrice, error) {
	var rows []pricing.PeriodPrice
	if err := r.db.WithContext(ctx).Raw(q, args...).Scan(&rows).Error; err != nil {
		return nil, translateError(err, "room type price", nil)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *CalendarRepository) ListPeriods(ctx context.Context) ([]domain.PricingPeriod, error) {
	var out []domain.PricingPeriod
	if err := r.db.WithContext(ctx).Order("kind, start_date, id").Find(&out).Error; err != nil {
		return nil, translateError(err, "pricing period", nil)
	}
	return out, nil
}

func (r *CalendarRepository) GetPeriod(ctx context.Context, id int64) (*domain.PricingPeriod, error) {
	var p domain.PricingPeriod
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translateError(err, "pricing period", id)
	}
	return &p, nil
}

func (r *CalendarRepository) GetBasePeriod(ctx context.Context) (*domain.PricingPeriod, error) {
	var out []domain.PricingPeriod
	err := r.db.WithContext(ctx).
		Where("kind = ?", domain.PeriodBase).
		Order("id").
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, translateError(err, "pricing period", nil)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// FindOverlappingSpecial compares closed date ranges.
func (r *CalendarRepository) FindOverlappingSpecial(ctx context.Context, start, end time.Time, excludeID int64) ([]domain.PricingPeriod, error) {
	var out []domain.PricingPeriod
	err := r.db.WithContext(ctx).
		Where("kind = ?", domain.PeriodSpecial).
		Where("id <> ?", excludeID).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Order("start_date").
		Find(&out).Error
	if err != nil {
		return nil, translateError(err, "pricing period", nil)
	}
	return out, nil
}

func (r *CalendarRepository) CreatePeriod(ctx context.Context, p *domain.PricingPeriod) error {
	return translateError(r.db.WithContext(ctx).Create(p).Error, "pricing period", nil)
}

func (r *CalendarRepository) UpdatePeriod(ctx context.Context, p *domain.PricingPeriod) error {
	err := r.db.WithContext(ctx).
		Model(&domain.PricingPeriod{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":       p.Name,
			"start_date": p.StartDate,
			"end_date":   p.EndDate,
		}).Error
	return translateError(err, "pricing period", p.ID)
}

func (r *CalendarRepository) DeletePeriod(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period_id = ?", id).Delete(&domain.RoomTypePrice{}).Error; err != nil {
			return translateError(err, "room type price", nil)
		}
		res := tx.Delete(&domain.PricingPeriod{}, id)
		if res.Error != nil {
			return translateError(res.Error, "pricing period", id)
		}
		if res.RowsAffected == 0 {
			return translateError(gorm.ErrRecordNotFound, "pricing period", id)
		}
		return nil
	})
}

// UpsertPrice keeps one row per (period, room type, mode).
func (r *CalendarRepository) UpsertPrice(ctx context.Context, price *domain.RoomTypePrice) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period_id"}, {Name: "room_type_id"}, {Name: "rental_mode"}},
			DoUpdates: clause.AssignmentColumns([]string{"unit_price", "updated_at"}),
		}).
		Create(price).Error
	return translateError(err, "room type price", nil)
}

func (r *CalendarRepository) ListPrices(ctx context.Context, periodID int64) ([]domain.RoomTypePrice, error) {
	var out []domain.RoomTypePrice
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("room_type_id, rental_mode").
		Find(&out).Error
	if err != nil {
		return nil, translateError(err, "room type price", nil)
	}
	return out, nil
}

func (r *CalendarRepository) RoomTypeExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.RoomType{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, translateError(err, "room type", id)
	}
	return n > 0, nil
}
