package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return translateError(r.db.WithContext(ctx).Create(b).Error, "booking", b.ID)
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, translateError(err, "booking", id)
	}
	return &b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	return translateError(r.db.WithContext(ctx).Save(b).Error, "booking", b.ID)
}

func (r *BookingRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}).
		Where("planned_check_in < ?", cutoff).
		Order("planned_check_in, id").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, translateError(err, "booking", nil)
	}
	return out, nil
}
