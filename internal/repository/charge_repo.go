package repository

import (
	"context"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
)

type ChargeRepository struct {
	db *gorm.DB
}

func NewChargeRepository(db *gorm.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

func (r *ChargeRepository) Create(ctx context.Context, c *domain.ServiceCharge) error {
	return translateError(r.db.WithContext(ctx).Create(c).Error, "service charge", nil)
}

func (r *ChargeRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.ServiceCharge, error) {
	var out []domain.ServiceCharge
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("charged_at, room_id, segment_seq, line_seq").
		Find(&out).Error
	if err != nil {
		return nil, translateError(err, "service charge", nil)
	}
	return out, nil
}

func (r *ChargeRepository) NextLineSeq(ctx context.Context, bookingID, roomID int64, segmentSeq int, serviceID int64) (int, error) {
	var last int
	err := r.db.WithContext(ctx).
		Model(&domain.ServiceCharge{}).
		Where("booking_id = ? AND room_id = ? AND segment_seq = ? AND service_id = ?", bookingID, roomID, segmentSeq, serviceID).
		Select("COALESCE(MAX(line_seq), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, translateError(err, "service charge", nil)
	}
	return last + 1, nil
}

func (r *ChargeRepository) MarkInvoiced(ctx context.Context, bookingID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.ServiceCharge{}).
		Where("booking_id = ? AND status = ?", bookingID, domain.ChargeOpen).
		Update("status", domain.ChargeInvoiced)
	if res.Error != nil {
		return 0, translateError(res.Error, "service charge", nil)
	}
	return res.RowsAffected, nil
}

func (r *ChargeRepository) GetService(ctx context.Context, id int64) (*domain.ServiceItem, error) {
	var s domain.ServiceItem
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translateError(err, "service", id)
	}
	return &s, nil
}
