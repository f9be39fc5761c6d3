package repository

import (
	"context"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
)

type PreAllocationRepository struct {
	db *gorm.DB
}

func NewPreAllocationRepository(db *gorm.DB) *PreAllocationRepository {
	return &PreAllocationRepository{db: db}
}

func (r *PreAllocationRepository) CreateBatch(ctx context.Context, holds []domain.PreAllocation) error {
	if len(holds) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&holds).Error, "pre-allocation", nil)
}

func (r *PreAllocationRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.PreAllocation, error) {
	var out []domain.PreAllocation
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id").Find(&out).Error; err != nil {
		return nil, translateError(err, "pre-allocation", nil)
	}
	return out, nil
}

// Consume assigns one room against the oldest open hold. A hold whose
// quantity is fully assigned moves to ASSIGNED.
func (r *PreAllocationRepository) Consume(ctx context.Context, bookingID, roomTypeID int64) (bool, error) {
	var holds []domain.PreAllocation
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND room_type_id = ? AND status = ?", bookingID, roomTypeID, domain.PreAllocationConfirmed).
		Where("assigned_count < quantity").
		Order("id").
		Limit(1).
		Find(&holds).Error
	if err != nil {
		return false, translateError(err, "pre-allocation", nil)
	}
	if len(holds) == 0 {
		return false, nil
	}

	h := holds[0]
	h.AssignedCount++
	if h.AssignedCount >= h.Quantity {
		h.Status = domain.PreAllocationAssigned
	}
	err = r.db.WithContext(ctx).
		Model(&domain.PreAllocation{}).
		Where("id = ?", h.ID).
		Updates(map[string]any{
			"assigned_count": h.AssignedCount,
			"status":         h.Status,
		}).Error
	if err != nil {
		return false, translateError(err, "pre-allocation", h.ID)
	}
	return true, nil
}

func (r *PreAllocationRepository) CancelByBooking(ctx context.Context, bookingID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.PreAllocation{}).
		Where("booking_id = ? AND status <> ?", bookingID, domain.PreAllocationCancelled).
		Update("status", domain.PreAllocationCancelled)
	if res.Error != nil {
		return 0, translateError(res.Error, "pre-allocation", nil)
	}
	return res.RowsAffected, nil
}
