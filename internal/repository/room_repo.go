package repository

import (
	"context"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/stayclock"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var room domain.Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translateError(err, "room", id)
	}
	return &room, nil
}

func (r *RoomRepository) UpdateStatus(ctx context.Context, id int64, status domain.RoomStatus) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return translateError(res.Error, "room", id)
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "room", id)
	}
	return nil
}

func (r *RoomRepository) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	var out []domain.RoomType
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, translateError(err, "room type", nil)
	}
	return out, nil
}

// OccupancyRepository answers the counting queries behind availability.
type OccupancyRepository struct {
	db *gorm.DB
}

func NewOccupancyRepository(db *gorm.DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

func (r *OccupancyRepository) CountRooms(ctx context.Context, roomTypeID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("room_type_id = ?", roomTypeID).
		Count(&n).Error
	if err != nil {
		return 0, translateError(err, "room", nil)
	}
	return n, nil
}

func (r *OccupancyRepository) CountBlockedRooms(ctx context.Context, roomTypeID int64, w stayclock.Window, excludeBookingID int64) (int64, error) {
	q := `
SELECT COUNT(DISTINCT s.room_id)
FROM stay_segments s
JOIN rooms r ON r.id = s.room_id
JOIN bookings b ON b.id = s.booking_id
WHERE r.room_type_id = ?
  AND s.status IN ('ACTIVE', 'INVOICED')
  AND b.status IN ('CONFIRMED', 'CHECKED_IN')
  AND b.id <> ?
  AND b.planned_check_in < ?
  AND b.planned_check_out > ?
`
	var n int64
	if err := r.db.WithContext(ctx).Raw(q, roomTypeID, excludeBookingID, w.To, w.From).Scan(&n).Error; err != nil {
		return 0, translateError(err, "room", nil)
	}
	return n, nil
}

func (r *OccupancyRepository) OutstandingHolds(ctx context.Context, roomTypeID int64, w stayclock.Window, excludeBookingID int64) (int64, error) {
	q := `
SELECT COALESCE(SUM(p.quantity - p.assigned_count), 0)
FROM pre_allocations p
JOIN bookings b ON b.id = p.booking_id
WHERE p.room_type_id = ?
  AND p.status = 'CONFIRMED'
  AND b.status IN ('PENDING', 'CONFIRMED', 'CHECKED_IN')
  AND b.id <> ?
  AND b.planned_check_in < ?
  AND b.planned_check_out > ?
`
	var n int64
	if err := r.db.WithContext(ctx).Raw(q, roomTypeID, excludeBookingID, w.To, w.From).Scan(&n).Error; err != nil {
		return 0, translateError(err, "pre-allocation", nil)
	}
	return n, nil
}
