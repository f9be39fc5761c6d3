package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/booking"
	"hotelstay/internal/pkg/stayclock"
)

type SegmentRepository struct {
	db *gorm.DB
}

func NewSegmentRepository(db *gorm.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

func (r *SegmentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.StaySegment, error) {
	var out []domain.StaySegment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("room_id, seq").
		Find(&out).Error
	if err != nil {
		return nil, translateError(err, "stay segment", nil)
	}
	return out, nil
}

func (r *SegmentRepository) ListByBookingRoom(ctx context.Context, bookingID, roomID int64) ([]domain.StaySegment, error) {
	var out []domain.StaySegment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND room_id = ?", bookingID, roomID).
		Order("seq").
		Find(&out).Error
	if err != nil {
		return nil, translateError(err, "stay segment", nil)
	}
	return out, nil
}

// FindActiveOverlaps uses half-open overlap: a.start < b.end AND b.start < a.end.
func (r *SegmentRepository) FindActiveOverlaps(ctx context.Context, roomID int64, w stayclock.Window) ([]booking.SegmentConflict, error) {
	q := `
SELECT s.booking_id, b.status AS booking_status, s.room_id, s.seq, s.starts_at, s.ends_at
FROM stay_segments s
JOIN bookings b ON b.id = s.booking_id
WHERE s.room_id = ?
  AND s.status = 'ACTIVE'
  AND s.starts_at < ?
  AND s.ends_at > ?
ORDER BY s.starts_at
`
	var out []booking.SegmentConflict
	if err := r.db.WithContext(ctx).Raw(q, roomID, w.To, w.From).Scan(&out).Error; err != nil {
		return nil, translateError(err, "stay segment", nil)
	}
	return out, nil
}

func (r *SegmentRepository) FindOccupants(ctx context.Context, roomID int64, at time.Time, excludeBookingID int64) ([]booking.SegmentConflict, error) {
	q := `
SELECT s.booking_id, b.status AS booking_status, s.room_id, s.seq, s.starts_at, s.ends_at
FROM stay_segments s
JOIN bookings b ON b.id = s.booking_id
WHERE s.room_id = ?
  AND s.status = 'ACTIVE'
  AND b.status = 'CHECKED_IN'
  AND s.booking_id <> ?
  AND s.starts_at <= ?
  AND s.ends_at > ?
ORDER BY s.starts_at
`
	var out []booking.SegmentConflict
	if err := r.db.WithContext(ctx).Raw(q, roomID, excludeBookingID, at, at).Scan(&out).Error; err != nil {
		return nil, translateError(err, "stay segment", nil)
	}
	return out, nil
}

// NextSeq returns one past the highest sequence stored for the pair.
func (r *SegmentRepository) NextSeq(ctx context.Context, bookingID, roomID int64) (int, error) {
	var last int
	err := r.db.WithContext(ctx).
		Model(&domain.StaySegment{}).
		Where("booking_id = ? AND room_id = ?", bookingID, roomID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, translateError(err, "stay segment", nil)
	}
	return last + 1, nil
}

func (r *SegmentRepository) CreateBatch(ctx context.Context, segments []domain.StaySegment) error {
	if len(segments) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&segments).Error, "stay segment", nil)
}

func (r *SegmentRepository) Save(ctx context.Context, s *domain.StaySegment) error {
	err := r.db.WithContext(ctx).
		Model(&domain.StaySegment{}).
		Where("booking_id = ? AND room_id = ? AND seq = ?", s.BookingID, s.RoomID, s.Seq).
		Updates(map[string]any{
			"ends_at":                s.EndsAt,
			"quantity":               s.Quantity,
			"unit_price":             s.UnitPrice,
			"amount":                 s.Amount,
			"status":                 s.Status,
			"transferred_to_room_id": s.TransferredToRoomID,
			"closed_at":              s.ClosedAt,
		}).Error
	return translateError(err, "stay segment", s.Seq)
}

func (r *SegmentRepository) DeleteUninvoiced(ctx context.Context, bookingID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("booking_id = ? AND status <> ?", bookingID, domain.SegmentInvoiced).
		Delete(&domain.StaySegment{})
	if res.Error != nil {
		return 0, translateError(res.Error, "stay segment", nil)
	}
	return res.RowsAffected, nil
}

func (r *SegmentRepository) MarkInvoiced(ctx context.Context, bookingID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.StaySegment{}).
		Where("booking_id = ? AND status = ?", bookingID, domain.SegmentActive).
		Update("status", domain.SegmentInvoiced)
	if res.Error != nil {
		return 0, translateError(res.Error, "stay segment", nil)
	}
	return res.RowsAffected, nil
}

func (r *SegmentRepository) SumBillable(ctx context.Context, bookingID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&domain.StaySegment{}).
		Where("booking_id = ? AND status IN ?", bookingID, []domain.SegmentStatus{
			domain.SegmentActive, domain.SegmentTransferred, domain.SegmentInvoiced,
		}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, translateError(err, "stay segment", nil)
	}
	return total, nil
}
