package repository

import (
	"context"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/inventory"
)

// InventoryRepository serves the read-only room and service listings.
type InventoryRepository struct {
	db *gorm.DB
}

var _ inventory.Repository = (*InventoryRepository)(nil)

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) ListRoomTypes(ctx context.Context) ([]inventory.RoomTypeSummary, error) {
	q := `
SELECT t.id, t.name, t.capacity,
       COUNT(r.id) AS room_count,
       COALESCE(SUM(CASE WHEN r.status = 'AVAILABLE' THEN 1 ELSE 0 END), 0) AS available_now
FROM room_types t
LEFT JOIN rooms r ON r.room_type_id = t.id
GROUP BY t.id, t.name, t.capacity
ORDER BY t.id
`
	var out []inventory.RoomTypeSummary
	if err := r.db.WithContext(ctx).Raw(q).Scan(&out).Error; err != nil {
		return nil, translateError(err, "room type", nil)
	}
	return out, nil
}

func (r *InventoryRepository) ListRooms(ctx context.Context, f inventory.RoomFilter) ([]domain.Room, error) {
	q := r.db.WithContext(ctx).Preload("RoomType").Order("number")
	if f.RoomTypeID > 0 {
		q = q.Where("room_type_id = ?", f.RoomTypeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Floor != nil {
		q = q.Where("floor = ?", *f.Floor)
	}

	var out []domain.Room
	if err := q.Find(&out).Error; err != nil {
		return nil, translateError(err, "room", nil)
	}
	return out, nil
}

func (r *InventoryRepository) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	var room domain.Room
	if err := r.db.WithContext(ctx).Preload("RoomType").First(&room, id).Error; err != nil {
		return nil, translateError(err, "room", id)
	}
	return &room, nil
}

func (r *InventoryRepository) ListServices(ctx context.Context, activeOnly bool) ([]domain.ServiceItem, error) {
	q := r.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var out []domain.ServiceItem
	if err := q.Find(&out).Error; err != nil {
		return nil, translateError(err, "service", nil)
	}
	return out, nil
}
