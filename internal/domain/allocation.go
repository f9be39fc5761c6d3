package domain

import "time"

type PreAllocationStatus string

const (
	PreAllocationConfirmed PreAllocationStatus = "CONFIRMED"
	PreAllocationAssigned  PreAllocationStatus = "ASSIGNED"
	PreAllocationCancelled PreAllocationStatus = "CANCELLED"
)

// PreAllocation holds Quantity rooms of a type for a booking before the
// front desk assigns physical rooms.
type PreAllocation struct {
	ID            int64               `json:"id" gorm:"primaryKey"`
	BookingID     int64               `json:"booking_id" gorm:"not null;index"`
	RoomTypeID    int64               `json:"room_type_id" gorm:"not null;index"`
	Quantity      int                 `json:"quantity" gorm:"not null"`
	AssignedCount int                 `json:"assigned_count" gorm:"not null;default:0"`
	Status        PreAllocationStatus `json:"status" gorm:"size:16;not null;index"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (p *PreAllocation) Outstanding() int {
	if p.Status != PreAllocationConfirmed {
		return 0
	}
	return p.Quantity - p.AssignedCount
}
