package domain

import (
	"time"

	"hotelstay/internal/pkg/stayclock"
)

type SegmentStatus string

const (
	SegmentActive      SegmentStatus = "ACTIVE"
	SegmentTransferred SegmentStatus = "TRANSFERRED"
	SegmentInvoiced    SegmentStatus = "INVOICED"
	SegmentCancelled   SegmentStatus = "CANCELLED"
)

// Billable segments count toward a booking's expected total.
func (s SegmentStatus) Billable() bool {
	return s == SegmentActive || s == SegmentTransferred || s == SegmentInvoiced
}

// StaySegment is one billable unit of a room's occupancy: a night anchored
// at the hotel's night anchor, or an explicit hour range.
type StaySegment struct {
	BookingID           int64         `json:"booking_id" gorm:"primaryKey;autoIncrement:false"`
	RoomID              int64         `json:"room_id" gorm:"primaryKey;autoIncrement:false;index"`
	Seq                 int           `json:"seq" gorm:"primaryKey;autoIncrement:false"`
	RentalMode          RentalMode    `json:"rental_mode" gorm:"size:8;not null"`
	NightDate           *time.Time    `json:"night_date,omitempty"`
	StartsAt            time.Time     `json:"starts_at" gorm:"not null;index"`
	EndsAt              time.Time     `json:"ends_at" gorm:"not null;index"`
	Quantity            float64       `json:"quantity" gorm:"not null"`
	UnitPrice           float64       `json:"unit_price" gorm:"not null"`
	Amount              float64       `json:"amount" gorm:"not null"`
	Status              SegmentStatus `json:"status" gorm:"size:16;not null;index"`
	PricingPeriodID     int64         `json:"pricing_period_id"`
	TransferredToRoomID *int64        `json:"transferred_to_room_id,omitempty"`
	ClosedAt            *time.Time    `json:"closed_at,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (s *StaySegment) Window() stayclock.Window {
	return stayclock.Window{From: s.StartsAt, To: s.EndsAt}
}

// Recompute keeps Amount equal to Quantity x UnitPrice.
func (s *StaySegment) Recompute() {
	s.Amount = RoundMoney(s.Quantity * s.UnitPrice)
}

type ServiceItem struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:120;not null;uniqueIndex"`
	UnitPrice float64   `json:"unit_price" gorm:"not null"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChargeStatus string

const (
	ChargeOpen     ChargeStatus = "OPEN"
	ChargeInvoiced ChargeStatus = "INVOICED"
	ChargeVoid     ChargeStatus = "VOID"
)

// ServiceCharge is a consumable attached to the segment covering ChargedAt.
type ServiceCharge struct {
	BookingID   int64        `json:"booking_id" gorm:"primaryKey;autoIncrement:false"`
	RoomID      int64        `json:"room_id" gorm:"primaryKey;autoIncrement:false"`
	SegmentSeq  int          `json:"segment_seq" gorm:"primaryKey;autoIncrement:false"`
	ServiceID   int64        `json:"service_id" gorm:"primaryKey;autoIncrement:false"`
	LineSeq     int          `json:"line_seq" gorm:"primaryKey;autoIncrement:false"`
	Quantity    float64      `json:"quantity" gorm:"not null"`
	UnitPrice   float64      `json:"unit_price" gorm:"not null"`
	Amount      float64      `json:"amount" gorm:"not null"`
	ChargedAt   time.Time    `json:"charged_at" gorm:"not null"`
	Status      ChargeStatus `json:"status" gorm:"size:16;not null"`
	Approximate bool         `json:"approximate"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
