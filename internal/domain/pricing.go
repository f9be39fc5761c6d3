package domain

import (
	"math"
	"time"
)

type PeriodKind string

const (
	PeriodBase    PeriodKind = "BASE"
	PeriodSpecial PeriodKind = "SPECIAL"
)

// PricingPeriod is either the single always-active base calendar or a
// special calendar covering the closed date range [StartDate, EndDate].
type PricingPeriod struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"size:120;not null"`
	Kind      PeriodKind `json:"kind" gorm:"size:16;not null;index"`
	StartDate *time.Time `json:"start_date,omitempty" gorm:"index"`
	EndDate   *time.Time `json:"end_date,omitempty" gorm:"index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p *PricingPeriod) Covers(date time.Time) bool {
	if p.Kind == PeriodBase {
		return true
	}
	if p.StartDate == nil || p.EndDate == nil {
		return false
	}
	return !date.Before(*p.StartDate) && !date.After(*p.EndDate)
}

type RoomTypePrice struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	PeriodID   int64      `json:"period_id" gorm:"not null;uniqueIndex:ux_room_type_prices_key"`
	RoomTypeID int64      `json:"room_type_id" gorm:"not null;uniqueIndex:ux_room_type_prices_key"`
	RentalMode RentalMode `json:"rental_mode" gorm:"size:8;not null;uniqueIndex:ux_room_type_prices_key"`
	UnitPrice  float64    `json:"unit_price" gorm:"not null"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RoundMoney rounds to two decimals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
