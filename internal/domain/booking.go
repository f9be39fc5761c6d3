package domain

import (
	"time"

	"hotelstay/internal/pkg/stayclock"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingNoShow     BookingStatus = "NO_SHOW"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCheckedIn, BookingCancelled, BookingNoShow},
	BookingConfirmed: {BookingCheckedIn, BookingCancelled, BookingNoShow},
	BookingCheckedIn: {BookingCheckedOut},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Blocking statuses take rooms out of availability.
func (s BookingStatus) Blocking() bool {
	return s == BookingConfirmed || s == BookingCheckedIn
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingNoShow
}

type BookingSource string

const (
	SourceFrontDesk BookingSource = "FRONT_DESK"
	SourceOnline    BookingSource = "ONLINE"
)

type Booking struct {
	ID              int64         `json:"id" gorm:"primaryKey"`
	CustomerID      int64         `json:"customer_id" gorm:"not null;index"`
	RentalMode      RentalMode    `json:"rental_mode" gorm:"size:8;not null"`
	Source          BookingSource `json:"source" gorm:"size:16;not null;default:FRONT_DESK"`
	PlannedCheckIn  time.Time     `json:"planned_check_in" gorm:"not null;index"`
	PlannedCheckOut time.Time     `json:"planned_check_out" gorm:"not null;index"`
	ActualCheckIn   *time.Time    `json:"actual_check_in,omitempty"`
	ActualCheckOut  *time.Time    `json:"actual_check_out,omitempty"`
	Status          BookingStatus `json:"status" gorm:"size:16;not null;index"`
	DepositPercent  float64       `json:"deposit_percent"`
	DepositAmount   float64       `json:"deposit_amount"`
	ExpectedTotal   float64       `json:"expected_total"`
	Notes           string        `json:"notes,omitempty" gorm:"type:text"`
	CancelReason    string        `json:"cancel_reason,omitempty" gorm:"type:text"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
}

func (b *Booking) PlannedWindow() stayclock.Window {
	return stayclock.Window{From: b.PlannedCheckIn, To: b.PlannedCheckOut}
}

// LodgingWindow starts at the actual check-in when known and ends at the
// actual check-out when known, otherwise at the planned instants.
func (b *Booking) LodgingWindow() stayclock.Window {
	w := b.PlannedWindow()
	if b.ActualCheckIn != nil {
		w.From = *b.ActualCheckIn
	}
	if b.ActualCheckOut != nil {
		w.To = *b.ActualCheckOut
	}
	return w
}

// SegmentsFrozen reports whether stay segments may no longer change.
func (b *Booking) SegmentsFrozen() bool {
	return b.Status == BookingCheckedOut || b.Status.Terminal()
}
