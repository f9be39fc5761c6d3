package domain

import "time"

type InvoiceStatus string

const (
	InvoiceIssued InvoiceStatus = "ISSUED"
	InvoicePaid   InvoiceStatus = "PAID"
	InvoiceVoid   InvoiceStatus = "VOID"
)

// DepositInvoice requests an advance payment for one or more bookings.
type DepositInvoice struct {
	ID        int64         `json:"id" gorm:"primaryKey"`
	Code      string        `json:"code" gorm:"size:40;not null;uniqueIndex"`
	Amount    float64       `json:"amount" gorm:"not null"`
	Status    InvoiceStatus `json:"status" gorm:"size:16;not null;index"`
	IssuedAt  time.Time     `json:"issued_at"`
	VoidedAt  *time.Time    `json:"voided_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	BookingIDs []int64 `json:"booking_ids" gorm:"-"`
}

type DepositInvoiceBooking struct {
	InvoiceID int64 `gorm:"primaryKey;autoIncrement:false"`
	BookingID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}
