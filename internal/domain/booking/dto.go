package booking

import (
	"time"

	"hotelstay/internal/domain"
)

type CreateBookingInput struct {
	CustomerID     int64                `validate:"required,gt=0"`
	RentalMode     domain.RentalMode    `validate:"required,oneof=NIGHT HOUR"`
	Source         domain.BookingSource `validate:"omitempty,oneof=FRONT_DESK ONLINE"`
	CheckIn        time.Time            `validate:"required"`
	CheckOut       time.Time            `validate:"required"`
	DepositPercent float64              `validate:"gte=0,lte=100"`
	DepositAmount  float64              `validate:"gte=0"`
	Notes          string
	RoomIDs        []int64     `validate:"dive,gt=0"`
	Holds          []HoldInput `validate:"dive"`
	Confirm        bool
}

type HoldInput struct {
	RoomTypeID int64 `json:"room_type_id" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,gt=0"`
}

type CheckInInput struct {
	BookingID int64
	RoomID    int64
	At        *time.Time
}

type CheckOutInput struct {
	BookingID int64
	At        *time.Time
	// ReleaseFuture cancels segments that have not started yet, whatever
	// the configured policy.
	ReleaseFuture bool
}

type TransferInput struct {
	BookingID int64
	OldRoomID int64
	NewRoomID int64
	At        *time.Time
}

type AttachServiceInput struct {
	BookingID int64      `validate:"required,gt=0"`
	RoomID    int64      `validate:"required,gt=0"`
	ServiceID int64      `validate:"required,gt=0"`
	Quantity  float64    `validate:"required,gt=0"`
	At        *time.Time `validate:"-"`
}

type DepositInvoiceInput struct {
	BookingIDs []int64
	Amount     *float64
}

type BookingView struct {
	Booking        domain.Booking         `json:"booking"`
	Segments       []domain.StaySegment   `json:"segments"`
	PreAllocations []domain.PreAllocation `json:"pre_allocations"`
}

type Folio struct {
	Booking      domain.Booking         `json:"booking"`
	Segments     []domain.StaySegment   `json:"segments"`
	Charges      []domain.ServiceCharge `json:"charges"`
	RoomTotal    float64                `json:"room_total"`
	ServiceTotal float64                `json:"service_total"`
	GrandTotal   float64                `json:"grand_total"`
}

type SweepResult struct {
	Marked []int64          `json:"marked"`
	Failed map[int64]string `json:"failed,omitempty"`
}

// HTTP payloads

type CreateBookingRequest struct {
	CustomerID     int64       `json:"customer_id" binding:"required"`
	RentalMode     string      `json:"rental_mode" binding:"required"`
	Source         string      `json:"source"`
	CheckIn        time.Time   `json:"check_in" binding:"required"`
	CheckOut       time.Time   `json:"check_out" binding:"required"`
	DepositPercent float64     `json:"deposit_percent"`
	DepositAmount  float64     `json:"deposit_amount"`
	Notes          string      `json:"notes"`
	RoomIDs        []int64     `json:"room_ids"`
	Holds          []HoldInput `json:"holds"`
	Confirm        bool        `json:"confirm"`
}

type AllocateRoomRequest struct {
	RoomID int64 `json:"room_id" binding:"required"`
}

type CheckInRequest struct {
	RoomID int64      `json:"room_id" binding:"required"`
	At     *time.Time `json:"at"`
}

type CheckOutRequest struct {
	At            *time.Time `json:"at"`
	ReleaseFuture bool       `json:"release_future"`
}

type TransferRequest struct {
	OldRoomID int64      `json:"old_room_id" binding:"required"`
	NewRoomID int64      `json:"new_room_id" binding:"required"`
	At        *time.Time `json:"at"`
}

type AttachServiceRequest struct {
	ServiceID int64      `json:"service_id" binding:"required"`
	RoomID    int64      `json:"room_id" binding:"required"`
	Quantity  float64    `json:"quantity" binding:"required"`
	At        *time.Time `json:"at"`
}

type ExtendRequest struct {
	CheckOut time.Time `json:"check_out" binding:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type DepositInvoiceRequest struct {
	Amount         *float64 `json:"amount"`
	WithBookingIDs []int64  `json:"with_booking_ids"`
}

type MaintenanceRequest struct {
	On *bool `json:"on" binding:"required"`
}
