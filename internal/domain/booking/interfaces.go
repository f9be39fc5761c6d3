package booking

import (
	"context"
	"time"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/pricing"
	"hotelstay/internal/pkg/stayclock"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Save(ctx context.Context, b *domain.Booking) error
	// ListOverdue returns PENDING/CONFIRMED bookings whose planned check-in
	// is before cutoff.
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Booking, error)
}

// SegmentConflict is an ACTIVE segment together with its booking's status.
type SegmentConflict struct {
	BookingID     int64                `json:"booking_id" gorm:"column:booking_id"`
	BookingStatus domain.BookingStatus `json:"booking_status" gorm:"column:booking_status"`
	RoomID        int64                `json:"room_id" gorm:"column:room_id"`
	Seq           int                  `json:"seq" gorm:"column:seq"`
	StartsAt      time.Time            `json:"starts_at" gorm:"column:starts_at"`
	EndsAt        time.Time            `json:"ends_at" gorm:"column:ends_at"`
}

type SegmentRepository interface {
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.StaySegment, error)
	ListByBookingRoom(ctx context.Context, bookingID, roomID int64) ([]domain.StaySegment, error)
	// FindActiveOverlaps returns ACTIVE segments on roomID overlapping w.
	FindActiveOverlaps(ctx context.Context, roomID int64, w stayclock.Window) ([]SegmentConflict, error)
	// FindOccupants returns ACTIVE segments on roomID that end after at and
	// belong to a CHECKED_IN booking other than excludeBookingID.
	FindOccupants(ctx context.Context, roomID int64, at time.Time, excludeBookingID int64) ([]SegmentConflict, error)
	NextSeq(ctx context.Context, bookingID, roomID int64) (int, error)
	CreateBatch(ctx context.Context, segments []domain.StaySegment) error
	Save(ctx context.Context, s *domain.StaySegment) error
	DeleteUninvoiced(ctx context.Context, bookingID int64) (int64, error)
	MarkInvoiced(ctx context.Context, bookingID int64) (int64, error)
	SumBillable(ctx context.Context, bookingID int64) (float64, error)
}

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	UpdateStatus(ctx context.Context, id int64, status domain.RoomStatus) error
	ListRoomTypes(ctx context.Context) ([]domain.RoomType, error)
}

// OccupancyReader answers the counting queries behind availability.
type OccupancyReader interface {
	CountRooms(ctx context.Context, roomTypeID int64) (int64, error)
	// CountBlockedRooms counts distinct rooms of the type holding ACTIVE or
	// INVOICED segments of a CONFIRMED/CHECKED_IN booking whose planned
	// window overlaps w.
	CountBlockedRooms(ctx context.Context, roomTypeID int64, w stayclock.Window, excludeBookingID int64) (int64, error)
	// OutstandingHolds sums unassigned CONFIRMED pre-allocation quantity of
	// the type whose booking window overlaps w.
	OutstandingHolds(ctx context.Context, roomTypeID int64, w stayclock.Window, excludeBookingID int64) (int64, error)
}

type PreAllocationRepository interface {
	CreateBatch(ctx context.Context, holds []domain.PreAllocation) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.PreAllocation, error)
	// Consume assigns one room against a CONFIRMED hold of the booking for
	// the room type and reports whether a hold was found.
	Consume(ctx context.Context, bookingID, roomTypeID int64) (bool, error)
	CancelByBooking(ctx context.Context, bookingID int64) (int64, error)
}

type ChargeRepository interface {
	Create(ctx context.Context, c *domain.ServiceCharge) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.ServiceCharge, error)
	NextLineSeq(ctx context.Context, bookingID, roomID int64, segmentSeq int, serviceID int64) (int, error)
	MarkInvoiced(ctx context.Context, bookingID int64) (int64, error)
	GetService(ctx context.Context, id int64) (*domain.ServiceItem, error)
}

// InvoiceLink is a deposit invoice linked to a booking, with the number of
// bookings the invoice covers.
type InvoiceLink struct {
	Invoice     domain.DepositInvoice
	LinkedCount int64
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.DepositInvoice, bookingIDs []int64) error
	ListByBooking(ctx context.Context, bookingID int64) ([]InvoiceLink, error)
	Void(ctx context.Context, invoiceID int64, at time.Time) error
}

// Store exposes the repositories bound to one database handle or transaction.
type Store interface {
	Bookings() BookingRepository
	Segments() SegmentRepository
	Rooms() RoomRepository
	Occupancy() OccupancyReader
	Prices() pricing.PriceReader
	Allocations() PreAllocationRepository
	Charges() ChargeRepository
	Invoices() InvoiceRepository
}

// Transactor runs fn inside one atomic unit. The Store handed to fn must be
// used for every read and write of the operation.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// RoomLocker serializes work on the same rooms across processes.
type RoomLocker interface {
	Lock(ctx context.Context, roomIDs ...int64) (unlock func(), err error)
}

type EventPublisher interface {
	PublishRoomStatus(change domain.RoomStatusChange)
}
