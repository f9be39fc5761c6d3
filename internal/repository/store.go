package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"hotelstay/internal/domain/booking"
	"hotelstay/internal/domain/pricing"
)

const maxTxAttempts = 3

// Store binds every repository to one gorm handle, which is either the
// process-wide connection or a running transaction.
type Store struct {
	db *gorm.DB
}

var (
	_ booking.Store              = (*Store)(nil)
	_ booking.Transactor         = (*Store)(nil)
	_ pricing.CalendarTransactor = (*Store)(nil)
)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Bookings() booking.BookingRepository { return NewBookingRepository(s.db) }
func (s *Store) Segments() booking.SegmentRepository { return NewSegmentRepository(s.db) }
func (s *Store) Rooms() booking.RoomRepository { return NewRoomRepository(s.db) }
func (s *Store) Occupancy() booking.OccupancyReader { return NewOccupancyRepository(s.db) }
func (s *Store) Prices() pricing.PriceReader { return NewCalendarRepository(s.db) }
func (s *Store) Allocations() booking.PreAllocationRepository { return NewPreAllocationRepository(s.db) }
func (s *Store) Charges() booking.ChargeRepository { return NewChargeRepository(s.db) }
func (s *Store) Invoices() booking.InvoiceRepository { return NewInvoiceRepository(s.db) }

func (s *Store) Calendar() pricing.CalendarRepository { return NewCalendarRepository(s.db) }
func (s *Store) Inventory() *InventoryRepository { return NewInventoryRepository(s.db) }

// WithinTx runs fn in one transaction. On postgres the transaction is
// serializable and retried when the server aborts it for a serialization
// failure.
func (s *Store) WithinTx(ctx context.Context, fn func(booking.Store) error) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) WithinCalendarTx(ctx context.Context, fn func(pricing.CalendarRepository) error) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		return fn(NewCalendarRepository(tx))
	})
}

func (s *Store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var opts []*sql.TxOptions
	if s.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn, opts...)
		if !isSerializationFailure(err) {
			break
		}
	}
	return translateError(err, "", nil)
}
