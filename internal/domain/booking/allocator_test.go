package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/booking"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
)

func TestAllocate_OneSegmentPerNight(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 13, 11, 0),
	})
	assert.Equal(t, time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC), view.Booking.PlannedCheckIn)
	assert.Equal(t, time.Date(2026, 3, 13, 5, 0, 0, 0, time.UTC), view.Booking.PlannedCheckOut)

	segments, err := f.engine.Allocator.Allocate(f.ctx, view.Booking.ID, f.roomID("101"))
	require.NoError(t, err)
	require.Len(t, segments, 3)

	for i, s := range segments {
		night := stayclock.Date(2026, 3, 10+i)
		assert.Equal(t, i+1, s.Seq)
		assert.Equal(t, domain.SegmentActive, s.Status)
		require.NotNil(t, s.NightDate)
		assert.Equal(t, night, *s.NightDate)
		assert.Equal(t, f.clock.AnchorForNight(night), s.StartsAt)
		assert.Equal(t, 24*time.Hour, s.EndsAt.Sub(s.StartsAt))
		assert.Equal(t, 1.0, s.Quantity)
		assert.Equal(t, 500000.0, s.Amount)
		assert.Equal(t, f.cat.BasePeriod.ID, s.PricingPeriodID)
	}

	got, err := f.engine.Lifecycle.Get(f.ctx, view.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500000.0, got.Booking.ExpectedTotal)
}

func TestAllocate_HourStayIsBilledInBlocks(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, booking.CreateBookingInput{
		RentalMode: domain.RentalHour,
		CheckIn:    local(2026, 3, 10, 14, 0),
		CheckOut:   local(2026, 3, 10, 16, 10),
		RoomIDs:    []int64{f.roomID("102")},
	})

	require.Len(t, view.Segments, 1)
	s := view.Segments[0]
	assert.Nil(t, s.NightDate)
	assert.Equal(t, time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC), s.StartsAt)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 10, 0, 0, time.UTC), s.EndsAt)
	assert.Equal(t, 2.5, s.Quantity)
	assert.Equal(t, 200000.0, s.Amount)
	assert.Equal(t, 200000.0, view.Booking.ExpectedTotal)
}

func TestAllocate_SpecialPeriodNights(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 2, 13, 14, 0),
		CheckOut: local(2026, 2, 16, 11, 0),
		RoomIDs:  []int64{f.roomID("103")},
	})

	require.Len(t, view.Segments, 3)
	assert.Equal(t, 500000.0, view.Segments[0].UnitPrice)
	assert.Equal(t, f.cat.BasePeriod.ID, view.Segments[0].PricingPeriodID)
	for _, s := range view.Segments[1:] {
		assert.Equal(t, 750000.0, s.UnitPrice)
		assert.Equal(t, f.cat.TetPeriod.ID, s.PricingPeriodID)
	}
	assert.Equal(t, 2000000.0, view.Booking.ExpectedTotal)
}

func TestAllocate_OverlapRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 13, 11, 0),
		RoomIDs:  []int64{f.roomID("101")},
	})
	second := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 12, 14, 0),
		CheckOut: local(2026, 3, 15, 11, 0),
	})

	_, err := f.engine.Allocator.Allocate(f.ctx, second.Booking.ID, f.roomID("101"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "SEGMENT_OVERLAP", codeOf(err))
	appErr, _ := apperror.As(err)
	assert.Equal(t, first.Booking.ID, appErr.Details["conflicting_booking_id"])

	got, err := f.engine.Lifecycle.Get(f.ctx, second.Booking.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Segments)
	assert.Zero(t, got.Booking.ExpectedTotal)
}

func TestAllocate_BackToBackStaysShareTheAnchor(t *testing.T) {
	f := newFixture(t)
	f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 13, 11, 0),
		RoomIDs:  []int64{f.roomID("101")},
	})

	next := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 13, 14, 0),
		CheckOut: local(2026, 3, 14, 11, 0),
		RoomIDs:  []int64{f.roomID("101")},
	})
	require.Len(t, next.Segments, 1)
}

func TestAllocate_CreateWithConflictingRoomLeavesNothing(t *testing.T) {
	f := newFixture(t)
	f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 12, 11, 0),
		RoomIDs:  []int64{f.roomID("102")},
	})

	_, err := f.engine.Lifecycle.CreateBooking(f.ctx, booking.CreateBookingInput{
		CustomerID: 8,
		RentalMode: domain.RentalNight,
		CheckIn:    local(2026, 3, 11, 14, 0),
		CheckOut:   local(2026, 3, 12, 11, 0),
		RoomIDs:    []int64{f.roomID("101"), f.roomID("102")},
	})
	require.Error(t, err)
	assert.Equal(t, "SEGMENT_OVERLAP", codeOf(err))

	// Room 101 was allocated before 102 failed and must be rolled back too.
	conflicts, err := f.store.Segments().FindActiveOverlaps(f.ctx, f.roomID("101"), stayclock.Window{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestAllocate_MissingPriceAbortsBatch(t *testing.T) {
	f := newFixture(t)
	suite := domain.RoomType{Name: "Suite", Capacity: 4}
	require.NoError(t, f.store.DB().Create(&suite).Error)
	room := domain.Room{Number: "301", Floor: 3, RoomTypeID: suite.ID, Status: domain.RoomAvailable}
	require.NoError(t, f.store.DB().Create(&room).Error)

	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 12, 11, 0),
	})

	_, err := f.engine.Allocator.Allocate(f.ctx, view.Booking.ID, room.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := f.engine.Lifecycle.Get(f.ctx, view.Booking.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Segments)
}

func TestAllocate_HoldsReserveTheType(t *testing.T) {
	f := newFixture(t)
	holder := f.create(t, booking.CreateBookingInput{
		Source:   domain.SourceOnline,
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 12, 11, 0),
		Holds:    []booking.HoldInput{{RoomTypeID: f.cat.Deluxe.ID, Quantity: 2}},
		Confirm:  true,
	})
	require.Len(t, holder.PreAllocations, 1)
	assert.Equal(t, domain.PreAllocationConfirmed, holder.PreAllocations[0].Status)

	walkIn := f.create(t, booking.CreateBookingInput{
		CustomerID: 9,
		CheckIn:    local(2026, 3, 11, 14, 0),
		CheckOut:   local(2026, 3, 12, 11, 0),
	})
	_, err := f.engine.Allocator.Allocate(f.ctx, walkIn.Booking.ID, f.roomID("201"))
	require.Error(t, err)
	assert.Equal(t, "ROOM_TYPE_SOLD_OUT", codeOf(err))

	_, err = f.engine.Allocator.Allocate(f.ctx, holder.Booking.ID, f.roomID("201"))
	require.NoError(t, err)
	got, err := f.engine.Lifecycle.Get(f.ctx, holder.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PreAllocations[0].AssignedCount)

	_, err = f.engine.Allocator.Allocate(f.ctx, holder.Booking.ID, f.roomID("202"))
	require.NoError(t, err)
	got, err = f.engine.Lifecycle.Get(f.ctx, holder.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PreAllocationAssigned, got.PreAllocations[0].Status)
}

func TestAllocate_HoldBeyondInventoryIsRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Lifecycle.CreateBooking(f.ctx, booking.CreateBookingInput{
		CustomerID: 7,
		RentalMode: domain.RentalNight,
		CheckIn:    local(2026, 3, 10, 14, 0),
		CheckOut:   local(2026, 3, 12, 11, 0),
		Holds:      []booking.HoldInput{{RoomTypeID: f.cat.Deluxe.ID, Quantity: 3}},
	})
	require.Error(t, err)
	assert.Equal(t, "ROOM_TYPE_SOLD_OUT", codeOf(err))
}

func TestAllocate_RefusedOnceSegmentsAreFrozen(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 12, 11, 0),
	})
	_, err := f.engine.Lifecycle.Cancel(f.ctx, view.Booking.ID, "changed plans")
	require.NoError(t, err)

	_, err = f.engine.Allocator.Allocate(f.ctx, view.Booking.ID, f.roomID("101"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrState)
	assert.Equal(t, "SEGMENTS_FROZEN", codeOf(err))
}
