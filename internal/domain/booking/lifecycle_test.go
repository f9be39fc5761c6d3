package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/booking"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/roomlock"
)

func (f *fixture) checkedIn(t *testing.T, room string, checkOutDay int) *booking.BookingView {
	t.Helper()
	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, checkOutDay, 11, 0),
	})
	view, err := f.engine.Lifecycle.CheckIn(f.ctx, booking.CheckInInput{
		BookingID: view.Booking.ID,
		RoomID:    f.roomID(room),
		At:        ptr(local(2026, 3, 10, 14, 0)),
	})
	require.NoError(t, err)
	return view
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 11, 11, 0),
	})
	assert.Equal(t, domain.BookingPending, view.Booking.Status)

	view, err := f.engine.Lifecycle.Confirm(f.ctx, view.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, view.Booking.Status)

	_, err = f.engine.Lifecycle.Confirm(f.ctx, view.Booking.ID)
	assert.ErrorIs(t, err, apperror.ErrState)
}

func TestCheckIn_AllocatesAndOccupiesRoom(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)

	assert.Equal(t, domain.BookingCheckedIn, view.Booking.Status)
	require.NotNil(t, view.Booking.ActualCheckIn)
	assert.Equal(t, time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC), *view.Booking.ActualCheckIn)
	assert.Len(t, view.Segments, 2)
	assert.Equal(t, 1000000.0, view.Booking.ExpectedTotal)
	assert.Equal(t, domain.RoomOccupied, f.room(t, "101").Status)

	changes := f.events.all()
	require.Len(t, changes, 1)
	assert.Equal(t, domain.RoomAvailable, changes[0].From)
	assert.Equal(t, domain.RoomOccupied, changes[0].To)
	assert.Equal(t, view.Booking.ID, changes[0].BookingID)
}

func TestCheckIn_UsesPreallocatedSegments(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 12, 11, 0),
		RoomIDs:  []int64{f.roomID("102")},
		Confirm:  true,
	})

	view, err := f.engine.Lifecycle.CheckIn(f.ctx, booking.CheckInInput{BookingID: view.Booking.ID, RoomID: f.roomID("102")})
	require.NoError(t, err)
	assert.Len(t, view.Segments, 2)
}

func TestCheckIn_Twice(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)

	_, err := f.engine.Lifecycle.CheckIn(f.ctx, booking.CheckInInput{BookingID: view.Booking.ID, RoomID: f.roomID("101")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrState)
	assert.Equal(t, "ALREADY_CHECKED_IN", codeOf(err))
}

func TestCheckIn_SecondRoomCoversRemainder(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 13)

	view, err := f.engine.Lifecycle.CheckIn(f.ctx, booking.CheckInInput{
		BookingID: view.Booking.ID,
		RoomID:    f.roomID("102"),
		At:        ptr(local(2026, 3, 11, 9, 0)),
	})
	require.NoError(t, err)

	var onSecond int
	for _, s := range view.Segments {
		if s.RoomID == f.roomID("102") {
			onSecond++
		}
	}
	// Nights of 11 and 12 March.
	assert.Equal(t, 2, onSecond)
	assert.Equal(t, domain.RoomOccupied, f.room(t, "102").Status)
}

func TestCheckIn_RoomNotReady(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Lifecycle.SetRoomMaintenance(f.ctx, f.roomID("103"), true)
	require.NoError(t, err)

	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 11, 11, 0),
	})
	_, err = f.engine.Lifecycle.CheckIn(f.ctx, booking.CheckInInput{BookingID: view.Booking.ID, RoomID: f.roomID("103")})
	require.Error(t, err)
	assert.Equal(t, "ROOM_MAINTENANCE", codeOf(err))

	got, err := f.engine.Lifecycle.Get(f.ctx, view.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, got.Booking.Status)
	assert.Empty(t, got.Segments)
}

func TestCheckIn_RoomHeldByAnotherGuest(t *testing.T) {
	f := newFixture(t)
	first := f.checkedIn(t, "101", 12)

	second := f.create(t, booking.CreateBookingInput{
		CustomerID: 8,
		RentalMode: domain.RentalHour,
		CheckIn:    local(2026, 3, 10, 16, 0),
		CheckOut:   local(2026, 3, 10, 18, 0),
	})
	_, err := f.engine.Lifecycle.CheckIn(f.ctx, booking.CheckInInput{
		BookingID: second.Booking.ID,
		RoomID:    f.roomID("101"),
		At:        ptr(local(2026, 3, 10, 16, 0)),
	})
	require.Error(t, err)
	assert.Equal(t, "ROOM_OCCUPIED", codeOf(err))
	appErr, _ := apperror.As(err)
	assert.Equal(t, first.Booking.ID, appErr.Details["conflicting_booking_id"])
}

func TestCheckOut_RejectsSegmentsAfterCheckout(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 13)
	early := local(2026, 3, 11, 10, 0)

	_, err := f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{BookingID: view.Booking.ID, At: &early})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "UNRESOLVED_SEGMENTS", codeOf(err))
	appErr, _ := apperror.As(err)
	assert.Len(t, appErr.Details["segments"], 2)

	view, err = f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{BookingID: view.Booking.ID, At: &early, ReleaseFuture: true})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedOut, view.Booking.Status)
	assert.Equal(t, 500000.0, view.Booking.ExpectedTotal)

	var cancelled int
	for _, s := range view.Segments {
		if s.Status == domain.SegmentCancelled {
			cancelled++
			require.NotNil(t, s.ClosedAt)
		}
	}
	assert.Equal(t, 2, cancelled)
	assert.Equal(t, domain.RoomNeedsCleaning, f.room(t, "101").Status)
}

func TestCheckOut_CancelPolicy(t *testing.T) {
	f := newFixture(t, func(o *booking.Options) { o.CheckoutPolicy = booking.CheckoutCancel })
	view := f.checkedIn(t, "101", 13)

	view, err := f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{
		BookingID: view.Booking.ID,
		At:        ptr(local(2026, 3, 11, 10, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedOut, view.Booking.Status)
	assert.Equal(t, 500000.0, view.Booking.ExpectedTotal)
}

func TestCheckOut_OnTime(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)

	view, err := f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{
		BookingID: view.Booking.ID,
		At:        ptr(local(2026, 3, 12, 11, 30)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1000000.0, view.Booking.ExpectedTotal)
	for _, s := range view.Segments {
		assert.Equal(t, domain.SegmentActive, s.Status)
	}
}

func TestCheckOut_BeforeCheckIn(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)

	_, err := f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{
		BookingID: view.Booking.ID,
		At:        ptr(local(2026, 3, 10, 13, 0)),
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCheckOut_RequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	view := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 11, 11, 0),
	})

	_, err := f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{BookingID: view.Booking.ID})
	assert.ErrorIs(t, err, apperror.ErrState)
}

// Only the rooms the guest still occupies are locked; the room left behind
// by a transfer is not.
func TestCheckOut_LocksCurrentRooms(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 13)
	_, err := f.engine.Transfers.Transfer(f.ctx, booking.TransferInput{
		BookingID: view.Booking.ID,
		OldRoomID: f.roomID("101"),
		NewRoomID: f.roomID("102"),
		At:        ptr(local(2026, 3, 11, 15, 0)),
	})
	require.NoError(t, err)
	in := booking.CheckOutInput{BookingID: view.Booking.ID, At: ptr(local(2026, 3, 13, 11, 0))}

	unlock, err := f.locks.Lock(f.ctx, f.roomID("102"))
	require.NoError(t, err)
	_, err = f.engine.Lifecycle.CheckOut(f.ctx, in)
	assert.True(t, roomlock.IsLocked(err), err)
	unlock()

	unlock, err = f.locks.Lock(f.ctx, f.roomID("101"))
	require.NoError(t, err)
	defer unlock()
	view, err = f.engine.Lifecycle.CheckOut(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCheckedOut, view.Booking.Status)
	assert.Equal(t, domain.RoomNeedsCleaning, f.room(t, "102").Status)
}

func TestCancel_ReleasesEverything(t *testing.T) {
	f := newFixture(t)
	solo := f.create(t, booking.CreateBookingInput{
		Source:         domain.SourceOnline,
		CheckIn:        local(2026, 3, 10, 14, 0),
		CheckOut:       local(2026, 3, 12, 11, 0),
		DepositPercent: 30,
		RoomIDs:        []int64{f.roomID("101")},
		Holds:          []booking.HoldInput{{RoomTypeID: f.cat.Deluxe.ID, Quantity: 1}},
		Confirm:        true,
	})
	soloInvoice, err := f.engine.Lifecycle.IssueDepositInvoice(f.ctx, booking.DepositInvoiceInput{BookingIDs: []int64{solo.Booking.ID}})
	require.NoError(t, err)
	assert.Equal(t, 300000.0, soloInvoice.Amount)

	partnerA := f.create(t, booking.CreateBookingInput{CheckIn: local(2026, 3, 10, 14, 0), CheckOut: local(2026, 3, 11, 11, 0)})
	partnerB := f.create(t, booking.CreateBookingInput{CheckIn: local(2026, 3, 10, 14, 0), CheckOut: local(2026, 3, 11, 11, 0)})
	group, err := f.engine.Lifecycle.IssueDepositInvoice(f.ctx, booking.DepositInvoiceInput{
		BookingIDs: []int64{partnerA.Booking.ID, partnerB.Booking.ID},
		Amount:     ptr(250000.0),
	})
	require.NoError(t, err)

	view, err := f.engine.Lifecycle.Cancel(f.ctx, solo.Booking.ID, "  flight cancelled ")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, view.Booking.Status)
	assert.Equal(t, "flight cancelled", view.Booking.CancelReason)
	assert.NotNil(t, view.Booking.CancelledAt)
	assert.Empty(t, view.Segments)
	assert.Zero(t, view.Booking.ExpectedTotal)
	require.Len(t, view.PreAllocations, 1)
	assert.Equal(t, domain.PreAllocationCancelled, view.PreAllocations[0].Status)

	links, err := f.store.Invoices().ListByBooking(f.ctx, solo.Booking.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, domain.InvoiceVoid, links[0].Invoice.Status)

	_, err = f.engine.Lifecycle.Cancel(f.ctx, partnerA.Booking.ID, "")
	require.NoError(t, err)
	links, err = f.store.Invoices().ListByBooking(f.ctx, partnerB.Booking.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, group.ID, links[0].Invoice.ID)
	assert.Equal(t, domain.InvoiceIssued, links[0].Invoice.Status)
	assert.Equal(t, int64(2), links[0].LinkedCount)

	// The room is free again for the same window.
	other := f.create(t, booking.CreateBookingInput{
		CustomerID: 11,
		CheckIn:    local(2026, 3, 10, 14, 0),
		CheckOut:   local(2026, 3, 12, 11, 0),
		RoomIDs:    []int64{f.roomID("101")},
	})
	assert.Len(t, other.Segments, 2)
}

func TestCancel_CheckedInBookingIsRefused(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)

	_, err := f.engine.Lifecycle.Cancel(f.ctx, view.Booking.ID, "")
	assert.ErrorIs(t, err, apperror.ErrState)
}

func TestSweepNoShows(t *testing.T) {
	f := newFixture(t)
	overdue := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 9, 14, 0),
		CheckOut: local(2026, 3, 11, 11, 0),
		RoomIDs:  []int64{f.roomID("102")},
		Confirm:  true,
	})
	today := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 11, 11, 0),
		Confirm:  true,
	})

	res, err := f.engine.Lifecycle.SweepNoShows(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{overdue.Booking.ID}, res.Marked)
	assert.Empty(t, res.Failed)

	got, err := f.engine.Lifecycle.Get(f.ctx, overdue.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingNoShow, got.Booking.Status)
	assert.Empty(t, got.Segments)

	got, err = f.engine.Lifecycle.Get(f.ctx, today.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Booking.Status)
}

func TestExtend(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)

	view, err := f.engine.Lifecycle.Extend(f.ctx, view.Booking.ID, local(2026, 3, 14, 11, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC), view.Booking.PlannedCheckOut)
	require.Len(t, view.Segments, 4)
	assert.Equal(t, 3, view.Segments[2].Seq)
	assert.Equal(t, 2000000.0, view.Booking.ExpectedTotal)

	_, err = f.engine.Lifecycle.Extend(f.ctx, view.Booking.ID, local(2026, 3, 13, 11, 0))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestExtend_ConflictKeepsBooking(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)
	f.create(t, booking.CreateBookingInput{
		CustomerID: 12,
		CheckIn:    local(2026, 3, 13, 14, 0),
		CheckOut:   local(2026, 3, 15, 11, 0),
		RoomIDs:    []int64{f.roomID("101")},
	})

	_, err := f.engine.Lifecycle.Extend(f.ctx, view.Booking.ID, local(2026, 3, 14, 11, 0))
	require.Error(t, err)
	assert.Equal(t, "SEGMENT_OVERLAP", codeOf(err))

	got, err := f.engine.Lifecycle.Get(f.ctx, view.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Booking.PlannedCheckOut, got.Booking.PlannedCheckOut)
	assert.Len(t, got.Segments, 2)
}

func TestExtend_AfterNightTransfer(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 13)
	_, err := f.engine.Transfers.Transfer(f.ctx, booking.TransferInput{
		BookingID: view.Booking.ID,
		OldRoomID: f.roomID("101"),
		NewRoomID: f.roomID("102"),
		At:        ptr(local(2026, 3, 11, 15, 0)),
	})
	require.NoError(t, err)

	view, err = f.engine.Lifecycle.Extend(f.ctx, view.Booking.ID, local(2026, 3, 14, 11, 0))
	require.NoError(t, err)
	assert.Equal(t, 2000000.0, view.Booking.ExpectedTotal)

	var oldActive int
	var newNights []time.Time
	for _, s := range view.Segments {
		if s.Status != domain.SegmentActive {
			continue
		}
		switch s.RoomID {
		case f.roomID("101"):
			oldActive++
		case f.roomID("102"):
			newNights = append(newNights, s.EndsAt)
		}
	}
	assert.Equal(t, 1, oldActive)
	require.Len(t, newNights, 3)
	assert.Equal(t, time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC), newNights[2])
}

func TestFinalizeInvoice(t *testing.T) {
	f := newFixture(t)
	view := f.checkedIn(t, "101", 12)

	_, err := f.engine.Lifecycle.FinalizeInvoice(f.ctx, view.Booking.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_CHECKED_OUT", codeOf(err))

	_, err = f.engine.Attachments.AttachService(f.ctx, booking.AttachServiceInput{
		BookingID: view.Booking.ID,
		RoomID:    f.roomID("101"),
		ServiceID: f.cat.Breakfast.ID,
		Quantity:  2,
		At:        ptr(local(2026, 3, 11, 7, 30)),
	})
	require.NoError(t, err)
	_, err = f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{BookingID: view.Booking.ID, At: ptr(local(2026, 3, 12, 11, 0))})
	require.NoError(t, err)

	folio, err := f.engine.Lifecycle.FinalizeInvoice(f.ctx, view.Booking.ID)
	require.NoError(t, err)
	for _, s := range folio.Segments {
		assert.Equal(t, domain.SegmentInvoiced, s.Status)
	}
	require.Len(t, folio.Charges, 1)
	assert.Equal(t, domain.ChargeInvoiced, folio.Charges[0].Status)
	assert.Equal(t, 1000000.0, folio.RoomTotal)
	assert.Equal(t, 160000.0, folio.ServiceTotal)
	assert.Equal(t, 1160000.0, folio.GrandTotal)
	assert.Equal(t, 1000000.0, folio.Booking.ExpectedTotal)
}

func TestIssueDepositInvoice(t *testing.T) {
	f := newFixture(t)
	fixed := f.create(t, booking.CreateBookingInput{
		CheckIn:       local(2026, 3, 10, 14, 0),
		CheckOut:      local(2026, 3, 11, 11, 0),
		DepositAmount: 120000,
	})
	none := f.create(t, booking.CreateBookingInput{
		CheckIn:  local(2026, 3, 10, 14, 0),
		CheckOut: local(2026, 3, 11, 11, 0),
	})

	_, err := f.engine.Lifecycle.IssueDepositInvoice(f.ctx, booking.DepositInvoiceInput{BookingIDs: []int64{none.Booking.ID}})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	inv, err := f.engine.Lifecycle.IssueDepositInvoice(f.ctx, booking.DepositInvoiceInput{BookingIDs: []int64{fixed.Booking.ID, fixed.Booking.ID}})
	require.NoError(t, err)
	assert.Equal(t, 120000.0, inv.Amount)
	assert.Equal(t, domain.InvoiceIssued, inv.Status)
	assert.Equal(t, []int64{fixed.Booking.ID}, inv.BookingIDs)
	assert.Regexp(t, `^DEP-[0-9A-F-]{36}$`, inv.Code)

	_, err = f.engine.Lifecycle.IssueDepositInvoice(f.ctx, booking.DepositInvoiceInput{BookingIDs: []int64{fixed.Booking.ID, none.Booking.ID}, Amount: ptr(50000.0)})
	require.Error(t, err)
	assert.Equal(t, "INVOICE_ALREADY_LINKED", codeOf(err))

	_, err = f.engine.Lifecycle.IssueDepositInvoice(f.ctx, booking.DepositInvoiceInput{BookingIDs: []int64{none.Booking.ID}, Amount: ptr(-1.0)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestHousekeeping(t *testing.T) {
	f := newFixture(t)
	roomID := f.roomID("103")

	_, err := f.engine.Lifecycle.MarkRoomCleaned(f.ctx, roomID)
	assert.ErrorIs(t, err, apperror.ErrState)

	room, err := f.engine.Lifecycle.SetRoomMaintenance(f.ctx, roomID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMaintenance, room.Status)

	room, err = f.engine.Lifecycle.SetRoomMaintenance(f.ctx, roomID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMaintenance, room.Status)

	room, err = f.engine.Lifecycle.SetRoomMaintenance(f.ctx, roomID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomAvailable, room.Status)

	view := f.checkedIn(t, "103", 11)
	_, err = f.engine.Lifecycle.SetRoomMaintenance(f.ctx, roomID, true)
	assert.ErrorIs(t, err, apperror.ErrState)

	_, err = f.engine.Lifecycle.CheckOut(f.ctx, booking.CheckOutInput{BookingID: view.Booking.ID, At: ptr(local(2026, 3, 11, 11, 0))})
	require.NoError(t, err)
	room, err = f.engine.Lifecycle.MarkRoomCleaned(f.ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomAvailable, room.Status)

	var statuses []domain.RoomStatus
	for _, c := range f.events.all() {
		if c.RoomID == roomID {
			statuses = append(statuses, c.To)
		}
	}
	assert.Equal(t, []domain.RoomStatus{
		domain.RoomMaintenance,
		domain.RoomAvailable,
		domain.RoomOccupied,
		domain.RoomNeedsCleaning,
		domain.RoomAvailable,
	}, statuses)
}
