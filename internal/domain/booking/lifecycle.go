package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
	"hotelstay/internal/pkg/validator"
)

// Lifecycle owns the booking state machine and the room status side
// effects of each transition.
type Lifecycle struct {
	*deps
	allocator    *Allocator
	availability *Availability
	policy       CheckoutPolicy
	noShowGrace  time.Duration
}

// CreateBooking stores the booking header, its type-level holds and the
// segments of every requested room in one transaction.
func (l *Lifecycle) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingView, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}
	window, err := l.availability.Window(in.RentalMode, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = domain.SourceFrontDesk
	}
	status := domain.BookingPending
	if in.Confirm {
		status = domain.BookingConfirmed
	}
	b := &domain.Booking{
		CustomerID:      in.CustomerID,
		RentalMode:      in.RentalMode,
		Source:          source,
		PlannedCheckIn:  window.From,
		PlannedCheckOut: window.To,
		Status:          status,
		DepositPercent:  in.DepositPercent,
		DepositAmount:   domain.RoundMoney(in.DepositAmount),
		Notes:           strings.TrimSpace(in.Notes),
	}

	roomIDs := uniqueIDs(in.RoomIDs)
	err = l.run(ctx, roomIDs, func(st Store, _ *roomChanges) error {
		if err := st.Bookings().Create(ctx, b); err != nil {
			return err
		}
		if err := l.placeHolds(ctx, st, b, window, in.Holds); err != nil {
			return err
		}
		for _, roomID := range roomIDs {
			if _, err := l.allocator.allocate(ctx, st, b, roomID, window); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.String("rental_mode", string(b.RentalMode)),
		zap.Int("rooms", len(roomIDs)),
		zap.Int("holds", len(in.Holds)),
		zap.Float64("expected_total", b.ExpectedTotal))
	return l.Get(ctx, b.ID)
}

func (l *Lifecycle) placeHolds(ctx context.Context, st Store, b *domain.Booking, w stayclock.Window, holds []HoldInput) error {
	if len(holds) == 0 {
		return nil
	}

	qty := make(map[int64]int)
	var order []int64
	for _, h := range holds {
		if _, ok := qty[h.RoomTypeID]; !ok {
			order = append(order, h.RoomTypeID)
		}
		qty[h.RoomTypeID] += h.Quantity
	}

	rows := make([]domain.PreAllocation, 0, len(order))
	for _, typeID := range order {
		free, err := freeCount(ctx, st, typeID, w, b.ID)
		if err != nil {
			return err
		}
		if free < qty[typeID] {
			return apperror.Conflict("ROOM_TYPE_SOLD_OUT", "not enough free rooms of this type to hold").
				With("room_type_id", typeID).
				With("requested", qty[typeID]).
				With("free", free)
		}
		rows = append(rows, domain.PreAllocation{
			BookingID:  b.ID,
			RoomTypeID: typeID,
			Quantity:   qty[typeID],
			Status:     domain.PreAllocationConfirmed,
		})
	}
	return st.Allocations().CreateBatch(ctx, rows)
}

func (l *Lifecycle) Confirm(ctx context.Context, bookingID int64) (*BookingView, error) {
	err := l.run(ctx, nil, func(st Store, _ *roomChanges) error {
		b, err := st.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(domain.BookingConfirmed) {
			return errTransition(b, domain.BookingConfirmed)
		}
		b.Status = domain.BookingConfirmed
		return st.Bookings().Save(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return l.Get(ctx, bookingID)
}

// CheckIn puts the guest into roomID. A room the booking holds no segment
// on is allocated first. A booking already checked in may take more rooms.
func (l *Lifecycle) CheckIn(ctx context.Context, in CheckInInput) (*BookingView, error) {
	if in.RoomID <= 0 {
		return nil, apperror.Validation("room_id is required")
	}
	at := l.instant(in.At)

	err := l.run(ctx, []int64{in.RoomID}, func(st Store, rc *roomChanges) error {
		b, err := st.Bookings().GetByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingCheckedIn && !b.Status.CanTransitionTo(domain.BookingCheckedIn) {
			return errTransition(b, domain.BookingCheckedIn)
		}

		room, err := st.Rooms().GetByID(ctx, in.RoomID)
		if err != nil {
			return err
		}
		segments, err := st.Segments().ListByBookingRoom(ctx, b.ID, room.ID)
		if err != nil {
			return err
		}
		holdsRoom := len(roomsWithActive(segments)) > 0

		if b.Status == domain.BookingCheckedIn && holdsRoom && room.Status == domain.RoomOccupied {
			return apperror.New(apperror.KindState, "ALREADY_CHECKED_IN", "booking already occupies this room").
				With("booking_id", b.ID).
				With("room_id", room.ID)
		}
		if err := ensureRoomReady(ctx, st, room, b.ID, at); err != nil {
			return err
		}

		if !holdsRoom {
			w := b.PlannedWindow()
			if b.Status == domain.BookingCheckedIn {
				w = remainderWindow(l.clock, b, at)
			}
			if _, err := l.allocator.allocate(ctx, st, b, room.ID, w); err != nil {
				return err
			}
		}

		if b.ActualCheckIn == nil {
			b.ActualCheckIn = &at
		}
		b.Status = domain.BookingCheckedIn
		if err := st.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return rc.set(ctx, st, room, domain.RoomOccupied, b.ID, at)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("guest checked in", zap.Int64("booking_id", in.BookingID), zap.Int64("room_id", in.RoomID), zap.Time("at", at))
	return l.Get(ctx, in.BookingID)
}

// CheckOut closes the stay. Segments that have not started by the check-out
// instant are resolved by the checkout policy; every room the guest still
// occupies goes to NEEDS_CLEANING.
func (l *Lifecycle) CheckOut(ctx context.Context, in CheckOutInput) (*BookingView, error) {
	at := l.instant(in.At)
	current, err := l.store.Segments().ListByBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	err = l.run(ctx, currentRooms(current), func(st Store, rc *roomChanges) error {
		b, err := st.Bookings().GetByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(domain.BookingCheckedOut) {
			return errTransition(b, domain.BookingCheckedOut)
		}
		if b.ActualCheckIn != nil && at.Before(*b.ActualCheckIn) {
			return apperror.Validation("check-out cannot precede check-in").
				With("actual_check_in", b.ActualCheckIn.Format(time.RFC3339))
		}

		segments, err := st.Segments().ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}

		var unresolved []int
		for i, s := range segments {
			if s.Status == domain.SegmentActive && !s.StartsAt.Before(at) {
				unresolved = append(unresolved, i)
			}
		}
		if len(unresolved) > 0 {
			if l.policy != CheckoutCancel && !in.ReleaseFuture {
				details := make([]map[string]any, 0, len(unresolved))
				for _, i := range unresolved {
					details = append(details, map[string]any{
						"room_id":   segments[i].RoomID,
						"seq":       segments[i].Seq,
						"starts_at": segments[i].StartsAt.Format(time.RFC3339),
					})
				}
				return apperror.Conflict("UNRESOLVED_SEGMENTS", "booking still has stay segments after the check-out instant").
					With("booking_id", b.ID).
					With("segments", details)
			}
			for _, i := range unresolved {
				s := &segments[i]
				s.Status = domain.SegmentCancelled
				s.ClosedAt = &at
				if err := st.Segments().Save(ctx, s); err != nil {
					return err
				}
			}
		}

		b.ActualCheckOut = &at
		b.Status = domain.BookingCheckedOut
		if err := refreshTotal(ctx, st, b); err != nil {
			return err
		}

		for _, roomID := range currentRooms(segments) {
			room, err := st.Rooms().GetByID(ctx, roomID)
			if err != nil {
				return err
			}
			if room.Status != domain.RoomOccupied {
				continue
			}
			if err := rc.set(ctx, st, room, domain.RoomNeedsCleaning, b.ID, at); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("guest checked out", zap.Int64("booking_id", in.BookingID), zap.Time("at", at))
	return l.Get(ctx, in.BookingID)
}

func (l *Lifecycle) Cancel(ctx context.Context, bookingID int64, reason string) (*BookingView, error) {
	return l.terminate(ctx, bookingID, domain.BookingCancelled, strings.TrimSpace(reason))
}

func (l *Lifecycle) MarkNoShow(ctx context.Context, bookingID int64) (*BookingView, error) {
	return l.terminate(ctx, bookingID, domain.BookingNoShow, "guest did not arrive")
}

// terminate removes uninvoiced segments, cancels holds and voids deposit
// invoices that cover only this booking.
func (l *Lifecycle) terminate(ctx context.Context, bookingID int64, target domain.BookingStatus, reason string) (*BookingView, error) {
	var removed, released int64
	var voided []int64

	err := l.run(ctx, nil, func(st Store, _ *roomChanges) error {
		removed, released, voided = 0, 0, nil

		b, err := st.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(target) {
			return errTransition(b, target)
		}
		now := l.clock.Now()

		if removed, err = st.Segments().DeleteUninvoiced(ctx, b.ID); err != nil {
			return err
		}
		if released, err = st.Allocations().CancelByBooking(ctx, b.ID); err != nil {
			return err
		}

		links, err := st.Invoices().ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, link := range links {
			if link.LinkedCount != 1 || link.Invoice.Status != domain.InvoiceIssued {
				continue
			}
			if err := st.Invoices().Void(ctx, link.Invoice.ID, now); err != nil {
				return err
			}
			voided = append(voided, link.Invoice.ID)
		}

		b.Status = target
		b.CancelledAt = &now
		b.CancelReason = reason
		return refreshTotal(ctx, st, b)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("booking terminated",
		zap.Int64("booking_id", bookingID),
		zap.String("status", string(target)),
		zap.Int64("segments_removed", removed),
		zap.Int64("holds_cancelled", released),
		zap.Int64s("invoices_voided", voided))
	return l.Get(ctx, bookingID)
}

// SweepNoShows marks PENDING/CONFIRMED bookings whose planned check-in is
// older than the grace period as NO_SHOW.
func (l *Lifecycle) SweepNoShows(ctx context.Context) (*SweepResult, error) {
	cutoff := l.clock.Now().Add(-l.noShowGrace)
	overdue, err := l.store.Bookings().ListOverdue(ctx, cutoff, 500)
	if err != nil {
		return nil, err
	}

	res := &SweepResult{Marked: []int64{}}
	for _, b := range overdue {
		if _, err := l.MarkNoShow(ctx, b.ID); err != nil {
			if res.Failed == nil {
				res.Failed = make(map[int64]string)
			}
			res.Failed[b.ID] = err.Error()
			l.log.Warn("no-show sweep skipped booking", zap.Int64("booking_id", b.ID), zap.Error(err))
			continue
		}
		res.Marked = append(res.Marked, b.ID)
	}
	return res, nil
}

// Extend moves the planned check-out later and allocates the added window
// on every room the booking currently holds.
func (l *Lifecycle) Extend(ctx context.Context, bookingID int64, newCheckOut time.Time) (*BookingView, error) {
	current, err := l.store.Segments().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	err = l.run(ctx, currentRooms(current), func(st Store, _ *roomChanges) error {
		b, err := st.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.SegmentsFrozen() {
			return errSegmentsFrozen(b)
		}

		w, err := l.availability.Window(b.RentalMode, b.PlannedCheckIn, newCheckOut)
		if err != nil {
			return err
		}
		if !w.To.After(b.PlannedCheckOut) {
			return apperror.Validation("new check-out must be after the planned check-out").
				With("planned_check_out", b.PlannedCheckOut.Format(time.RFC3339))
		}
		added := stayclock.Window{From: b.PlannedCheckOut, To: w.To}

		holds, err := st.Allocations().ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, h := range holds {
			need := h.Outstanding()
			if need <= 0 {
				continue
			}
			free, err := freeCount(ctx, st, h.RoomTypeID, added, b.ID)
			if err != nil {
				return err
			}
			if free < need {
				return apperror.Conflict("ROOM_TYPE_SOLD_OUT", "held room type is not free for the extension").
					With("room_type_id", h.RoomTypeID).
					With("requested", need).
					With("free", free)
			}
		}

		segments, err := st.Segments().ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		b.PlannedCheckOut = w.To
		for _, roomID := range currentRooms(segments) {
			if _, err := l.allocator.allocate(ctx, st, b, roomID, added); err != nil {
				return err
			}
		}
		return st.Bookings().Save(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("stay extended", zap.Int64("booking_id", bookingID), zap.Time("check_out", newCheckOut))
	return l.Get(ctx, bookingID)
}

// FinalizeInvoice is the billing hand-off: ACTIVE segments and OPEN charges
// of a checked-out booking become INVOICED.
func (l *Lifecycle) FinalizeInvoice(ctx context.Context, bookingID int64) (*Folio, error) {
	err := l.run(ctx, nil, func(st Store, _ *roomChanges) error {
		b, err := st.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingCheckedOut {
			return apperror.New(apperror.KindState, "NOT_CHECKED_OUT", "only checked-out bookings can be invoiced").
				With("booking_id", b.ID).
				With("current", b.Status)
		}
		if _, err := st.Segments().MarkInvoiced(ctx, b.ID); err != nil {
			return err
		}
		if _, err := st.Charges().MarkInvoiced(ctx, b.ID); err != nil {
			return err
		}
		return refreshTotal(ctx, st, b)
	})
	if err != nil {
		return nil, err
	}
	return l.Folio(ctx, bookingID)
}

// IssueDepositInvoice creates one deposit invoice covering the given
// bookings. Without an explicit amount each booking contributes its
// requested deposit amount, or its percentage of the expected total.
func (l *Lifecycle) IssueDepositInvoice(ctx context.Context, in DepositInvoiceInput) (*domain.DepositInvoice, error) {
	ids := uniqueIDs(in.BookingIDs)
	if len(ids) == 0 {
		return nil, apperror.Validation("at least one booking is required")
	}
	if in.Amount != nil && *in.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	inv := &domain.DepositInvoice{
		Code:   "DEP-" + strings.ToUpper(uuid.NewString()),
		Status: domain.InvoiceIssued,
	}
	err := l.run(ctx, nil, func(st Store, _ *roomChanges) error {
		var total float64
		for _, id := range ids {
			b, err := st.Bookings().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if b.SegmentsFrozen() {
				return apperror.New(apperror.KindState, "BOOKING_CLOSED", "booking no longer accepts deposits").
					With("booking_id", b.ID).
					With("current", b.Status)
			}
			links, err := st.Invoices().ListByBooking(ctx, id)
			if err != nil {
				return err
			}
			for _, link := range links {
				if link.Invoice.Status == domain.InvoiceVoid {
					continue
				}
				return apperror.Conflict("INVOICE_ALREADY_LINKED", "booking already has a deposit invoice").
					With("booking_id", id).
					With("invoice_id", link.Invoice.ID).
					With("invoice_code", link.Invoice.Code)
			}
			total += depositFor(b)
		}

		amount := total
		if in.Amount != nil {
			amount = *in.Amount
		}
		if amount <= 0 {
			return apperror.Validation("deposit amount resolves to zero").With("booking_ids", ids)
		}
		inv.Amount = domain.RoundMoney(amount)
		inv.IssuedAt = l.clock.Now()
		inv.BookingIDs = ids
		return st.Invoices().Create(ctx, inv, ids)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("deposit invoice issued", zap.Int64("invoice_id", inv.ID), zap.Int64s("booking_ids", ids), zap.Float64("amount", inv.Amount))
	return inv, nil
}

func depositFor(b *domain.Booking) float64 {
	if b.DepositAmount > 0 {
		return b.DepositAmount
	}
	return domain.RoundMoney(b.ExpectedTotal * b.DepositPercent / 100)
}

// MarkRoomCleaned returns a room from NEEDS_CLEANING to AVAILABLE.
func (l *Lifecycle) MarkRoomCleaned(ctx context.Context, roomID int64) (*domain.Room, error) {
	var room *domain.Room
	err := l.run(ctx, []int64{roomID}, func(st Store, rc *roomChanges) error {
		var err error
		room, err = st.Rooms().GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		if room.Status != domain.RoomNeedsCleaning {
			return apperror.State(string(room.Status), string(domain.RoomAvailable)).With("room_id", roomID)
		}
		return rc.set(ctx, st, room, domain.RoomAvailable, 0, l.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// SetRoomMaintenance takes a room out of service or returns it. Occupied
// rooms cannot go into maintenance.
func (l *Lifecycle) SetRoomMaintenance(ctx context.Context, roomID int64, on bool) (*domain.Room, error) {
	var room *domain.Room
	err := l.run(ctx, []int64{roomID}, func(st Store, rc *roomChanges) error {
		var err error
		room, err = st.Rooms().GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		now := l.clock.Now()

		if on {
			switch room.Status {
			case domain.RoomMaintenance:
				return nil
			case domain.RoomOccupied:
				return apperror.State(string(room.Status), string(domain.RoomMaintenance)).With("room_id", roomID)
			}
			return rc.set(ctx, st, room, domain.RoomMaintenance, 0, now)
		}

		if room.Status != domain.RoomMaintenance {
			return apperror.State(string(room.Status), string(domain.RoomAvailable)).With("room_id", roomID)
		}
		return rc.set(ctx, st, room, domain.RoomAvailable, 0, now)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (l *Lifecycle) Get(ctx context.Context, bookingID int64) (*BookingView, error) {
	b, err := l.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	segments, err := l.store.Segments().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	holds, err := l.store.Allocations().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &BookingView{Booking: *b, Segments: segments, PreAllocations: holds}, nil
}

func (l *Lifecycle) Folio(ctx context.Context, bookingID int64) (*Folio, error) {
	b, err := l.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	segments, err := l.store.Segments().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	charges, err := l.store.Charges().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	f := &Folio{Booking: *b, Segments: segments, Charges: charges}
	for _, s := range segments {
		if s.Status.Billable() {
			f.RoomTotal += s.Amount
		}
	}
	for _, c := range charges {
		if c.Status != domain.ChargeVoid {
			f.ServiceTotal += c.Amount
		}
	}
	f.RoomTotal = domain.RoundMoney(f.RoomTotal)
	f.ServiceTotal = domain.RoundMoney(f.ServiceTotal)
	f.GrandTotal = domain.RoundMoney(f.RoomTotal + f.ServiceTotal)
	return f, nil
}

// ensureRoomReady rejects rooms out of service or held by another in-house
// guest.
func ensureRoomReady(ctx context.Context, st Store, room *domain.Room, bookingID int64, at time.Time) error {
	if room.Status == domain.RoomMaintenance || room.Status == domain.RoomNeedsCleaning {
		return errRoomNotReady(room)
	}
	occupants, err := st.Segments().FindOccupants(ctx, room.ID, at, bookingID)
	if err != nil {
		return err
	}
	if len(occupants) > 0 {
		return errRoomOccupied(room.ID, &occupants[0])
	}
	if room.Status == domain.RoomOccupied {
		return errRoomOccupied(room.ID, nil)
	}
	return nil
}

// remainderWindow is what is left of the planned stay from at onwards.
// Night stays restart at the anchor of at's local date.
func remainderWindow(clock *stayclock.Clock, b *domain.Booking, at time.Time) stayclock.Window {
	if b.RentalMode == domain.RentalNight {
		return stayclock.Window{From: clock.AnchorForNight(clock.LocalDate(at)), To: b.PlannedCheckOut}
	}
	return stayclock.Window{From: at, To: b.PlannedCheckOut}
}
