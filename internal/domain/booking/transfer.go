package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
)

// TransferEngine moves an in-house guest to another room mid-stay.
type TransferEngine struct {
	*deps
	allocator *Allocator
}

type TransferResult struct {
	BookingID     int64                `json:"booking_id"`
	OldRoomID     int64                `json:"old_room_id"`
	NewRoomID     int64                `json:"new_room_id"`
	At            time.Time            `json:"at"`
	Closed        []domain.StaySegment `json:"closed"`
	Opened        []domain.StaySegment `json:"opened"`
	ExpectedTotal float64              `json:"expected_total"`
}

// Transfer closes the old room's segments at the transfer instant and
// allocates the rest of the planned stay on the new room. Hour stays are
// billed up to the instant, rounded to the billing block. Night stays move
// whole nights from the instant's local date onwards.
func (t *TransferEngine) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.OldRoomID <= 0 || in.NewRoomID <= 0 {
		return nil, apperror.Validation("old_room_id and new_room_id are required")
	}
	if in.OldRoomID == in.NewRoomID {
		return nil, apperror.Validation("new room must differ from the old room").With("room_id", in.NewRoomID)
	}
	at := t.instant(in.At)

	res := &TransferResult{BookingID: in.BookingID, OldRoomID: in.OldRoomID, NewRoomID: in.NewRoomID, At: at}
	err := t.run(ctx, []int64{in.OldRoomID, in.NewRoomID}, func(st Store, rc *roomChanges) error {
		res.Closed, res.Opened = nil, nil

		b, err := st.Bookings().GetByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingCheckedIn {
			return apperror.New(apperror.KindState, "NOT_CHECKED_IN", "only in-house bookings can change rooms").
				With("booking_id", b.ID).
				With("current", b.Status)
		}
		lodging := b.LodgingWindow()
		if at.Before(lodging.From) || !at.Before(b.PlannedCheckOut) {
			return apperror.Validation("transfer instant is outside the stay").
				With("from", lodging.From.Format(time.RFC3339)).
				With("to", b.PlannedCheckOut.Format(time.RFC3339))
		}

		oldRoom, err := st.Rooms().GetByID(ctx, in.OldRoomID)
		if err != nil {
			return err
		}
		newRoom, err := st.Rooms().GetByID(ctx, in.NewRoomID)
		if err != nil {
			return err
		}
		if err := ensureRoomReady(ctx, st, newRoom, b.ID, at); err != nil {
			return err
		}

		segments, err := st.Segments().ListByBookingRoom(ctx, b.ID, oldRoom.ID)
		if err != nil {
			return err
		}

		var remainder stayclock.Window
		if b.RentalMode == domain.RentalHour {
			res.Closed, err = t.closeHours(ctx, st, segments, at, newRoom.ID)
			remainder = stayclock.Window{From: at, To: b.PlannedCheckOut}
		} else {
			eff := t.clock.LocalDate(at)
			res.Closed, err = t.closeNights(ctx, st, segments, eff, at, newRoom.ID)
			remainder = stayclock.Window{From: t.clock.AnchorForNight(eff), To: b.PlannedCheckOut}
		}
		if err != nil {
			return err
		}
		if len(res.Closed) == 0 {
			return apperror.NotFound("active segment", in.OldRoomID).With("booking_id", b.ID)
		}

		res.Opened, err = t.allocator.allocate(ctx, st, b, newRoom.ID, remainder)
		if err != nil {
			return err
		}
		res.ExpectedTotal = b.ExpectedTotal

		if err := rc.set(ctx, st, oldRoom, domain.RoomNeedsCleaning, b.ID, at); err != nil {
			return err
		}
		return rc.set(ctx, st, newRoom, domain.RoomOccupied, b.ID, at)
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindConflict {
			t.log.Warn("room transfer rejected",
				zap.Int64("booking_id", in.BookingID),
				zap.Int64("new_room_id", in.NewRoomID),
				zap.Error(err))
		}
		return nil, err
	}

	t.log.Info("room transferred",
		zap.Int64("booking_id", in.BookingID),
		zap.Int64("old_room_id", in.OldRoomID),
		zap.Int64("new_room_id", in.NewRoomID),
		zap.Time("at", at),
		zap.Int("closed", len(res.Closed)),
		zap.Int("opened", len(res.Opened)))
	return res, nil
}

// closeHours bills the segment running at `at` up to that instant and
// zeroes any later hour segment on the room.
func (t *TransferEngine) closeHours(ctx context.Context, st Store, segments []domain.StaySegment, at time.Time, newRoomID int64) ([]domain.StaySegment, error) {
	var closed []domain.StaySegment
	for i := range segments {
		s := &segments[i]
		if s.Status != domain.SegmentActive || !s.EndsAt.After(at) {
			continue
		}
		if s.StartsAt.Before(at) {
			s.Quantity = t.clock.BilledHours(s.StartsAt, at)
			s.EndsAt = at
		} else {
			s.Quantity = 0
		}
		if err := t.markTransferred(ctx, st, s, at, newRoomID); err != nil {
			return nil, err
		}
		closed = append(closed, *s)
	}
	return closed, nil
}

// closeNights hands over every night from eff on. Nights are never
// prorated: a handed-over night carries no amount on the old room.
func (t *TransferEngine) closeNights(ctx context.Context, st Store, segments []domain.StaySegment, eff, at time.Time, newRoomID int64) ([]domain.StaySegment, error) {
	var closed []domain.StaySegment
	for i := range segments {
		s := &segments[i]
		if s.Status != domain.SegmentActive || s.NightDate == nil || s.NightDate.Before(eff) {
			continue
		}
		s.Quantity = 0
		if err := t.markTransferred(ctx, st, s, at, newRoomID); err != nil {
			return nil, err
		}
		closed = append(closed, *s)
	}
	return closed, nil
}

func (t *TransferEngine) markTransferred(ctx context.Context, st Store, s *domain.StaySegment, at time.Time, newRoomID int64) error {
	s.Status = domain.SegmentTransferred
	s.ClosedAt = &at
	s.TransferredToRoomID = &newRoomID
	s.Recompute()
	return st.Segments().Save(ctx, s)
}
