package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/pricing"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
)

// Allocator turns a booking's occupancy of one room into stay segments.
type Allocator struct {
	*deps
}

type stayUnit struct {
	window    stayclock.Window
	night     *time.Time
	priceDate time.Time
	quantity  float64
}

// Allocate materializes the booking's planned window on roomID. Either
// every segment is created or none is.
func (a *Allocator) Allocate(ctx context.Context, bookingID, roomID int64) ([]domain.StaySegment, error) {
	var created []domain.StaySegment
	err := a.run(ctx, []int64{roomID}, func(st Store, _ *roomChanges) error {
		b, err := st.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		created, err = a.allocate(ctx, st, b, roomID, b.PlannedWindow())
		return err
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindConflict {
			a.log.Warn("allocation rejected", zap.Int64("booking_id", bookingID), zap.Int64("room_id", roomID), zap.Error(err))
		}
		return nil, err
	}

	a.log.Info("room allocated",
		zap.Int64("booking_id", bookingID),
		zap.Int64("room_id", roomID),
		zap.Int("segments", len(created)))
	return created, nil
}

func (a *Allocator) allocate(ctx context.Context, st Store, b *domain.Booking, roomID int64, w stayclock.Window) ([]domain.StaySegment, error) {
	if b.SegmentsFrozen() {
		return nil, errSegmentsFrozen(b)
	}
	if !w.Valid() {
		return nil, apperror.Validation("allocation window is empty")
	}

	room, err := st.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	units := a.plan(b.RentalMode, w)
	if len(units) == 0 {
		return nil, apperror.Validation("allocation window covers no billable unit")
	}
	span := stayclock.Window{From: units[0].window.From, To: units[len(units)-1].window.To}

	conflicts, err := st.Segments().FindActiveOverlaps(ctx, roomID, span)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, errSegmentOverlap(roomID, conflicts)
	}

	funded, err := st.Allocations().Consume(ctx, b.ID, room.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if !funded {
		free, err := freeCount(ctx, st, room.RoomTypeID, span, b.ID)
		if err != nil {
			return nil, err
		}
		if free < 1 {
			return nil, apperror.Conflict("ROOM_TYPE_SOLD_OUT", "no free room of this type is left for the window").
				With("room_type_id", room.RoomTypeID).
				With("room_id", roomID)
		}
	}

	seq, err := st.Segments().NextSeq(ctx, b.ID, roomID)
	if err != nil {
		return nil, err
	}

	prices := pricing.NewBatch(st.Prices())
	segments := make([]domain.StaySegment, 0, len(units))
	for i, u := range units {
		quote, err := prices.Resolve(ctx, room.RoomTypeID, b.RentalMode, u.priceDate)
		if err != nil {
			return nil, err
		}
		seg := domain.StaySegment{
			BookingID:       b.ID,
			RoomID:          roomID,
			Seq:             seq + i,
			RentalMode:      b.RentalMode,
			NightDate:       u.night,
			StartsAt:        u.window.From,
			EndsAt:          u.window.To,
			Quantity:        u.quantity,
			UnitPrice:       quote.UnitPrice,
			Status:          domain.SegmentActive,
			PricingPeriodID: quote.PeriodID,
		}
		seg.Recompute()
		segments = append(segments, seg)
	}

	if err := st.Segments().CreateBatch(ctx, segments); err != nil {
		return nil, err
	}
	if err := refreshTotal(ctx, st, b); err != nil {
		return nil, err
	}
	return segments, nil
}

// plan splits w into one unit per night, or a single hour range.
func (a *Allocator) plan(mode domain.RentalMode, w stayclock.Window) []stayUnit {
	if mode == domain.RentalHour {
		return []stayUnit{{
			window:    w,
			priceDate: a.clock.LocalDate(w.From),
			quantity:  a.clock.BilledHours(w.From, w.To),
		}}
	}

	nights := a.clock.Nights(w)
	units := make([]stayUnit, 0, len(nights))
	for _, night := range nights {
		units = append(units, stayUnit{
			window:    a.clock.NightWindow(night),
			night:     &night,
			priceDate: night,
			quantity:  1,
		})
	}
	return units
}
