package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
	"hotelstay/internal/pkg/validator"
)

// Attachment resolves which stay segment a service charge belongs to.
type Attachment struct {
	*deps
	tolerance time.Duration
	lenient   bool
}

// Coverage is the segment chosen for an instant. Approximate is set when
// no segment covers the instant and the nearest ACTIVE one was taken.
type Coverage struct {
	Segment     domain.StaySegment `json:"segment"`
	Approximate bool               `json:"approximate"`
}

func (a *Attachment) FindCoveringSegment(ctx context.Context, bookingID, roomID int64, at time.Time) (*Coverage, error) {
	return a.findCovering(ctx, a.store, bookingID, roomID, at)
}

// findCovering only considers instants inside the booking's lodging window.
// It prefers an hour segment containing at, then the closest night within
// the tolerance, then in lenient mode the nearest ACTIVE segment.
func (a *Attachment) findCovering(ctx context.Context, st Store, bookingID, roomID int64, at time.Time) (*Coverage, error) {
	if at.IsZero() {
		return nil, apperror.Validation("instant is required")
	}
	at = stayclock.Normalize(at)

	b, err := st.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	lodging := b.LodgingWindow()
	if !lodging.Contains(at) {
		return nil, errNoCoveringSegment(bookingID, roomID, at).
			With("lodging_from", lodging.From.Format(time.RFC3339)).
			With("lodging_to", lodging.To.Format(time.RFC3339))
	}

	segments, err := st.Segments().ListByBookingRoom(ctx, bookingID, roomID)
	if err != nil {
		return nil, err
	}

	for _, s := range segments {
		if s.RentalMode == domain.RentalHour && covers(s) && s.Window().Contains(at) {
			return &Coverage{Segment: s}, nil
		}
	}

	var best *domain.StaySegment
	var bestDist time.Duration
	for i := range segments {
		s := &segments[i]
		if s.RentalMode != domain.RentalNight || s.NightDate == nil || !covers(*s) {
			continue
		}
		d := a.clock.NightWindow(*s.NightDate).Distance(at)
		if d > a.tolerance {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = s, d
		}
	}
	if best != nil {
		return &Coverage{Segment: *best}, nil
	}

	if a.lenient {
		best = nil
		for i := range segments {
			s := &segments[i]
			if s.Status != domain.SegmentActive {
				continue
			}
			d := s.Window().Distance(at)
			if best == nil || d < bestDist {
				best, bestDist = s, d
			}
		}
		if best != nil {
			a.log.Warn("service charge attached to nearest segment",
				zap.Int64("booking_id", bookingID),
				zap.Int64("room_id", roomID),
				zap.Int("seq", best.Seq),
				zap.Time("at", at),
				zap.Duration("distance", bestDist))
			return &Coverage{Segment: *best, Approximate: true}, nil
		}
	}

	return nil, errNoCoveringSegment(bookingID, roomID, at)
}

// AttachService records a service charge against the covering segment.
// The charge is refused when no segment qualifies.
func (a *Attachment) AttachService(ctx context.Context, in AttachServiceInput) (*domain.ServiceCharge, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}
	at := a.instant(in.At)

	var charge *domain.ServiceCharge
	err := a.run(ctx, nil, func(st Store, _ *roomChanges) error {
		b, err := st.Bookings().GetByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingCheckedIn && b.Status != domain.BookingCheckedOut {
			return apperror.New(apperror.KindState, "NOT_IN_HOUSE", "services can only be charged to a stay that has started").
				With("booking_id", b.ID).
				With("current", b.Status)
		}

		service, err := st.Charges().GetService(ctx, in.ServiceID)
		if err != nil {
			return err
		}
		if !service.Active {
			return apperror.Conflict("SERVICE_INACTIVE", "service is not offered any more").With("service_id", service.ID)
		}

		cov, err := a.findCovering(ctx, st, b.ID, in.RoomID, at)
		if err != nil {
			return err
		}

		line, err := st.Charges().NextLineSeq(ctx, b.ID, in.RoomID, cov.Segment.Seq, service.ID)
		if err != nil {
			return err
		}
		charge = &domain.ServiceCharge{
			BookingID:   b.ID,
			RoomID:      in.RoomID,
			SegmentSeq:  cov.Segment.Seq,
			ServiceID:   service.ID,
			LineSeq:     line,
			Quantity:    in.Quantity,
			UnitPrice:   service.UnitPrice,
			Amount:      domain.RoundMoney(in.Quantity * service.UnitPrice),
			ChargedAt:   at,
			Status:      domain.ChargeOpen,
			Approximate: cov.Approximate,
		}
		return st.Charges().Create(ctx, charge)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("service charged",
		zap.Int64("booking_id", charge.BookingID),
		zap.Int64("room_id", charge.RoomID),
		zap.Int("segment_seq", charge.SegmentSeq),
		zap.Int64("service_id", charge.ServiceID),
		zap.Float64("amount", charge.Amount),
		zap.Bool("approximate", charge.Approximate))
	return charge, nil
}

// covers reports whether a segment still represents time the guest spent
// in the room.
func covers(s domain.StaySegment) bool {
	switch s.Status {
	case domain.SegmentActive, domain.SegmentInvoiced:
		return true
	case domain.SegmentTransferred:
		return s.Quantity > 0
	}
	return false
}
