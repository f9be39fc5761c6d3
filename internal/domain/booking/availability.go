package booking

import (
	"context"
	"time"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/pricing"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
)

// Availability counts free rooms per type from booking windows and holds.
// It never looks at Room.Status: a room AVAILABLE today may be booked
// from tomorrow.
type Availability struct {
	*deps
	prices *pricing.Resolver
}

type TypeAvailability struct {
	RoomType  domain.RoomType `json:"room_type"`
	FreeCount int             `json:"free_count"`
	UnitPrice *float64        `json:"unit_price"`
	Special   bool            `json:"special"`
}

func (a *Availability) FreeCount(ctx context.Context, roomTypeID int64, from, to time.Time, mode domain.RentalMode) (int, error) {
	w, err := a.Window(mode, from, to)
	if err != nil {
		return 0, err
	}
	return freeCount(ctx, a.store, roomTypeID, w, 0)
}

// Summary reports the free count and the unit price on the first day for
// every room type. A type without a price is still listed.
func (a *Availability) Summary(ctx context.Context, from, to time.Time, mode domain.RentalMode) ([]TypeAvailability, error) {
	w, err := a.Window(mode, from, to)
	if err != nil {
		return nil, err
	}
	types, err := a.store.Rooms().ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}

	priceDate := a.clock.LocalDate(w.From)
	out := make([]TypeAvailability, 0, len(types))
	for _, rt := range types {
		free, err := freeCount(ctx, a.store, rt.ID, w, 0)
		if err != nil {
			return nil, err
		}
		item := TypeAvailability{RoomType: rt, FreeCount: free}

		quote, err := a.prices.Resolve(ctx, rt.ID, mode, priceDate)
		switch {
		case err == nil:
			price := quote.UnitPrice
			item.UnitPrice = &price
			item.Special = quote.Special
		case apperror.KindOf(err) != apperror.KindNotFound:
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Window validates a requested stay and maps it to stored instants. Night
// stays snap to night anchors of their local dates.
func (a *Availability) Window(mode domain.RentalMode, from, to time.Time) (stayclock.Window, error) {
	if !mode.Valid() {
		return stayclock.Window{}, apperror.Validation("rental_mode must be NIGHT or HOUR").With("rental_mode", mode)
	}
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return stayclock.Window{}, apperror.Validation("check-in must be before check-out")
	}

	var w stayclock.Window
	if mode == domain.RentalNight {
		w = a.clock.NightStay(from, to)
		if !w.Valid() {
			return stayclock.Window{}, apperror.Validation("a night stay must cover at least one night")
		}
		return w, nil
	}
	w = stayclock.Window{From: stayclock.Normalize(from), To: stayclock.Normalize(to)}
	if !w.Valid() {
		return stayclock.Window{}, apperror.Validation("hour stay must last at least one second")
	}
	return w, nil
}

func freeCount(ctx context.Context, st Store, roomTypeID int64, w stayclock.Window, excludeBookingID int64) (int, error) {
	occ := st.Occupancy()
	total, err := occ.CountRooms(ctx, roomTypeID)
	if err != nil || total == 0 {
		return 0, err
	}
	blocked, err := occ.CountBlockedRooms(ctx, roomTypeID, w, excludeBookingID)
	if err != nil {
		return 0, err
	}
	held, err := occ.OutstandingHolds(ctx, roomTypeID, w, excludeBookingID)
	if err != nil {
		return 0, err
	}

	free := total - blocked - held
	if free < 0 {
		return 0, nil
	}
	return int(free), nil
}
