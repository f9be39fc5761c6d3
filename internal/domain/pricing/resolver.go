package pricing

import (
	"context"
	"time"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
)

// Quote is a resolved unit price for one (room type, mode, date).
type Quote struct {
	RoomTypeID int64             `json:"room_type_id"`
	RentalMode domain.RentalMode `json:"rental_mode"`
	Date       time.Time         `json:"date"`
	UnitPrice  float64           `json:"unit_price"`
	PeriodID   int64             `json:"period_id"`
	Special    bool              `json:"special"`
}

type Resolver struct {
	reader PriceReader
}

func NewResolver(reader PriceReader) *Resolver {
	return &Resolver{reader: reader}
}

// Resolve returns the special-period price covering date when one exists,
// otherwise the base price. A missing price is a NotFound error and callers
// must not substitute a default.
func (r *Resolver) Resolve(ctx context.Context, roomTypeID int64, mode domain.RentalMode, date time.Time) (Quote, error) {
	return resolve(ctx, r.reader, roomTypeID, mode, stayclock.DateOf(date))
}

func resolve(ctx context.Context, reader PriceReader, roomTypeID int64, mode domain.RentalMode, date time.Time) (Quote, error) {
	if !mode.Valid() {
		return Quote{}, apperror.Validation("unknown rental mode").With("rental_mode", mode)
	}

	special, err := reader.FindSpecialPrice(ctx, roomTypeID, mode, date)
	if err != nil {
		return Quote{}, err
	}
	if special != nil {
		return quoteFrom(roomTypeID, mode, date, special), nil
	}

	base, err := reader.FindBasePrice(ctx, roomTypeID, mode)
	if err != nil {
		return Quote{}, err
	}
	if base != nil {
		return quoteFrom(roomTypeID, mode, date, base), nil
	}
	return Quote{}, priceNotFound(roomTypeID, mode, date)
}

func quoteFrom(roomTypeID int64, mode domain.RentalMode, date time.Time, p *PeriodPrice) Quote {
	return Quote{
		RoomTypeID: roomTypeID,
		RentalMode: mode,
		Date:       date,
		UnitPrice:  p.UnitPrice,
		PeriodID:   p.PeriodID,
		Special:    p.Kind == domain.PeriodSpecial,
	}
}

func priceNotFound(roomTypeID int64, mode domain.RentalMode, date time.Time) error {
	return apperror.New(apperror.KindNotFound, "PRICE_NOT_FOUND", "no unit price for room type").
		With("room_type_id", roomTypeID).
		With("rental_mode", mode).
		With("date", date.Format(time.DateOnly))
}

type batchKey struct {
	roomTypeID int64
	mode       domain.RentalMode
}

// Batch resolves prices for one allocation. Special-period ranges and base
// rows already fetched are reused for later dates of the same batch.
type Batch struct {
	reader  PriceReader
	special map[batchKey][]PeriodPrice
	base    map[batchKey]*PeriodPrice
}

func NewBatch(reader PriceReader) *Batch {
	return &Batch{
		reader:  reader,
		special: make(map[batchKey][]PeriodPrice),
		base:    make(map[batchKey]*PeriodPrice),
	}
}

func (b *Batch) Resolve(ctx context.Context, roomTypeID int64, mode domain.RentalMode, date time.Time) (Quote, error) {
	date = stayclock.DateOf(date)
	key := batchKey{roomTypeID: roomTypeID, mode: mode}

	for _, p := range b.special[key] {
		if !date.Before(*p.StartDate) && !date.After(*p.EndDate) {
			return quoteFrom(roomTypeID, mode, date, &p), nil
		}
	}

	special, err := b.reader.FindSpecialPrice(ctx, roomTypeID, mode, date)
	if err != nil {
		return Quote{}, err
	}
	if special != nil {
		if special.StartDate != nil && special.EndDate != nil {
			b.special[key] = append(b.special[key], *special)
		}
		return quoteFrom(roomTypeID, mode, date, special), nil
	}

	base, cached := b.base[key]
	if !cached {
		base, err = b.reader.FindBasePrice(ctx, roomTypeID, mode)
		if err != nil {
			return Quote{}, err
		}
		b.base[key] = base
	}
	if base == nil {
		return Quote{}, priceNotFound(roomTypeID, mode, date)
	}
	return quoteFrom(roomTypeID, mode, date, base), nil
}
