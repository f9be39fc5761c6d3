package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotelstay/internal/domain"
	"hotelstay/internal/domain/pricing"
	"hotelstay/internal/pkg/stayclock"
)

type CheckoutPolicy string

const (
	// CheckoutReject refuses check-out while ACTIVE segments start at or
	// after the check-out instant.
	CheckoutReject CheckoutPolicy = "reject"
	// CheckoutCancel marks those segments CANCELLED.
	CheckoutCancel CheckoutPolicy = "cancel"
)

const (
	DefaultAttachTolerance = 2 * time.Hour
	DefaultNoShowGrace     = 6 * time.Hour
)

type Options struct {
	Clock             *stayclock.Clock
	CheckoutPolicy    CheckoutPolicy
	AttachTolerance   time.Duration
	LenientAttachment bool
	NoShowGrace       time.Duration
}

// Engine groups the stay-segment components over one store.
type Engine struct {
	Clock        *stayclock.Clock
	Availability *Availability
	Allocator    *Allocator
	Lifecycle    *Lifecycle
	Transfers    *TransferEngine
	Attachments  *Attachment
}

func NewEngine(store Store, tx Transactor, locker RoomLocker, events EventPublisher, opts Options, log *zap.Logger) *Engine {
	if opts.Clock == nil {
		opts.Clock = stayclock.Default()
	}
	if opts.CheckoutPolicy == "" {
		opts.CheckoutPolicy = CheckoutReject
	}
	if opts.AttachTolerance <= 0 {
		opts.AttachTolerance = DefaultAttachTolerance
	}
	if opts.NoShowGrace <= 0 {
		opts.NoShowGrace = DefaultNoShowGrace
	}
	if events == nil {
		events = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	d := &deps{
		store:  store,
		tx:     tx,
		locker: locker,
		events: events,
		clock:  opts.Clock,
		log:    log,
	}
	availability := &Availability{deps: d, prices: pricing.NewResolver(store.Prices())}
	allocator := &Allocator{deps: d}

	return &Engine{
		Clock:        opts.Clock,
		Availability: availability,
		Allocator:    allocator,
		Lifecycle: &Lifecycle{
			deps:         d,
			allocator:    allocator,
			availability: availability,
			policy:       opts.CheckoutPolicy,
			noShowGrace:  opts.NoShowGrace,
		},
		Transfers: &TransferEngine{deps: d, allocator: allocator},
		Attachments: &Attachment{
			deps:      d,
			tolerance: opts.AttachTolerance,
			lenient:   opts.LenientAttachment,
		},
	}
}

type deps struct {
	store  Store
	tx     Transactor
	locker RoomLocker
	events EventPublisher
	clock  *stayclock.Clock
	log    *zap.Logger
}

// run locks roomIDs, executes fn in one transaction and publishes the room
// status changes fn recorded once the transaction has committed.
func (d *deps) run(ctx context.Context, roomIDs []int64, fn func(Store, *roomChanges) error) error {
	if d.locker != nil && len(roomIDs) > 0 {
		unlock, err := d.locker.Lock(ctx, roomIDs...)
		if err != nil {
			return err
		}
		defer unlock()
	}

	changes := &roomChanges{}
	err := d.tx.WithinTx(ctx, func(st Store) error {
		changes.list = changes.list[:0]
		return fn(st, changes)
	})
	if err != nil {
		return err
	}

	for _, c := range changes.list {
		d.events.PublishRoomStatus(c)
	}
	return nil
}

func (d *deps) instant(at *time.Time) time.Time {
	if at == nil || at.IsZero() {
		return d.clock.Now()
	}
	return stayclock.Normalize(*at)
}

// roomChanges is the only writer of Room.Status.
type roomChanges struct {
	list []domain.RoomStatusChange
}

func (rc *roomChanges) set(ctx context.Context, st Store, room *domain.Room, to domain.RoomStatus, bookingID int64, at time.Time) error {
	if room.Status == to {
		return nil
	}
	if err := st.Rooms().UpdateStatus(ctx, room.ID, to); err != nil {
		return err
	}
	rc.list = append(rc.list, domain.RoomStatusChange{
		RoomID:    room.ID,
		From:      room.Status,
		To:        to,
		BookingID: bookingID,
		At:        at,
	})
	room.Status = to
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishRoomStatus(domain.RoomStatusChange) {}

func refreshTotal(ctx context.Context, st Store, b *domain.Booking) error {
	total, err := st.Segments().SumBillable(ctx, b.ID)
	if err != nil {
		return err
	}
	b.ExpectedTotal = domain.RoundMoney(total)
	return st.Bookings().Save(ctx, b)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// currentRooms lists rooms whose latest segment for the booking was not
// handed over by a transfer.
func currentRooms(segments []domain.StaySegment) []int64 {
	latest := make(map[int64]domain.StaySegment)
	var order []int64
	for _, s := range segments {
		prev, ok := latest[s.RoomID]
		if !ok {
			order = append(order, s.RoomID)
		}
		if !ok || s.Seq > prev.Seq {
			latest[s.RoomID] = s
		}
	}

	var out []int64
	for _, roomID := range order {
		if latest[roomID].Status != domain.SegmentTransferred {
			out = append(out, roomID)
		}
	}
	return out
}

func roomsWithActive(segments []domain.StaySegment) []int64 {
	var ids []int64
	for _, s := range segments {
		if s.Status == domain.SegmentActive {
			ids = append(ids, s.RoomID)
		}
	}
	return uniqueIDs(ids)
}
