package booking_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hotelstay/internal/database"
	"hotelstay/internal/domain"
	"hotelstay/internal/domain/booking"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/roomlock"
	"hotelstay/internal/pkg/stayclock"
	"hotelstay/internal/repository"
)

// 10:00 local time on 10 March 2026.
var fixedNow = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

type recorder struct {
	mu      sync.Mutex
	changes []domain.RoomStatusChange
}

func (r *recorder) PublishRoomStatus(c domain.RoomStatusChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) all() []domain.RoomStatusChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RoomStatusChange(nil), r.changes...)
}

type fixture struct {
	ctx    context.Context
	store  *repository.Store
	engine *booking.Engine
	cat    *database.Catalog
	clock  *stayclock.Clock
	events *recorder
	locks  *roomlock.LocalLocker
}

func newFixture(t *testing.T, opts ...func(*booking.Options)) *fixture {
	t.Helper()
	ctx := context.Background()

	dsn := "file:booking_" + strings.ReplaceAll(uuid.NewString(), "-", "") + "?mode=memory&cache=shared"
	db, err := database.Connect(dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, database.Migrate(ctx, db))
	cat, err := database.Seed(ctx, db)
	require.NoError(t, err)

	clock := stayclock.Default(stayclock.WithNow(func() time.Time { return fixedNow }))
	o := booking.Options{Clock: clock}
	for _, fn := range opts {
		fn(&o)
	}

	store := repository.NewStore(db)
	events := &recorder{}
	locks := roomlock.NewLocalLocker(200 * time.Millisecond)
	engine := booking.NewEngine(store, store, locks, events, o, zap.NewNop())
	return &fixture{ctx: ctx, store: store, engine: engine, cat: cat, clock: clock, events: events, locks: locks}
}

func (f *fixture) roomID(number string) int64 {
	return f.cat.Room(number).ID
}

func (f *fixture) room(t *testing.T, number string) *domain.Room {
	t.Helper()
	r, err := f.store.Rooms().GetByID(f.ctx, f.roomID(number))
	require.NoError(t, err)
	return r
}

// create books a stay for customer 7, NIGHT unless the input says otherwise.
func (f *fixture) create(t *testing.T, in booking.CreateBookingInput) *booking.BookingView {
	t.Helper()
	if in.CustomerID == 0 {
		in.CustomerID = 7
	}
	if in.RentalMode == "" {
		in.RentalMode = domain.RentalNight
	}
	view, err := f.engine.Lifecycle.CreateBooking(f.ctx, in)
	require.NoError(t, err)
	return view
}

func local(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.FixedZone("UTC+07:00", 7*3600))
}

func ptr[T any](v T) *T { return &v }

func codeOf(err error) string {
	if appErr, ok := apperror.As(err); ok {
		return appErr.Code
	}
	return ""
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
