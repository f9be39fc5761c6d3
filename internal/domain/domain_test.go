package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hotelstay/internal/pkg/stayclock"
)

func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCheckedIn, true},
		{BookingConfirmed, BookingNoShow, true},
		{BookingCheckedIn, BookingCheckedOut, true},
		{BookingCheckedIn, BookingCancelled, false},
		{BookingConfirmed, BookingPending, false},
		{BookingCheckedOut, BookingCheckedIn, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingNoShow, BookingCheckedIn, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, BookingCheckedIn.Blocking())
	assert.False(t, BookingPending.Blocking())
	assert.True(t, BookingNoShow.Terminal())
	assert.False(t, BookingCheckedOut.Terminal())
}

func TestBooking_LodgingWindow(t *testing.T) {
	in := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	out := in.Add(46 * time.Hour)
	b := &Booking{PlannedCheckIn: in, PlannedCheckOut: out, Status: BookingConfirmed}
	assert.Equal(t, stayclock.Window{From: in, To: out}, b.LodgingWindow())

	early := in.Add(-3 * time.Hour)
	b.ActualCheckIn = &early
	assert.Equal(t, early, b.LodgingWindow().From)
	assert.Equal(t, out, b.LodgingWindow().To)

	left := in.Add(20 * time.Hour)
	b.ActualCheckOut = &left
	assert.Equal(t, stayclock.Window{From: early, To: left}, b.LodgingWindow())
}

func TestBooking_SegmentsFrozen(t *testing.T) {
	for status, frozen := range map[BookingStatus]bool{
		BookingPending:    false,
		BookingConfirmed:  false,
		BookingCheckedIn:  false,
		BookingCheckedOut: true,
		BookingCancelled:  true,
		BookingNoShow:     true,
	} {
		b := &Booking{Status: status}
		assert.Equal(t, frozen, b.SegmentsFrozen(), status)
	}
}

func TestPricingPeriod_Covers(t *testing.T) {
	start, end := stayclock.Date(2026, 2, 14), stayclock.Date(2026, 2, 22)
	special := &PricingPeriod{Kind: PeriodSpecial, StartDate: &start, EndDate: &end}

	assert.True(t, special.Covers(start))
	assert.True(t, special.Covers(end))
	assert.False(t, special.Covers(stayclock.Date(2026, 2, 23)))
	assert.False(t, (&PricingPeriod{Kind: PeriodSpecial}).Covers(start))
	assert.True(t, (&PricingPeriod{Kind: PeriodBase}).Covers(stayclock.Date(1999, 1, 1)))
}

func TestStaySegment_Recompute(t *testing.T) {
	s := &StaySegment{Quantity: 2.5, UnitPrice: 80000.333}
	s.Recompute()
	assert.Equal(t, 200000.83, s.Amount)
}

func TestPreAllocation_Outstanding(t *testing.T) {
	p := &PreAllocation{Quantity: 3, AssignedCount: 1, Status: PreAllocationConfirmed}
	assert.Equal(t, 2, p.Outstanding())
	p.Status = PreAllocationCancelled
	assert.Equal(t, 0, p.Outstanding())
	assert.True(t, RentalHour.Valid())
	assert.False(t, RentalMode("WEEK").Valid())
}
