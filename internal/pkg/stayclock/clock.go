package stayclock

import (
	"math"
	"time"
)

const (
	DefaultAnchorHour   = 12
	DefaultBillingBlock = 30 * time.Minute
)

// Clock owns every conversion between hotel-local calendar dates and the UTC
// instants persisted for stay segments. A night anchored on date D covers
// [AnchorForNight(D), AnchorForNight(D)+24h).
type Clock struct {
	loc        *time.Location
	anchorHour int
	block      time.Duration
	now        func() time.Time
}

type Option func(*Clock)

func WithBillingBlock(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.block = d
		}
	}
}

// WithNow replaces the wall clock, used by tests and batch jobs.
func WithNow(fn func() time.Time) Option {
	return func(c *Clock) {
		if fn != nil {
			c.now = fn
		}
	}
}

func New(loc *time.Location, anchorHour int, opts ...Option) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	c := &Clock{
		loc:        loc,
		anchorHour: anchorHour,
		block:      DefaultBillingBlock,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default is UTC+7 with a noon anchor, so a night starts at 05:00 UTC.
func Default(opts ...Option) *Clock {
	return New(time.FixedZone("UTC+07:00", 7*3600), DefaultAnchorHour, opts...)
}

func (c *Clock) Location() *time.Location { return c.loc }
func (c *Clock) AnchorHour() int           { return c.anchorHour }
func (c *Clock) Block() time.Duration      { return c.block }

func (c *Clock) Now() time.Time {
	return Normalize(c.now())
}

// Normalize converts t to the storage form: UTC, whole seconds.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Date builds a calendar date value (midnight UTC).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf keeps the year, month and day of t as read in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// LocalDate returns the hotel-local calendar date containing instant t.
func (c *Clock) LocalDate(t time.Time) time.Time {
	return DateOf(t.In(c.loc))
}

func (c *Clock) AnchorForNight(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.anchorHour, 0, 0, 0, c.loc).UTC()
}

func (c *Clock) NightWindow(date time.Time) Window {
	from := c.AnchorForNight(date)
	return Window{From: from, To: c.AnchorForNight(DateOf(date).AddDate(0, 0, 1))}
}

// NightStay snaps a planned stay onto night anchors of the local dates of
// checkIn and checkOut.
func (c *Clock) NightStay(checkIn, checkOut time.Time) Window {
	return Window{
		From: c.AnchorForNight(c.LocalDate(checkIn)),
		To:   c.AnchorForNight(c.LocalDate(checkOut)),
	}
}

// Nights lists the calendar dates whose night window starts inside w.
func (c *Clock) Nights(w Window) []time.Time {
	var out []time.Time
	for d := c.LocalDate(w.From); c.AnchorForNight(d).Before(w.To); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// BilledHours rounds the elapsed time up to whole billing blocks and reports
// it in hours.
func (c *Clock) BilledHours(from, to time.Time) float64 {
	elapsed := to.Sub(from)
	if elapsed <= 0 {
		return 0
	}
	blocks := math.Ceil(float64(elapsed) / float64(c.block))
	return blocks * c.block.Hours()
}
