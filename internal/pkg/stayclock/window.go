package stayclock

import "time"

// Window is a half-open interval [From, To).
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (w Window) Valid() bool {
	return w.From.Before(w.To)
}

func (w Window) Overlaps(o Window) bool {
	return w.From.Before(o.To) && o.From.Before(w.To)
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Grow widens both edges by d.
func (w Window) Grow(d time.Duration) Window {
	return Window{From: w.From.Add(-d), To: w.To.Add(d)}
}

// Distance is zero inside the window, otherwise the gap to the nearest edge.
func (w Window) Distance(t time.Time) time.Duration {
	switch {
	case t.Before(w.From):
		return w.From.Sub(t)
	case !t.Before(w.To):
		return t.Sub(w.To)
	default:
		return 0
	}
}
