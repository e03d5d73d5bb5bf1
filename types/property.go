package types

import "time"

// PropertyContext is established once per request and never mutated afterwards.
type PropertyContext struct {
	PropertyID   string
	BusinessDate time.Time
	BaseCurrency string
	Actor        string
	RequestID    string
}

// Today returns the business date truncated to midnight UTC.
func (p PropertyContext) Today() time.Time {
	return DateOnly(p.BusinessDate)
}

// IsBaseCurrency reports whether code is empty or equal to the base currency.
func (p PropertyContext) IsBaseCurrency(code string) bool {
	return code == "" || code == p.BaseCurrency
}

// DateOnly drops the clock part and normalises to UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights lists every stay-date in [from, to).
func Nights(from, to time.Time) []time.Time {
	from, to = DateOnly(from), DateOnly(to)
	var nights []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// DaysBetween counts calendar days from from to to.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// MaxDate returns the later of a and b.
func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
