package domain

import "time"

// Period is an inclusive range of calendar dates. A zero bound is unbounded on that side.
type Period struct {
	From time.Time
	To   time.Time
}

// DateOf is the UTC calendar date of t at midnight.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthPeriod covers the whole calendar month.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: start, To: start.AddDate(0, 1, -1)}
}

// MonthOf is the calendar month containing t.
func MonthOf(t time.Time) Period {
	t = t.UTC()
	return MonthPeriod(t.Year(), t.Month())
}

func (p Period) Contains(date time.Time) bool {
	d := DateOf(date)
	if !p.From.IsZero() && d.Before(DateOf(p.From)) {
		return false
	}
	if !p.To.IsZero() && d.After(DateOf(p.To)) {
		return false
	}
	return true
}

// Valid is false only when both bounds are set and inverted.
func (p Period) Valid() bool {
	return p.From.IsZero() || p.To.IsZero() || !DateOf(p.From).After(DateOf(p.To))
}
