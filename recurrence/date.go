package recurrence

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// Date is a calendar day. The engine never deals in anything finer: an
// occurrence happens on a day, a window spans whole days, and a bank-day
// lookup answers for a day. Internally backed by a UTC midnight time.Time.
type Date struct {
	t time.Time
}

// NewDate constructs a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic. AddMonths and AddYears follow time.AddDate semantics, which
// normalize overflow (Jan 31 + 1 month = Mar 2/3). Callers that need
// clamp-to-month-end semantics use ClampedDay instead.
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// SameMonth reports whether two dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

func (d Date) String() string {
	return d.t.Format("2006-01-02")
}

// =============================================================================
// MONTH HELPERS
// =============================================================================

// StartOfMonth returns the first day of the given month.
func StartOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}

// EndOfMonth returns the last day of the given month.
func EndOfMonth(year int, month time.Month) Date {
	return Date{t: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// ClampedDay returns the given day within the month, clamped to the month's
// last day when the month is shorter. Requesting day 31 in February yields
// the 28th or 29th, never a spill into March.
func ClampedDay(year int, month time.Month, day int) Date {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// MonthStart returns the first day of the month containing d.
func (d Date) MonthStart() Date {
	return StartOfMonth(d.Year(), d.Month())
}

// MonthEnd returns the last day of the month containing d.
func (d Date) MonthEnd() Date {
	return EndOfMonth(d.Year(), d.Month())
}

// DaysBetween returns the number of days from a to b, negative when b
// precedes a.
func DaysBetween(a, b Date) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// MonthsBetween returns the number of whole calendar months from the month
// containing a to the month containing b. Negative when b's month precedes a's.
func MonthsBetween(a, b Date) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// =============================================================================
// BANK CALENDAR - Consumed oracle, never owned by the engine
// =============================================================================

// BankCalendar answers whether a day is a bank day. The engine treats it as a
// read-only, already-materialized lookup: implementations must not perform I/O
// during a call (fetch and cache holiday data before invoking the engine).
type BankCalendar interface {
	// IsBankDay reports whether the date is a banking day.
	IsBankDay(d Date) bool

	// NonBankDays returns every non-bank day in [from, to], ascending.
	// Used by the preview surface to shade closed days in the UI.
	NonBankDays(from, to Date) []Date
}
