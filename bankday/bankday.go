/*
Package bankday provides BankCalendar implementations.

PURPOSE:
  The engine only consumes a bank-day predicate; it does not own or refresh
  holiday data. This package supplies the concrete calendars:

  - Weekend: weekdays are bank days, nothing else considered. The fallback
    when no holiday data is loaded.
  - Table:   an immutable snapshot of known bank holidays on top of the
    weekend rule. Built once from already-fetched rows; lookups never touch
    a database, so engine calls stay free of I/O.

SNAPSHOTS:
  A Table is a value frozen at build time. Handlers hold one snapshot for
  the whole request, which is what makes generation deterministic: the same
  pattern, window and snapshot always produce the same occurrences.

SEE ALSO:
  - recurrence/date.go: the BankCalendar interface
  - api/refresher.go:   periodic snapshot rebuilds from the store
*/
package bankday

import (
	"github.com/openbudget/forecast-engine/recurrence"
)

// =============================================================================
// WEEKEND CALENDAR
// =============================================================================

// Weekend treats every weekday as a bank day.
type Weekend struct{}

// IsBankDay reports whether d is a weekday.
func (Weekend) IsBankDay(d recurrence.Date) bool {
	return !d.IsWeekend()
}

// NonBankDays returns the weekend days in [from, to].
func (w Weekend) NonBankDays(from, to recurrence.Date) []recurrence.Date {
	return collectNonBankDays(w, from, to)
}

// =============================================================================
// HOLIDAY TABLE CALENDAR
// =============================================================================

// Holiday is one known bank holiday.
type Holiday struct {
	Date recurrence.Date
	Name string
}

// Table is a weekend calendar extended with a fixed set of holidays.
// It is immutable after construction and safe for concurrent use.
type Table struct {
	holidays map[string]struct{}
}

// NewTable builds a snapshot from the given holidays. Weekend-dated holidays
// are harmless; weekends are non-bank days regardless.
func NewTable(holidays []Holiday) *Table {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Date.String()] = struct{}{}
	}
	return &Table{holidays: set}
}

// IsBankDay reports whether d is a weekday that is not a listed holiday.
func (t *Table) IsBankDay(d recurrence.Date) bool {
	if d.IsWeekend() {
		return false
	}
	_, holiday := t.holidays[d.String()]
	return !holiday
}

// NonBankDays returns every weekend day and holiday in [from, to], ascending.
func (t *Table) NonBankDays(from, to recurrence.Date) []recurrence.Date {
	return collectNonBankDays(t, from, to)
}

func collectNonBankDays(cal recurrence.BankCalendar, from, to recurrence.Date) []recurrence.Date {
	var days []recurrence.Date
	for cur := from; cur.BeforeOrEqual(to); cur = cur.AddDays(1) {
		if !cal.IsBankDay(cur) {
			days = append(days, cur)
		}
	}
	return days
}
