/*
adjust.go - Bank-day adjustment and bank-day anchored lookups

PURPOSE:
  Shifts a computed date onto a bank day per policy, and locates the Nth
  bank day of a month for the bank-day anchored variants. Both are pure
  functions of their inputs plus the supplied BankCalendar.

RULES:
  - No adjustment, or a date that is already a bank day: returned unchanged.
  - next/previous: walk day-by-day in that direction until a bank day.
  - keep_in_month: if the walk would cross a month boundary, reverse
    direction instead, so the result never leaves the targeted month.
*/
package recurrence

import "time"

// AdjustToBankDay applies an adjustment policy to a computed date.
//
// With KeepInMonth set, a forward walk that would spill into the next month
// resumes backward from the original date within the same month, and vice
// versa. A month with no bank day at all (not reachable with real calendars)
// returns the date unchanged.
func AdjustToBankDay(cal BankCalendar, d Date, adj Adjustment) Date {
	if adj.IsZero() || cal.IsBankDay(d) {
		return d
	}

	step := 1
	if adj.Direction == AdjustPrevious {
		step = -1
	}

	cur := d.AddDays(step)
	for {
		if adj.KeepInMonth && !cur.SameMonth(d) {
			return adjustWithinMonth(cal, d, -step)
		}
		if cal.IsBankDay(cur) {
			return cur
		}
		cur = cur.AddDays(step)
	}
}

// adjustWithinMonth walks from d in the given direction, stopping at the
// month edge. Used when keep_in_month reverses the primary direction.
func adjustWithinMonth(cal BankCalendar, d Date, step int) Date {
	cur := d.AddDays(step)
	for cur.SameMonth(d) {
		if cal.IsBankDay(cur) {
			return cur
		}
		cur = cur.AddDays(step)
	}
	return d
}

// NthBankDay returns the Nth bank day (1-based) of the month containing the
// given date, counted from the start or, with fromEnd, from the end. The
// boolean is false when the month has fewer bank days than requested.
func NthBankDay(cal BankCalendar, month Date, n int, fromEnd bool) (Date, bool) {
	start := month.MonthStart()
	end := month.MonthEnd()

	if fromEnd {
		count := 0
		for cur := end; cur.AfterOrEqual(start); cur = cur.AddDays(-1) {
			if cal.IsBankDay(cur) {
				count++
				if count == n {
					return cur, true
				}
			}
		}
		return Date{}, false
	}

	count := 0
	for cur := start; cur.BeforeOrEqual(end); cur = cur.AddDays(1) {
		if cal.IsBankDay(cur) {
			count++
			if count == n {
				return cur, true
			}
		}
	}
	return Date{}, false
}

// RelativeWeekday returns the date selected by a relative position within the
// month containing anchor: the 1st..4th occurrence of weekday counted from
// the month start, or the final occurrence scanned backward from month end.
// The boolean is false for a 5th occurrence a month does not have.
func RelativeWeekday(anchor Date, weekday time.Weekday, pos RelativePosition) (Date, bool) {
	if pos == Last {
		// Scan backward: never assume a fixed week count.
		for cur := anchor.MonthEnd(); ; cur = cur.AddDays(-1) {
			if cur.Weekday() == weekday {
				return cur, true
			}
		}
	}

	count := 0
	end := anchor.MonthEnd()
	for cur := anchor.MonthStart(); cur.BeforeOrEqual(end); cur = cur.AddDays(1) {
		if cur.Weekday() == weekday {
			count++
			if count == int(pos) {
				return cur, true
			}
		}
	}
	return Date{}, false
}
