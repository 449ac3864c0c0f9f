/*
generate.go - The occurrence generator

PURPOSE:
  Expands one AmountPattern into the ordered, finite sequence of occurrences
  it produces inside a window. This is the single source of truth for both
  the forecast projector and the timeline preview; they must never hold
  divergent copies of this logic.

CONTRACT:
  - Restartable and idempotent: identical inputs (including an identical
    bank-calendar snapshot) yield an identical sequence. No memory of prior
    calls.
  - Candidates are scheduled inside [max(start, from), min(end, to)]; an
    empty range yields an empty result, which is normal.
  - Output is sorted ascending by date and bounded by the caller's window.
    An adjusted date may step outside the pattern's own start/end bounds
    (a "previous" adjustment of an occurrence scheduled on start_date, say)
    and is still emitted as long as it stays inside the window.
  - Every loop strictly advances its candidate date, so generation time is
    proportional to the window, never to an unbounded horizon.

ADJUSTMENT AND THE WINDOW:
  Candidates are enumerated over the clipped range padded by a few weeks on
  both sides, adjusted, and then filtered to the caller's window. This way a
  candidate just outside the window whose adjusted date falls inside is
  found, and one adjusted out of the window is dropped - each occurrence
  lands in exactly one window of a month-by-month sweep.

DEDUP:
  When two occurrences of the same pattern adjust onto the same day (two
  consecutive "last bank day" candidates colliding across a holiday run),
  they merge into one event with summed amount, unless the pattern sets
  no_dedup. Collisions across different patterns are never merged.
*/
package recurrence

import (
	"fmt"
	"sort"
	"time"
)

// adjustPad is how far beyond the clipped range candidates are enumerated so
// that bank-day adjustment across the window edge is seen from both sides.
// Three weeks comfortably covers any weekend-plus-holiday run.
const adjustPad = 21

// Generator expands amount patterns against a bank calendar snapshot.
// It is stateless and safe for concurrent use.
type Generator struct {
	Calendar BankCalendar
}

// NewGenerator returns a generator backed by the given calendar.
func NewGenerator(cal BankCalendar) *Generator {
	return &Generator{Calendar: cal}
}

// Generate expands the pattern into its occurrences within the window,
// sorted ascending by date. patternIndex is stamped on every occurrence so
// callers can trace events back to the pattern that produced them.
//
// A reversed window returns ErrInvalidWindow. A malformed variant panics:
// by the time a pattern reaches the generator it must be structurally valid
// (see forecast.PatternBuilder), so a gap here is a programming defect.
func (g *Generator) Generate(patternIndex int, p AmountPattern, w Window) ([]Occurrence, error) {
	if w.To.Before(w.From) {
		return nil, ErrInvalidWindow
	}
	if p.Recurrence == nil {
		panic(&MalformedPatternError{Detail: "nil recurrence variant"})
	}

	clipped, ok := w.clip(p)
	if !ok {
		return nil, nil
	}

	if IsPeriodPattern(p.Recurrence) {
		return g.generatePeriods(patternIndex, p, clipped), nil
	}

	candidates := g.candidates(p, clipped)

	adj := adjustmentOf(p.Recurrence)
	occs := make([]Occurrence, 0, len(candidates))
	for _, c := range candidates {
		d := AdjustToBankDay(g.Calendar, c, adj)
		if !w.Contains(d) {
			continue
		}
		occs = append(occs, Occurrence{
			PatternIndex: patternIndex,
			Date:         d,
			Amount:       p.Amount,
			Kind:         KindDate,
		})
	}

	// Adjustment can reorder neighbouring candidates; restore date order.
	sort.SliceStable(occs, func(i, j int) bool { return occs[i].Date.Before(occs[j].Date) })

	if !adj.NoDedup {
		occs = mergeSameDay(occs)
	}
	return occs, nil
}

// mergeSameDay collapses consecutive same-day occurrences into one with
// summed amount. Input must be sorted by date.
func mergeSameDay(occs []Occurrence) []Occurrence {
	if len(occs) < 2 {
		return occs
	}
	merged := occs[:1]
	for _, o := range occs[1:] {
		last := &merged[len(merged)-1]
		if o.Date.Equal(last.Date) {
			last.Amount += o.Amount
			continue
		}
		merged = append(merged, o)
	}
	return merged
}

// candidates enumerates unadjusted candidate dates for date-based variants
// over the clipped range padded by adjustPad, still honouring the pattern's
// own start/end bounds.
func (g *Generator) candidates(p AmountPattern, clipped Window) []Date {
	lo := clipped.From.AddDays(-adjustPad)
	if lo.Before(p.Start) {
		lo = p.Start
	}
	hi := clipped.To.AddDays(adjustPad)
	if p.End != nil && p.End.Before(hi) {
		hi = *p.End
	}

	switch v := p.Recurrence.(type) {
	case Once:
		if p.Start.AfterOrEqual(lo) && p.Start.BeforeOrEqual(hi) {
			return []Date{p.Start}
		}
		return nil

	case Daily:
		return g.dailyCandidates(p.Start, normInterval(v.Interval), lo, hi)

	case Weekly:
		first := p.Start
		for first.Weekday() != v.Weekday {
			first = first.AddDays(1)
		}
		return g.dailyCandidates(first, 7*normInterval(v.Interval), lo, hi)

	case MonthlyFixed:
		if v.DayOfMonth < 1 || v.DayOfMonth > 31 {
			panic(&MalformedPatternError{Kind: v.Kind(), Detail: fmt.Sprintf("day_of_month %d out of range", v.DayOfMonth)})
		}
		return g.monthGridCandidates(p.Start, normInterval(v.Interval), lo, hi, func(month Date) (Date, bool) {
			return ClampedDay(month.Year(), month.Month(), v.DayOfMonth), true
		})

	case MonthlyRelative:
		if !validPosition(v.Position) {
			panic(&MalformedPatternError{Kind: v.Kind(), Detail: fmt.Sprintf("relative position %d", v.Position)})
		}
		return g.monthGridCandidates(p.Start, normInterval(v.Interval), lo, hi, func(month Date) (Date, bool) {
			return RelativeWeekday(month, v.Weekday, v.Position)
		})

	case MonthlyBankDay:
		if v.BankDayNumber < 1 {
			panic(&MalformedPatternError{Kind: v.Kind(), Detail: "bank_day_number must be positive"})
		}
		return g.monthGridCandidates(p.Start, normInterval(v.Interval), lo, hi, func(month Date) (Date, bool) {
			return NthBankDay(g.Calendar, month, v.BankDayNumber, v.FromEnd)
		})

	case Yearly:
		return g.yearGridCandidates(p.Start, v.Month, normInterval(v.Interval), lo, hi, func(month Date) (Date, bool) {
			switch {
			case v.Relative != nil:
				if !validPosition(v.Relative.Position) {
					panic(&MalformedPatternError{Kind: v.Kind(), Detail: fmt.Sprintf("relative position %d", v.Relative.Position)})
				}
				return RelativeWeekday(month, v.Relative.Weekday, v.Relative.Position)
			case v.DayOfMonth >= 1 && v.DayOfMonth <= 31:
				return ClampedDay(month.Year(), month.Month(), v.DayOfMonth), true
			default:
				panic(&MalformedPatternError{Kind: v.Kind(), Detail: "needs day_of_month or relative weekday"})
			}
		})

	case YearlyBankDay:
		if v.BankDayNumber < 1 {
			panic(&MalformedPatternError{Kind: v.Kind(), Detail: "bank_day_number must be positive"})
		}
		return g.yearGridCandidates(p.Start, v.Month, normInterval(v.Interval), lo, hi, func(month Date) (Date, bool) {
			return NthBankDay(g.Calendar, month, v.BankDayNumber, v.FromEnd)
		})

	default:
		panic(&MalformedPatternError{Kind: p.Recurrence.Kind(), Detail: "unknown variant"})
	}
}

// dailyCandidates walks first + k*stepDays for k >= 0 within [lo, hi],
// jumping straight to the first candidate at or after lo.
func (g *Generator) dailyCandidates(first Date, stepDays int, lo, hi Date) []Date {
	cur := first
	if cur.Before(lo) {
		gap := DaysBetween(cur, lo)
		cur = cur.AddDays((gap / stepDays) * stepDays)
		if cur.Before(lo) {
			cur = cur.AddDays(stepDays)
		}
	}

	var out []Date
	for cur.BeforeOrEqual(hi) {
		out = append(out, cur)
		cur = cur.AddDays(stepDays)
	}
	return out
}

// monthGridCandidates visits anchor-month + k*intervalMonths and resolves a
// day within each month via resolve. Months where resolve fails (a fifth
// Friday that does not exist, a bank-day count the month cannot satisfy)
// are skipped; the grid still advances.
func (g *Generator) monthGridCandidates(start Date, intervalMonths int, lo, hi Date, resolve func(month Date) (Date, bool)) []Date {
	var out []Date
	anchor := start.MonthStart()
	k0 := 0
	if gap := MonthsBetween(anchor, lo); gap > 0 {
		k0 = (gap - 1) / intervalMonths
	}
	for k := k0; ; k++ {
		month := anchor.AddMonths(k * intervalMonths)
		if month.After(hi) {
			break
		}
		if month.MonthEnd().Before(lo) {
			continue
		}
		d, ok := resolve(month)
		if !ok {
			continue
		}
		if d.AfterOrEqual(lo) && d.BeforeOrEqual(hi) {
			out = append(out, d)
		}
	}
	return out
}

// yearGridCandidates is the yearly analogue: the anchored month of
// start-year + k*intervalYears.
func (g *Generator) yearGridCandidates(start Date, month time.Month, intervalYears int, lo, hi Date, resolve func(month Date) (Date, bool)) []Date {
	var out []Date
	k0 := 0
	if gap := lo.Year() - start.Year() - 1; gap > 0 {
		k0 = gap / intervalYears
	}
	for k := k0; ; k++ {
		m := StartOfMonth(start.Year()+k*intervalYears, month)
		if m.After(hi) {
			break
		}
		if m.MonthEnd().Before(lo) {
			continue
		}
		d, ok := resolve(m)
		if !ok {
			continue
		}
		if d.AfterOrEqual(lo) && d.BeforeOrEqual(hi) {
			out = append(out, d)
		}
	}
	return out
}

func validPosition(p RelativePosition) bool {
	return p == Last || (p >= First && p <= Fourth)
}
