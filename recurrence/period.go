/*
period.go - Whole-period occurrence aggregation

PURPOSE:
  Expands the period_* variants, which do not name a day at all: they state
  "this amount applies to month P". Period occurrences are positioned at the
  first day of their month for sorting and display, and are never bank-day
  adjusted - shifting a whole-period amount onto a bank day is meaningless.

CLIPPING:
  Period variants clip on months, not days: a month is included when it
  intersects the pattern-and-window range. A pattern starting March 15 still
  covers March.
*/
package recurrence

import "time"

// generatePeriods expands period_once, period_monthly and period_yearly.
// clipped is the already-intersected day range; the month grid covers every
// month that range touches.
func (g *Generator) generatePeriods(patternIndex int, p AmountPattern, clipped Window) []Occurrence {
	firstMonth := clipped.From.MonthStart()
	lastMonth := clipped.To.MonthStart()

	emit := func(month Date) Occurrence {
		return Occurrence{
			PatternIndex: patternIndex,
			Date:         month,
			Amount:       p.Amount,
			Kind:         KindPeriod,
		}
	}

	switch v := p.Recurrence.(type) {
	case PeriodOnce:
		start := p.Start.MonthStart()
		if start.AfterOrEqual(firstMonth) && start.BeforeOrEqual(lastMonth) {
			return []Occurrence{emit(start)}
		}
		return nil

	case PeriodMonthly:
		interval := normInterval(v.Interval)
		var occs []Occurrence
		anchor := p.Start.MonthStart()
		k0 := 0
		if gap := MonthsBetween(anchor, firstMonth); gap > 0 {
			k0 = gap / interval
			if anchor.AddMonths(k0*interval).After(firstMonth) {
				k0 = (gap - 1) / interval
			}
		}
		for k := k0; ; k++ {
			month := anchor.AddMonths(k * interval)
			if month.After(lastMonth) {
				break
			}
			if month.Before(firstMonth) {
				continue
			}
			occs = append(occs, emit(month))
		}
		return occs

	case PeriodYearly:
		if len(v.Months) == 0 {
			panic(&MalformedPatternError{Kind: v.Kind(), Detail: "needs at least one month"})
		}
		interval := normInterval(v.Interval)
		months := sortedMonths(v.Months)
		var occs []Occurrence
		k0 := 0
		if gap := firstMonth.Year() - p.Start.Year() - 1; gap > 0 {
			k0 = gap / interval
		}
		for k := k0; ; k++ {
			year := p.Start.Year() + k*interval
			if StartOfMonth(year, time.January).After(lastMonth) {
				break
			}
			for _, m := range months {
				month := StartOfMonth(year, m)
				if month.Before(firstMonth) || month.After(lastMonth) {
					continue
				}
				occs = append(occs, emit(month))
			}
		}
		return occs

	default:
		panic(&MalformedPatternError{Kind: p.Recurrence.Kind(), Detail: "not a period variant"})
	}
}

// sortedMonths returns a deduplicated ascending copy of the month list.
func sortedMonths(in []time.Month) []time.Month {
	seen := [13]bool{}
	var out []time.Month
	for m := time.January; m <= time.December; m++ {
		for _, x := range in {
			if x == m && !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}
