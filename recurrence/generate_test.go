/*
generate_test.go - Specification Tests for Occurrence Generation

PURPOSE:
  These tests serve as EXECUTABLE SPECIFICATIONS of the generator. Each
  test documents one observable behavior and validates that the
  implementation conforms to it.

ORGANIZATION:
  Tests are grouped by behavior area:
  1. Date Variants - each recurrence variant lands on the right days
  2. Bank-Day Adjustment - direction, keep_in_month, window interplay
  3. Dedup - same-day merge and the no_dedup escape hatch
  4. Period Variants - month-granular expansion
  5. Guarantees - determinism, ordering, bounds, failure modes

READING THESE TESTS:
  Each test has:
  - A descriptive name that states the behavior
  - GIVEN/WHEN/THEN comments explaining the scenario
  - Clear assertions with explanatory messages

These tests are intentionally verbose for documentation purposes.
*/
package recurrence_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/openbudget/forecast-engine/bankday"
	"github.com/openbudget/forecast-engine/recurrence"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func d(year int, month time.Month, day int) recurrence.Date {
	return recurrence.NewDate(year, month, day)
}

func window(t *testing.T, from, to recurrence.Date) recurrence.Window {
	t.Helper()
	w, err := recurrence.NewWindow(from, to)
	if err != nil {
		t.Fatalf("window %s..%s: %v", from, to, err)
	}
	return w
}

func pattern(amount recurrence.Amount, start recurrence.Date, rec recurrence.RecurrencePattern) recurrence.AmountPattern {
	return recurrence.AmountPattern{Amount: amount, Start: start, Recurrence: rec}
}

func weekendGen() *recurrence.Generator {
	return recurrence.NewGenerator(bankday.Weekend{})
}

func generate(t *testing.T, g *recurrence.Generator, p recurrence.AmountPattern, w recurrence.Window) []recurrence.Occurrence {
	t.Helper()
	occs, err := g.Generate(0, p, w)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return occs
}

func dates(occs []recurrence.Occurrence) []string {
	out := make([]string, len(occs))
	for i, o := range occs {
		out[i] = o.Date.String()
	}
	return out
}

func assertDates(t *testing.T, occs []recurrence.Occurrence, want ...string) {
	t.Helper()
	got := dates(occs)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("occurrence dates = %v, want %v", got, want)
	}
}

// =============================================================================
// 1. DATE VARIANTS
// =============================================================================

func TestOnce_SingleOccurrenceOnStartDate(t *testing.T) {
	// GIVEN a once pattern on a bank day
	p := pattern(5000, d(2024, time.June, 14), recurrence.Once{})

	// WHEN generated over a window containing the start date
	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	// THEN exactly one occurrence appears, on the start date
	assertDates(t, occs, "2024-06-14")
	if occs[0].Amount != 5000 {
		t.Errorf("amount = %d, want 5000", occs[0].Amount)
	}
	if occs[0].Kind != recurrence.KindDate {
		t.Errorf("kind = %s, want date", occs[0].Kind)
	}
}

func TestOnce_OutsideWindowYieldsNothing(t *testing.T) {
	p := pattern(5000, d(2024, time.June, 14), recurrence.Once{})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.July, 1), d(2024, time.July, 31)))

	if len(occs) != 0 {
		t.Errorf("expected no occurrences, got %v", dates(occs))
	}
}

func TestDaily_IntervalSkipsDays(t *testing.T) {
	// GIVEN an every-3-days pattern starting June 1
	p := pattern(100, d(2024, time.June, 1), recurrence.Daily{Interval: 3, Adjust: recurrence.Adjustment{NoDedup: true}})

	// WHEN generated over the first ten days of June
	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 10)))

	// THEN occurrences land every third day from the start
	assertDates(t, occs, "2024-06-01", "2024-06-04", "2024-06-07", "2024-06-10")
}

func TestWeekly_EverySecondWednesday(t *testing.T) {
	// GIVEN a biweekly Wednesday pattern starting on a Saturday
	p := pattern(100, d(2024, time.June, 1), recurrence.Weekly{Weekday: time.Wednesday, Interval: 2})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	// THEN the first occurrence is the first Wednesday on or after the
	// start, and subsequent ones are 14 days apart
	assertDates(t, occs, "2024-06-05", "2024-06-19")
}

func TestMonthlyFixed_Day31ClampsToShortMonths(t *testing.T) {
	// GIVEN a day-31 pattern in a non-leap year
	p := pattern(100, d(2025, time.January, 1), recurrence.MonthlyFixed{DayOfMonth: 31})

	// WHEN generated over January through March 2025
	occs := generate(t, weekendGen(), p, window(t, d(2025, time.January, 1), d(2025, time.March, 31)))

	// THEN February clamps to its last day instead of skipping
	assertDates(t, occs, "2025-01-31", "2025-02-28", "2025-03-31")
}

func TestMonthlyFixed_LeapYearScenario(t *testing.T) {
	// GIVEN a day-31 rent pattern of 1200.00 crossing February 2024
	p := pattern(120000, d(2024, time.January, 1), recurrence.MonthlyFixed{DayOfMonth: 31})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.January, 1), d(2024, time.April, 30)))

	// THEN the leap day is used in February and April clamps to 30
	assertDates(t, occs, "2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30")
	for _, o := range occs {
		if o.Amount != 120000 {
			t.Errorf("amount on %s = %d, want 120000", o.Date, o.Amount)
		}
	}
}

func TestMonthlyRelative_LastFriday(t *testing.T) {
	p := pattern(100, d(2024, time.January, 1), recurrence.MonthlyRelative{
		Weekday:  time.Friday,
		Position: recurrence.Last,
	})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.November, 1), d(2024, time.December, 31)))

	assertDates(t, occs, "2024-11-29", "2024-12-27")
}

func TestMonthlyBankDay_HolidayShiftsFirstBankDay(t *testing.T) {
	// GIVEN a first-bank-day pattern and a calendar where Monday July 1
	// 2024 is a holiday
	cal := bankday.NewTable([]bankday.Holiday{{Date: d(2024, time.July, 1), Name: "Closure"}})
	g := recurrence.NewGenerator(cal)
	p := pattern(100, d(2024, time.January, 1), recurrence.MonthlyBankDay{BankDayNumber: 1})

	occs := generate(t, g, p, window(t, d(2024, time.July, 1), d(2024, time.July, 31)))

	// THEN the occurrence lands on the first open day instead
	assertDates(t, occs, "2024-07-02")
}

func TestMonthlyBankDay_FromEndFindsLastOpenDay(t *testing.T) {
	// GIVEN June 2024, which ends on a weekend (29th Sat, 30th Sun)
	p := pattern(100, d(2024, time.January, 1), recurrence.MonthlyBankDay{BankDayNumber: 1, FromEnd: true})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	assertDates(t, occs, "2024-06-28")
}

func TestYearly_FixedDay(t *testing.T) {
	p := pattern(100, d(2023, time.January, 1), recurrence.Yearly{Month: time.June, DayOfMonth: 15})

	occs := generate(t, weekendGen(), p, window(t, d(2023, time.January, 1), d(2024, time.December, 31)))

	assertDates(t, occs, "2023-06-15", "2024-06-15")
}

func TestYearly_RelativeWeekday(t *testing.T) {
	// GIVEN a last-Monday-of-May pattern
	p := pattern(100, d(2024, time.January, 1), recurrence.Yearly{
		Month:    time.May,
		Relative: &recurrence.YearlyRelative{Weekday: time.Monday, Position: recurrence.Last},
	})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.January, 1), d(2024, time.December, 31)))

	assertDates(t, occs, "2024-05-27")
}

func TestYearlyBankDay_HolidayAware(t *testing.T) {
	// GIVEN first bank day of January with New Year observed
	cal := bankday.NewTable([]bankday.Holiday{{Date: d(2025, time.January, 1), Name: "New Year"}})
	g := recurrence.NewGenerator(cal)
	p := pattern(100, d(2024, time.January, 1), recurrence.YearlyBankDay{Month: time.January, BankDayNumber: 1})

	occs := generate(t, g, p, window(t, d(2025, time.January, 1), d(2025, time.December, 31)))

	assertDates(t, occs, "2025-01-02")
}

func TestBoundedPattern_StopsAtEnd(t *testing.T) {
	// GIVEN a monthly pattern that ends March 20
	end := d(2024, time.March, 20)
	p := pattern(100, d(2024, time.January, 1), recurrence.MonthlyFixed{DayOfMonth: 15})
	p.End = &end

	// WHEN generated over the whole year
	occs := generate(t, weekendGen(), p, window(t, d(2024, time.January, 1), d(2024, time.December, 31)))

	// THEN nothing appears after the pattern's own end date
	assertDates(t, occs, "2024-01-15", "2024-02-15", "2024-03-15")
}

// =============================================================================
// 2. BANK-DAY ADJUSTMENT
// =============================================================================

func TestAdjust_PreviousMovesSaturdayToFriday(t *testing.T) {
	// GIVEN a once pattern on Saturday June 29 2024 adjusting backward
	p := pattern(100, d(2024, time.June, 29), recurrence.Once{
		Adjust: recurrence.Adjustment{Direction: recurrence.AdjustPrevious},
	})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	assertDates(t, occs, "2024-06-28")
}

func TestAdjust_KeepInMonthReversesAtBoundary(t *testing.T) {
	// GIVEN a payout on Sunday June 30 2024 adjusting forward but pinned
	// to its month
	p := pattern(100, d(2024, time.June, 30), recurrence.Once{
		Adjust: recurrence.Adjustment{Direction: recurrence.AdjustNext, KeepInMonth: true},
	})

	// WHEN forward adjustment would land in July
	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	// THEN the walk reverses and lands on the last open day of June
	assertDates(t, occs, "2024-06-28")
}

func TestAdjust_AdjustedDateMayLeavePatternBounds(t *testing.T) {
	// GIVEN a day-15 pattern whose own end date is Saturday June 15 2024,
	// adjusting forward
	end := d(2024, time.June, 15)
	p := pattern(100, d(2024, time.June, 1), recurrence.MonthlyFixed{
		DayOfMonth: 15,
		Adjust:     recurrence.Adjustment{Direction: recurrence.AdjustNext},
	})
	p.End = &end

	// WHEN generated over a window reaching past the end date
	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	// THEN the June 15 occurrence still lands, adjusted to Monday the 17th,
	// even though that is after the pattern's end date
	assertDates(t, occs, "2024-06-17")
}

func TestAdjust_OccurrenceLeavesAndEntersMonthWindows(t *testing.T) {
	// GIVEN a day-1 pattern adjusting backward; June 1 2024 is a Saturday,
	// so its occurrence belongs to May after adjustment
	g := weekendGen()
	p := pattern(100, d(2024, time.January, 1), recurrence.MonthlyFixed{
		DayOfMonth: 1,
		Adjust:     recurrence.Adjustment{Direction: recurrence.AdjustPrevious},
	})

	// WHEN each month window is generated independently
	may := generate(t, g, p, window(t, d(2024, time.May, 1), d(2024, time.May, 31)))
	june := generate(t, g, p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	// THEN the June 1 occurrence shows up exactly once, in May, and the
	// June window holds nothing of its own
	assertDates(t, may, "2024-05-01", "2024-05-31")
	if len(june) != 0 {
		t.Errorf("june window = %v, want empty", dates(june))
	}
}

func TestAdjust_UnchangedOnBankDay(t *testing.T) {
	p := pattern(100, d(2024, time.June, 14), recurrence.Once{
		Adjust: recurrence.Adjustment{Direction: recurrence.AdjustNext},
	})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))

	// Friday the 14th is already a bank day; no movement
	assertDates(t, occs, "2024-06-14")
}

// =============================================================================
// 3. DEDUP
// =============================================================================

func TestDedup_SameDayOccurrencesMergeWithSummedAmount(t *testing.T) {
	// GIVEN a daily pattern over a weekend adjusting backward: Friday,
	// Saturday and Sunday all collapse onto Friday June 28
	p := pattern(100, d(2024, time.June, 28), recurrence.Daily{
		Interval: 1,
		Adjust:   recurrence.Adjustment{Direction: recurrence.AdjustPrevious},
	})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 28), d(2024, time.June, 30)))

	// THEN one merged occurrence carries the summed amount
	assertDates(t, occs, "2024-06-28")
	if occs[0].Amount != 300 {
		t.Errorf("merged amount = %d, want 300", occs[0].Amount)
	}
}

func TestDedup_NoDedupKeepsCollidingOccurrences(t *testing.T) {
	p := pattern(100, d(2024, time.June, 28), recurrence.Daily{
		Interval: 1,
		Adjust:   recurrence.Adjustment{Direction: recurrence.AdjustPrevious, NoDedup: true},
	})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.June, 28), d(2024, time.June, 30)))

	assertDates(t, occs, "2024-06-28", "2024-06-28", "2024-06-28")
	for _, o := range occs {
		if o.Amount != 100 {
			t.Errorf("amount = %d, want 100 (no merge)", o.Amount)
		}
	}
}

// =============================================================================
// 4. PERIOD VARIANTS
// =============================================================================

func TestPeriodMonthly_CoversStartMonthAndOnward(t *testing.T) {
	// GIVEN a monthly period pattern starting mid-March
	p := pattern(45000, d(2024, time.March, 15), recurrence.PeriodMonthly{})

	// WHEN generated over the whole year
	occs := generate(t, weekendGen(), p, window(t, d(2024, time.January, 1), d(2024, time.December, 31)))

	// THEN March through December each carry one period occurrence,
	// positioned on the first of the month
	if len(occs) != 10 {
		t.Fatalf("got %d occurrences, want 10: %v", len(occs), dates(occs))
	}
	if occs[0].Date.String() != "2024-03-01" || occs[9].Date.String() != "2024-12-01" {
		t.Errorf("range = %s..%s, want 2024-03-01..2024-12-01", occs[0].Date, occs[9].Date)
	}
	for _, o := range occs {
		if o.Kind != recurrence.KindPeriod {
			t.Errorf("kind on %s = %s, want period", o.Date, o.Kind)
		}
		if o.Date.Day() != 1 {
			t.Errorf("period occurrence on %s not positioned on the 1st", o.Date)
		}
	}
}

func TestPeriodMonthly_IntervalTwo(t *testing.T) {
	p := pattern(100, d(2024, time.January, 10), recurrence.PeriodMonthly{Interval: 2})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.March, 1), d(2024, time.August, 31)))

	assertDates(t, occs, "2024-03-01", "2024-05-01", "2024-07-01")
}

func TestPeriodOnce_SingleMonth(t *testing.T) {
	p := pattern(100, d(2024, time.June, 20), recurrence.PeriodOnce{})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.January, 1), d(2024, time.December, 31)))

	assertDates(t, occs, "2024-06-01")
}

func TestPeriodYearly_NamedMonths(t *testing.T) {
	p := pattern(100, d(2023, time.January, 1), recurrence.PeriodYearly{
		Months: []time.Month{time.December, time.June},
	})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.January, 1), d(2024, time.December, 31)))

	// Months come out in calendar order regardless of declaration order
	assertDates(t, occs, "2024-06-01", "2024-12-01")
}

func TestPeriod_NeverBankDayAdjusted(t *testing.T) {
	// GIVEN September 2024 whose first is a Sunday
	p := pattern(100, d(2024, time.January, 1), recurrence.PeriodMonthly{})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.September, 1), d(2024, time.September, 30)))

	// THEN the period occurrence stays on the 1st
	assertDates(t, occs, "2024-09-01")
}

// =============================================================================
// 5. GUARANTEES
// =============================================================================

func TestGenerate_Deterministic(t *testing.T) {
	g := weekendGen()
	p := pattern(100, d(2024, time.January, 1), recurrence.MonthlyFixed{
		DayOfMonth: 31,
		Adjust:     recurrence.Adjustment{Direction: recurrence.AdjustPrevious},
	})
	w := window(t, d(2024, time.January, 1), d(2024, time.December, 31))

	first := generate(t, g, p, w)
	second := generate(t, g, p, w)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different occurrence lists")
	}
}

func TestGenerate_SortedAscending(t *testing.T) {
	p := pattern(100, d(2024, time.January, 1), recurrence.Weekly{Weekday: time.Monday})

	occs := generate(t, weekendGen(), p, window(t, d(2024, time.January, 1), d(2024, time.June, 30)))

	for i := 1; i < len(occs); i++ {
		if occs[i].Date.Before(occs[i-1].Date) {
			t.Fatalf("occurrences out of order at %d: %s after %s", i, occs[i-1].Date, occs[i].Date)
		}
	}
}

func TestGenerate_ReversedWindowIsClientError(t *testing.T) {
	p := pattern(100, d(2024, time.January, 1), recurrence.Once{})
	w := recurrence.Window{From: d(2024, time.June, 30), To: d(2024, time.June, 1)}

	_, err := weekendGen().Generate(0, p, w)

	if err != recurrence.ErrInvalidWindow {
		t.Errorf("err = %v, want ErrInvalidWindow", err)
	}
}

func TestGenerate_MalformedVariantPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on malformed variant")
		}
		if _, ok := r.(*recurrence.MalformedPatternError); !ok {
			t.Fatalf("panic payload = %T, want *MalformedPatternError", r)
		}
	}()

	p := pattern(100, d(2024, time.January, 1), recurrence.MonthlyFixed{DayOfMonth: 32})
	_, _ = weekendGen().Generate(0, p, window(t, d(2024, time.January, 1), d(2024, time.December, 31)))
}

func TestGenerate_PatternIndexStamped(t *testing.T) {
	p := pattern(100, d(2024, time.June, 14), recurrence.Once{})

	occs, err := weekendGen().Generate(7, p, window(t, d(2024, time.June, 1), d(2024, time.June, 30)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(occs) != 1 || occs[0].PatternIndex != 7 {
		t.Errorf("pattern index = %v, want 7", occs)
	}
}
