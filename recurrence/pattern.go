/*
pattern.go - The closed set of recurrence variants

PURPOSE:
  Models the recurrence shapes as a sealed tagged union: one concrete struct
  per variant, each carrying only the fields meaningful to it. The generator
  type-switches over the union; the sealed marker keeps outside packages from
  adding variants the switch does not know about.

VARIANTS:
  Once                     a single occurrence at the pattern's start date
  Daily{Interval}          every N days from the start date
  Weekly{Weekday,Interval} a weekday, every N weeks
  MonthlyFixed             day-of-month (clamped), every N months
  MonthlyRelative          1st/2nd/3rd/4th/last <weekday> of month
  MonthlyBankDay           Nth bank day of month, from start or end
  Yearly                   a month + fixed day OR relative weekday, every N years
  YearlyBankDay            Nth bank day of a specific month, every N years
  PeriodOnce               one whole-month amount at the start month
  PeriodMonthly{Interval}  whole-month amounts every N months
  PeriodYearly             whole-month amounts for selected months, every N years

ADJUSTMENT:
  Date-based variants (all but the two *BankDay ones and the Period* ones)
  carry an optional bank-day adjustment; see adjust.go.
*/
package recurrence

import "time"

// RecurrencePattern is the sealed union of recurrence variants.
// Concrete types live in this file; the generator matches exhaustively.
type RecurrencePattern interface {
	// Kind returns the stable wire/storage name of the variant.
	Kind() PatternKind

	// sealed prevents variants outside this package.
	sealed()
}

// PatternKind names a recurrence variant on the wire and in storage.
type PatternKind string

const (
	KindOnce            PatternKind = "once"
	KindDaily           PatternKind = "daily"
	KindWeekly          PatternKind = "weekly"
	KindMonthlyFixed    PatternKind = "monthly_fixed"
	KindMonthlyRelative PatternKind = "monthly_relative"
	KindMonthlyBankDay  PatternKind = "monthly_bank_day"
	KindYearly          PatternKind = "yearly"
	KindYearlyBankDay   PatternKind = "yearly_bank_day"
	KindPeriodOnce      PatternKind = "period_once"
	KindPeriodMonthly   PatternKind = "period_monthly"
	KindPeriodYearly    PatternKind = "period_yearly"
)

// =============================================================================
// ADJUSTMENT - Optional bank-day shifting for date-based variants
// =============================================================================

// AdjustDirection is the walk direction when a date is not a bank day.
type AdjustDirection string

const (
	AdjustNone     AdjustDirection = "none"
	AdjustNext     AdjustDirection = "next"
	AdjustPrevious AdjustDirection = "previous"
)

// Adjustment configures post-hoc shifting of a computed date onto a bank day.
//
// KeepInMonth reverses the walk direction instead of crossing a month
// boundary, so the adjusted date never leaves the originally targeted month.
//
// NoDedup keeps two occurrences of the same pattern that adjust onto the same
// day as separate events; the default merges them into one with summed amount.
type Adjustment struct {
	Direction   AdjustDirection
	KeepInMonth bool
	NoDedup     bool
}

// IsZero reports whether no adjustment is configured.
func (a Adjustment) IsZero() bool {
	return a.Direction == "" || a.Direction == AdjustNone
}

// =============================================================================
// RELATIVE POSITION - "second Tuesday", "last Friday"
// =============================================================================

// RelativePosition selects which occurrence of a weekday within a month.
type RelativePosition int

const (
	First  RelativePosition = 1
	Second RelativePosition = 2
	Third  RelativePosition = 3
	Fourth RelativePosition = 4
	Last   RelativePosition = -1
)

// =============================================================================
// DATE-BASED VARIANTS
// =============================================================================

// Once produces a single occurrence at the pattern's start date.
type Once struct {
	Adjust Adjustment
}

// Daily produces occurrences every Interval days from the start date.
type Daily struct {
	Interval int
	Adjust   Adjustment
}

// Weekly produces occurrences on Weekday, stepping Interval weeks from the
// first matching day on or after the start date.
type Weekly struct {
	Weekday  time.Weekday
	Interval int
	Adjust   Adjustment
}

// MonthlyFixed produces occurrences on DayOfMonth every Interval months,
// clamped to the last day of shorter months.
type MonthlyFixed struct {
	DayOfMonth int
	Interval   int
	Adjust     Adjustment
}

// MonthlyRelative produces occurrences on the Nth (or last) Weekday of the
// month, every Interval months.
type MonthlyRelative struct {
	Weekday  time.Weekday
	Position RelativePosition
	Interval int
	Adjust   Adjustment
}

// MonthlyBankDay produces occurrences on the Nth bank day of the month,
// counted from the start or, with FromEnd, from the end. The result is a bank
// day by construction, so no adjustment applies.
type MonthlyBankDay struct {
	BankDayNumber int
	FromEnd       bool
	Interval      int
}

// Yearly produces one occurrence per year in Month, stepping Interval years.
// Exactly one of DayOfMonth or Relative selects the day: a fixed (clamped)
// day-of-month, or a relative weekday position.
type Yearly struct {
	Month      time.Month
	DayOfMonth int
	Relative   *YearlyRelative
	Interval   int
	Adjust     Adjustment
}

// YearlyRelative is the relative-weekday form of a Yearly variant.
type YearlyRelative struct {
	Weekday  time.Weekday
	Position RelativePosition
}

// YearlyBankDay produces occurrences on the Nth bank day of Month, stepping
// Interval years.
type YearlyBankDay struct {
	Month         time.Month
	BankDayNumber int
	FromEnd       bool
	Interval      int
}

// =============================================================================
// PERIOD VARIANTS - Whole-month amounts, never adjusted
// =============================================================================

// PeriodOnce applies the amount to the single month containing the start date.
type PeriodOnce struct{}

// PeriodMonthly applies the amount to every Interval-th month from the start
// month, until the end month inclusive or forever.
type PeriodMonthly struct {
	Interval int
}

// PeriodYearly applies the amount to each selected month of the year,
// stepping Interval years.
type PeriodYearly struct {
	Months   []time.Month
	Interval int
}

func (Once) Kind() PatternKind            { return KindOnce }
func (Daily) Kind() PatternKind           { return KindDaily }
func (Weekly) Kind() PatternKind          { return KindWeekly }
func (MonthlyFixed) Kind() PatternKind    { return KindMonthlyFixed }
func (MonthlyRelative) Kind() PatternKind { return KindMonthlyRelative }
func (MonthlyBankDay) Kind() PatternKind  { return KindMonthlyBankDay }
func (Yearly) Kind() PatternKind          { return KindYearly }
func (YearlyBankDay) Kind() PatternKind   { return KindYearlyBankDay }
func (PeriodOnce) Kind() PatternKind      { return KindPeriodOnce }
func (PeriodMonthly) Kind() PatternKind   { return KindPeriodMonthly }
func (PeriodYearly) Kind() PatternKind    { return KindPeriodYearly }

func (Once) sealed()            {}
func (Daily) sealed()           {}
func (Weekly) sealed()          {}
func (MonthlyFixed) sealed()    {}
func (MonthlyRelative) sealed() {}
func (MonthlyBankDay) sealed()  {}
func (Yearly) sealed()          {}
func (YearlyBankDay) sealed()   {}
func (PeriodOnce) sealed()      {}
func (PeriodMonthly) sealed()   {}
func (PeriodYearly) sealed()    {}

// IsPeriodPattern reports whether the variant yields period occurrences.
func IsPeriodPattern(p RecurrencePattern) bool {
	switch p.(type) {
	case PeriodOnce, PeriodMonthly, PeriodYearly:
		return true
	default:
		return false
	}
}

// adjustmentOf returns the adjustment a date-based variant carries.
// Bank-day and period variants carry none.
func adjustmentOf(p RecurrencePattern) Adjustment {
	switch v := p.(type) {
	case Once:
		return v.Adjust
	case Daily:
		return v.Adjust
	case Weekly:
		return v.Adjust
	case MonthlyFixed:
		return v.Adjust
	case MonthlyRelative:
		return v.Adjust
	case Yearly:
		return v.Adjust
	default:
		return Adjustment{}
	}
}

// normInterval treats a missing interval as 1 so "every month" patterns can
// omit it. Anything below 1 would stall the generator's advance guarantee.
func normInterval(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
