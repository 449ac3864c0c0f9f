/*
builder.go - Validated construction of amount patterns

PURPOSE:
  The editing surface mutates a draft freely; the engine must only ever see
  structurally valid patterns. PatternBuilder is the boundary between the
  two: setters accumulate draft state, and Build() either returns a valid
  immutable AmountPattern or a ValidationError naming the offending field.
  Nothing escapes the builder half-formed, which is what lets the generator
  treat a malformed variant as a programming defect rather than user input.
*/
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/openbudget/forecast-engine/recurrence"
)

// ErrInvalidPattern is the sentinel all builder validation errors unwrap to.
var ErrInvalidPattern = errors.New("invalid amount pattern")

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid amount pattern: %s: %s", e.Field, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPattern }

// PatternBuilder accumulates a draft and emits a validated AmountPattern on
// Build. The zero value is not usable; start with NewPatternBuilder.
type PatternBuilder struct {
	amount     recurrence.Amount
	start      recurrence.Date
	end        *recurrence.Date
	rec        recurrence.RecurrencePattern
	containers []recurrence.ContainerID
	transfer   bool
}

// NewPatternBuilder starts a draft with the required amount and start date.
func NewPatternBuilder(amount recurrence.Amount, start recurrence.Date) *PatternBuilder {
	return &PatternBuilder{amount: amount, start: start}
}

// Until bounds the pattern at the given end date.
func (b *PatternBuilder) Until(end recurrence.Date) *PatternBuilder {
	b.end = &end
	return b
}

// Recurring sets the recurrence variant.
func (b *PatternBuilder) Recurring(r recurrence.RecurrencePattern) *PatternBuilder {
	b.rec = r
	return b
}

// DrawingFrom sets the container pool the pattern draws from or deposits to.
func (b *PatternBuilder) DrawingFrom(containers ...recurrence.ContainerID) *PatternBuilder {
	b.containers = containers
	return b
}

// ForTransfer marks the pattern as belonging to a transfer post, which
// carries its containers at the post level instead.
func (b *PatternBuilder) ForTransfer() *PatternBuilder {
	b.transfer = true
	return b
}

// Build validates the draft and returns the immutable pattern.
func (b *PatternBuilder) Build() (recurrence.AmountPattern, error) {
	if b.start.IsZero() {
		return recurrence.AmountPattern{}, &ValidationError{Field: "start_date", Detail: "required"}
	}
	if b.end != nil && b.end.Before(b.start) {
		return recurrence.AmountPattern{}, &ValidationError{Field: "end_date", Detail: "before start_date"}
	}
	if b.rec == nil {
		return recurrence.AmountPattern{}, &ValidationError{Field: "recurrence_pattern", Detail: "required"}
	}
	if !b.transfer && len(b.containers) == 0 {
		return recurrence.AmountPattern{}, &ValidationError{Field: "container_ids", Detail: "required for non-transfer posts"}
	}
	if err := validateRecurrence(b.rec); err != nil {
		return recurrence.AmountPattern{}, err
	}

	p := recurrence.AmountPattern{
		Amount:     b.amount,
		Start:      b.start,
		Recurrence: b.rec,
		Containers: append([]recurrence.ContainerID(nil), b.containers...),
	}
	if b.end != nil {
		end := *b.end
		p.End = &end
	}
	return p, nil
}

// validateRecurrence checks the per-variant required fields, the same gaps
// the generator would panic on.
func validateRecurrence(r recurrence.RecurrencePattern) error {
	switch v := r.(type) {
	case recurrence.Once:
		return validateAdjustment(v.Adjust)

	case recurrence.Daily:
		if err := validateInterval(v.Interval); err != nil {
			return err
		}
		return validateAdjustment(v.Adjust)

	case recurrence.Weekly:
		if err := validateWeekday(v.Weekday); err != nil {
			return err
		}
		if err := validateInterval(v.Interval); err != nil {
			return err
		}
		return validateAdjustment(v.Adjust)

	case recurrence.MonthlyFixed:
		if v.DayOfMonth < 1 || v.DayOfMonth > 31 {
			return &ValidationError{Field: "day_of_month", Detail: "must be 1-31"}
		}
		if err := validateInterval(v.Interval); err != nil {
			return err
		}
		return validateAdjustment(v.Adjust)

	case recurrence.MonthlyRelative:
		if err := validateWeekday(v.Weekday); err != nil {
			return err
		}
		if err := validatePosition(v.Position); err != nil {
			return err
		}
		if err := validateInterval(v.Interval); err != nil {
			return err
		}
		return validateAdjustment(v.Adjust)

	case recurrence.MonthlyBankDay:
		if v.BankDayNumber < 1 {
			return &ValidationError{Field: "bank_day_number", Detail: "must be positive"}
		}
		return validateInterval(v.Interval)

	case recurrence.Yearly:
		if err := validateMonth(v.Month); err != nil {
			return err
		}
		hasFixed := v.DayOfMonth != 0
		if hasFixed == (v.Relative != nil) {
			return &ValidationError{Field: "yearly", Detail: "exactly one of day_of_month or relative weekday"}
		}
		if hasFixed && (v.DayOfMonth < 1 || v.DayOfMonth > 31) {
			return &ValidationError{Field: "day_of_month", Detail: "must be 1-31"}
		}
		if v.Relative != nil {
			if err := validateWeekday(v.Relative.Weekday); err != nil {
				return err
			}
			if err := validatePosition(v.Relative.Position); err != nil {
				return err
			}
		}
		if err := validateInterval(v.Interval); err != nil {
			return err
		}
		return validateAdjustment(v.Adjust)

	case recurrence.YearlyBankDay:
		if err := validateMonth(v.Month); err != nil {
			return err
		}
		if v.BankDayNumber < 1 {
			return &ValidationError{Field: "bank_day_number", Detail: "must be positive"}
		}
		return validateInterval(v.Interval)

	case recurrence.PeriodOnce:
		return nil

	case recurrence.PeriodMonthly:
		return validateInterval(v.Interval)

	case recurrence.PeriodYearly:
		if len(v.Months) == 0 {
			return &ValidationError{Field: "months", Detail: "at least one month required"}
		}
		for _, m := range v.Months {
			if err := validateMonth(m); err != nil {
				return err
			}
		}
		return validateInterval(v.Interval)

	default:
		return &ValidationError{Field: "recurrence_pattern", Detail: "unknown variant"}
	}
}

func validateInterval(n int) error {
	// 0 means "default to 1"; only negatives are rejected.
	if n < 0 {
		return &ValidationError{Field: "interval", Detail: "must not be negative"}
	}
	return nil
}

func validateWeekday(w time.Weekday) error {
	if w < time.Sunday || w > time.Saturday {
		return &ValidationError{Field: "weekday", Detail: "must be 0-6"}
	}
	return nil
}

func validateMonth(m time.Month) error {
	if m < time.January || m > time.December {
		return &ValidationError{Field: "month", Detail: "must be 1-12"}
	}
	return nil
}

func validatePosition(p recurrence.RelativePosition) error {
	switch p {
	case recurrence.First, recurrence.Second, recurrence.Third, recurrence.Fourth, recurrence.Last:
		return nil
	default:
		return &ValidationError{Field: "relative_position", Detail: "must be 1-4 or last"}
	}
}

func validateAdjustment(a recurrence.Adjustment) error {
	switch a.Direction {
	case "", recurrence.AdjustNone, recurrence.AdjustNext, recurrence.AdjustPrevious:
		return nil
	default:
		return &ValidationError{Field: "bank_day_adjustment", Detail: "must be none, next or previous"}
	}
}
