/*
Package recurrence provides the core occurrence-expansion engine.

PURPOSE:
  This package contains the pure algorithms that turn an abstract amount
  pattern ("1200 on the last bank day of every month") into the concrete
  dated monetary events it produces inside a date window. Both the forecast
  projector and the timeline preview consume this single code path, so the
  two surfaces can never disagree about future cash flow.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: signed integer in minor currency units (öre/cents)
  - AmountPattern: one payment rule (amount + start/end + recurrence variant)
  - Occurrence: one computed dated event; never persisted
  - Window: the [from, to] range a generation call is clipped to

DESIGN PRINCIPLES:
  1. Purity: every call is a function of its explicit inputs plus the
     supplied BankCalendar snapshot. No internal state, no I/O.
  2. Integer money: no floating point anywhere in this package.
  3. Exhaustive variants: RecurrencePattern is a sealed union; reading a
     field a variant does not carry is a compile error, not a runtime bug.

SEE ALSO:
  - pattern.go: the recurrence variant set
  - generate.go: the occurrence generator
  - adjust.go: bank-day adjustment
*/
package recurrence

// =============================================================================
// AMOUNT - Minor currency units
// =============================================================================

// Amount is a signed quantity of money in minor currency units.
// 120000 means 1200.00 in a two-decimal currency.
type Amount int64

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ContainerID identifies an account pool a pattern draws from or deposits to.
type ContainerID string

// =============================================================================
// AMOUNT PATTERN - One payment rule
// =============================================================================

// AmountPattern is a single payment rule belonging to a budget post.
//
// Invariants (enforced by the forecast.PatternBuilder before a pattern reaches
// this package; the generator assumes them):
//   - End, when set, is on or after Start
//   - Recurrence is one of the sealed variants in pattern.go
//   - Containers is non-empty except for transfer-direction posts
type AmountPattern struct {
	Amount     Amount
	Start      Date
	End        *Date // nil: repeats forever from Start
	Recurrence RecurrencePattern
	Containers []ContainerID
}

// Bounded reports whether the pattern has an end date.
func (p AmountPattern) Bounded() bool { return p.End != nil }

// =============================================================================
// OCCURRENCE - One computed event
// =============================================================================

// OccurrenceKind distinguishes a precise calendar day from a whole period.
type OccurrenceKind string

const (
	// KindDate is an occurrence on a precise calendar day.
	KindDate OccurrenceKind = "date"

	// KindPeriod is an occurrence representing an entire month. It is dated
	// the first day of its month for sorting and display, but semantically
	// spans the whole period and is never bank-day adjusted.
	KindPeriod OccurrenceKind = "period"
)

// Occurrence is one concrete event produced by expanding a pattern.
// Occurrences are ephemeral: recomputed on demand, never stored.
type Occurrence struct {
	PatternIndex int
	Date         Date
	Amount       Amount
	Kind         OccurrenceKind
}

// =============================================================================
// WINDOW - Generation bounds
// =============================================================================

// Window is the inclusive date range a generation call is clipped to.
type Window struct {
	From Date
	To   Date
}

// NewWindow builds a window, rejecting a reversed range.
func NewWindow(from, to Date) (Window, error) {
	if to.Before(from) {
		return Window{}, ErrInvalidWindow
	}
	return Window{From: from, To: to}, nil
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Date) bool {
	return d.AfterOrEqual(w.From) && d.BeforeOrEqual(w.To)
}

// clip intersects the window with a pattern's [Start, End] range.
// The boolean is false when the intersection is empty, which is a normal
// outcome (an unbounded pattern viewed before its start), not an error.
func (w Window) clip(p AmountPattern) (Window, bool) {
	from := w.From
	if p.Start.After(from) {
		from = p.Start
	}
	to := w.To
	if p.End != nil && p.End.Before(to) {
		to = *p.End
	}
	if to.Before(from) {
		return Window{}, false
	}
	return Window{From: from, To: to}, true
}
