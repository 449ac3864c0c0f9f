/*
Package forecast is the budgeting domain layer on top of the recurrence engine.

PURPOSE:
  Defines budget posts (the user-facing grouping of amount patterns), the
  category/container-pool constraint, the validating pattern builder, the
  multi-month forecast projector and the timeline preview service.

KEY CONCEPTS IN THIS FILE (types.go):
  - BudgetPost: groups one or more AmountPatterns under a category path (or
    a transfer definition) and a direction
  - Direction: income, expense or transfer
  - Accumulate: expense-only carry-forward of unused planned amounts

SEE ALSO:
  - projector.go: monthly balance projections
  - preview.go:   windowed occurrence queries for draft patterns
  - builder.go:   validated construction of AmountPatterns
*/
package forecast

import (
	"github.com/openbudget/forecast-engine/recurrence"
)

// Direction classifies how a post's occurrences move money.
type Direction string

const (
	Income   Direction = "income"
	Expense  Direction = "expense"
	Transfer Direction = "transfer"
)

// BudgetPost groups amount patterns under a category path or transfer
// definition. Patterns have no lifecycle outside their post.
type BudgetPost struct {
	ID        string
	Name      string
	Direction Direction

	// Category is a slash-separated path ("home/utilities/power").
	// Not set for transfer posts.
	Category string

	Patterns []recurrence.AmountPattern

	// Accumulate marks an expense post whose unused planned amounts roll
	// forward into the next period instead of resetting. The projector
	// honors pre-computed carry-forward amounts; the bookkeeping that
	// produces them belongs to the allocation subsystem.
	Accumulate bool

	// Transfer endpoints. Transfer posts carry explicit from/to containers
	// instead of per-pattern container sets.
	FromContainer recurrence.ContainerID
	ToContainer   recurrence.ContainerID
}

// Budget owns posts and the containers they draw from.
type Budget struct {
	ID    string
	Name  string
	Posts []BudgetPost
}
