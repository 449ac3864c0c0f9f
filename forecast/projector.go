/*
projector.go - Multi-month cash-flow projection

PURPOSE:
  Aggregates the occurrences of every pattern of every budget post into
  monthly balance projections: expected income, expected expenses, running
  start/end balances, the lowest point of the horizon and the next large
  expense. All arithmetic is integer minor units.

METHOD:
  For each of the N consecutive months from the start month, every pattern
  is expanded by the shared occurrence generator clipped to exactly that
  month. The preview service expands with the same generator and windows,
  which is what guarantees sum(preview(month)) == that month's projected
  contribution.

TRANSFERS:
  Transfer posts net to zero across the budget and are excluded from the
  income/expense totals, but they do move balance between their named
  containers, which matters for the per-container breakdown.

ACCUMULATE:
  The carry-forward bookkeeping for accumulating expense posts lives in the
  allocation subsystem. The projector honors pre-computed carry-forward
  amounts by adding them to the post's expected expenses in the first
  projected month.
*/
package forecast

import (
	"github.com/openbudget/forecast-engine/recurrence"
)

// ProjectionInput is everything a projection run needs.
type ProjectionInput struct {
	Posts []BudgetPost

	// StartingBalances is the balance per container at the start month.
	StartingBalances map[recurrence.ContainerID]recurrence.Amount

	// StartMonth is any date in the first projected month.
	StartMonth recurrence.Date

	// Months is the horizon length; must be positive.
	Months int

	// LargeExpenseThreshold flags the first expense occurrence in the next
	// three months whose magnitude exceeds it. Zero disables the lookup.
	LargeExpenseThreshold recurrence.Amount

	// Carryover maps post ID to a pre-computed carry-forward amount for
	// accumulating expense posts, applied to the first projected month.
	Carryover map[string]recurrence.Amount
}

// MonthProjection is one projected month.
type MonthProjection struct {
	Month            recurrence.Date // first day of the month
	StartBalance     recurrence.Amount
	ExpectedIncome   recurrence.Amount
	ExpectedExpenses recurrence.Amount
	EndBalance       recurrence.Amount
}

// LowestPoint is the month with the minimum end balance, earliest on ties.
type LowestPoint struct {
	Month   recurrence.Date
	Balance recurrence.Amount
}

// LargeExpense is an upcoming expense occurrence above the threshold.
type LargeExpense struct {
	PostName string
	Amount   recurrence.Amount
	Date     recurrence.Date
}

// Projection is the result of a projection run.
type Projection struct {
	Months           []MonthProjection
	ContainerEnd     map[recurrence.ContainerID]recurrence.Amount
	LowestPoint      LowestPoint
	NextLargeExpense *LargeExpense
}

// Projector turns budget posts into monthly projections. It holds only the
// shared generator; every run is a pure function of its input.
type Projector struct {
	gen *recurrence.Generator
}

// NewProjector returns a projector over the given generator. The preview
// service must be built over the same generator; the two surfaces share one
// expansion code path by construction.
func NewProjector(gen *recurrence.Generator) *Projector {
	return &Projector{gen: gen}
}

// largeExpenseHorizonMonths is how far ahead the next-large-expense lookup
// scans.
const largeExpenseHorizonMonths = 3

// Project computes the monthly projections for the horizon.
func (pr *Projector) Project(input ProjectionInput) (*Projection, error) {
	if input.Months < 1 {
		return nil, recurrence.ErrInvalidWindow
	}

	balances := make(map[recurrence.ContainerID]recurrence.Amount, len(input.StartingBalances))
	for id, v := range input.StartingBalances {
		balances[id] = v
	}

	result := &Projection{Months: make([]MonthProjection, 0, input.Months)}
	month := input.StartMonth.MonthStart()

	for i := 0; i < input.Months; i++ {
		window := recurrence.Window{From: month, To: month.MonthEnd()}
		start := total(balances)

		var income, expenses recurrence.Amount
		for _, post := range input.Posts {
			in, out := pr.postMonth(post, window, balances)
			income += in
			expenses += out
			if i == 0 && post.Accumulate && post.Direction == Expense {
				expenses += input.Carryover[post.ID]
			}
		}

		end := start + income - expenses
		result.Months = append(result.Months, MonthProjection{
			Month:            month,
			StartBalance:     start,
			ExpectedIncome:   income,
			ExpectedExpenses: expenses,
			EndBalance:       end,
		})
		month = month.AddMonths(1)
	}

	result.ContainerEnd = balances
	result.LowestPoint = lowestPoint(result.Months)
	result.NextLargeExpense = pr.nextLargeExpense(input)
	return result, nil
}

// postMonth expands one post's patterns over a month window and returns its
// income and expense contributions, applying balance movement as a side
// effect on the balances map.
func (pr *Projector) postMonth(post BudgetPost, window recurrence.Window, balances map[recurrence.ContainerID]recurrence.Amount) (income, expenses recurrence.Amount) {
	for idx, pattern := range post.Patterns {
		occs, err := pr.gen.Generate(idx, pattern, window)
		if err != nil {
			// Window bounds are derived from a month; cannot be reversed.
			panic(err)
		}
		for _, occ := range occs {
			switch post.Direction {
			case Income:
				income += occ.Amount
				credit(balances, pattern.Containers, occ.Amount)
			case Expense:
				m := magnitude(occ.Amount)
				expenses += m
				credit(balances, pattern.Containers, -m)
			case Transfer:
				m := magnitude(occ.Amount)
				balances[post.FromContainer] -= m
				balances[post.ToContainer] += m
			}
		}
	}
	return income, expenses
}

// nextLargeExpense scans the three months after the start month for the
// first expense occurrence above the threshold.
func (pr *Projector) nextLargeExpense(input ProjectionInput) *LargeExpense {
	if input.LargeExpenseThreshold <= 0 {
		return nil
	}

	from := input.StartMonth.MonthStart()
	window := recurrence.Window{
		From: from,
		To:   from.AddMonths(largeExpenseHorizonMonths).AddDays(-1),
	}

	var best *LargeExpense
	for _, post := range input.Posts {
		if post.Direction != Expense {
			continue
		}
		for idx, pattern := range post.Patterns {
			occs, err := pr.gen.Generate(idx, pattern, window)
			if err != nil {
				panic(err)
			}
			for _, occ := range occs {
				m := magnitude(occ.Amount)
				if m <= input.LargeExpenseThreshold {
					continue
				}
				if best == nil || occ.Date.Before(best.Date) {
					best = &LargeExpense{PostName: post.Name, Amount: m, Date: occ.Date}
				}
				break // occurrences are date-ordered; later ones can't win
			}
		}
	}
	return best
}

// credit applies an amount to the pattern's first container. Which pool
// member actually pays is an allocation concern; for projection the first
// named container carries the movement.
func credit(balances map[recurrence.ContainerID]recurrence.Amount, containers []recurrence.ContainerID, amount recurrence.Amount) {
	if len(containers) == 0 {
		return
	}
	balances[containers[0]] += amount
}

func total(balances map[recurrence.ContainerID]recurrence.Amount) recurrence.Amount {
	var sum recurrence.Amount
	for _, v := range balances {
		sum += v
	}
	return sum
}

func magnitude(a recurrence.Amount) recurrence.Amount {
	if a < 0 {
		return -a
	}
	return a
}

func lowestPoint(months []MonthProjection) LowestPoint {
	low := LowestPoint{Month: months[0].Month, Balance: months[0].EndBalance}
	for _, m := range months[1:] {
		if m.EndBalance < low.Balance {
			low = LowestPoint{Month: m.Month, Balance: m.EndBalance}
		}
	}
	return low
}
