package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbudget/forecast-engine/bankday"
	"github.com/openbudget/forecast-engine/forecast"
	"github.com/openbudget/forecast-engine/recurrence"
)

func newPreview() *forecast.PreviewService {
	return forecast.NewPreviewService(recurrence.NewGenerator(bankday.Weekend{}))
}

func TestPreview_SortsByDateThenPatternIndex(t *testing.T) {
	svc := newPreview()

	patterns := []recurrence.AmountPattern{
		{Amount: 200, Start: date(2024, time.June, 14), Recurrence: recurrence.Once{}, Containers: []recurrence.ContainerID{"a"}},
		{Amount: 100, Start: date(2024, time.June, 3), Recurrence: recurrence.Once{}, Containers: []recurrence.ContainerID{"a"}},
		{Amount: 300, Start: date(2024, time.June, 14), Recurrence: recurrence.Once{}, Containers: []recurrence.ContainerID{"a"}},
	}

	preview, err := svc.Preview(patterns, date(2024, time.June, 1), date(2024, time.June, 30))
	require.NoError(t, err)
	require.Len(t, preview.Entries, 3)

	// June 3 first; the two June 14 entries in pattern order
	assert.Equal(t, 1, preview.Entries[0].PatternIndex)
	assert.Equal(t, 0, preview.Entries[1].PatternIndex)
	assert.Equal(t, 2, preview.Entries[2].PatternIndex)
}

func TestPreview_ReturnsNonBankDaysForShading(t *testing.T) {
	svc := newPreview()

	// 2024-06-03 (Mon) .. 2024-06-09 (Sun): one weekend
	preview, err := svc.Preview(nil, date(2024, time.June, 3), date(2024, time.June, 9))
	require.NoError(t, err)

	require.Len(t, preview.NonBankDays, 2)
	assert.Equal(t, date(2024, time.June, 8), preview.NonBankDays[0])
	assert.Equal(t, date(2024, time.June, 9), preview.NonBankDays[1])
}

func TestPreview_PeriodEntryDatedFirstOfMidMonthWindow(t *testing.T) {
	svc := newPreview()

	patterns := []recurrence.AmountPattern{
		{Amount: 45000, Start: date(2024, time.January, 1), Recurrence: recurrence.PeriodMonthly{}, Containers: []recurrence.ContainerID{"a"}},
	}

	// WHEN the window opens mid-month
	preview, err := svc.Preview(patterns, date(2024, time.June, 15), date(2024, time.July, 31))
	require.NoError(t, err)
	require.Len(t, preview.Entries, 2)

	// THEN June's entry carries the month's canonical date, before the
	// window's from
	assert.Equal(t, date(2024, time.June, 1), preview.Entries[0].Date)
	assert.Equal(t, date(2024, time.July, 1), preview.Entries[1].Date)
	assert.Equal(t, recurrence.KindPeriod, preview.Entries[0].Kind)
}

func TestPreview_ReversedRangeIsClientError(t *testing.T) {
	svc := newPreview()

	_, err := svc.Preview(nil, date(2024, time.June, 30), date(2024, time.June, 1))

	assert.ErrorIs(t, err, recurrence.ErrInvalidWindow)
}

// The preview and the projector must agree: summing a month's preview
// entries for an income pattern gives exactly that month's projected income.
func TestPreview_AgreesWithProjection(t *testing.T) {
	gen := recurrence.NewGenerator(bankday.Weekend{})
	svc := forecast.NewPreviewService(gen)
	pr := forecast.NewProjector(gen)

	pattern := recurrence.AmountPattern{
		Amount:     120000,
		Start:      date(2024, time.January, 1),
		Recurrence: recurrence.MonthlyFixed{DayOfMonth: 31, Adjust: recurrence.Adjustment{Direction: recurrence.AdjustPrevious}},
		Containers: []recurrence.ContainerID{"main"},
	}

	proj, err := pr.Project(forecast.ProjectionInput{
		Posts: []forecast.BudgetPost{{
			ID: "x", Name: "X", Direction: forecast.Income,
			Patterns: []recurrence.AmountPattern{pattern},
		}},
		StartingBalances: map[recurrence.ContainerID]recurrence.Amount{"main": 0},
		StartMonth:       date(2024, time.January, 1),
		Months:           12,
	})
	require.NoError(t, err)

	for _, m := range proj.Months {
		preview, err := svc.Preview([]recurrence.AmountPattern{pattern}, m.Month, m.Month.MonthEnd())
		require.NoError(t, err)

		var sum recurrence.Amount
		for _, e := range preview.Entries {
			sum += e.Amount
		}
		assert.Equal(t, m.ExpectedIncome, sum, "month %s", m.Month)
	}
}
