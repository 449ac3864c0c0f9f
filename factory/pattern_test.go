package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbudget/forecast-engine/factory"
	"github.com/openbudget/forecast-engine/forecast"
	"github.com/openbudget/forecast-engine/recurrence"
)

func TestParsePattern_MonthlyFixedWithAdjustment(t *testing.T) {
	pj := factory.PatternJSON{
		Amount:       120000,
		StartDate:    "2024-01-01",
		EndDate:      "2024-12-31",
		ContainerIDs: []string{"checking"},
		Recurrence: factory.RecurrenceJSON{
			Type:          "monthly_fixed",
			DayOfMonth:    31,
			BankDayAdjust: "previous",
			KeepInMonth:   true,
		},
	}

	p, err := factory.ParsePattern(pj, false)
	require.NoError(t, err)

	assert.Equal(t, recurrence.Amount(120000), p.Amount)
	assert.Equal(t, "2024-01-01", p.Start.String())
	require.NotNil(t, p.End)
	assert.Equal(t, "2024-12-31", p.End.String())

	mf, ok := p.Recurrence.(recurrence.MonthlyFixed)
	require.True(t, ok)
	assert.Equal(t, 31, mf.DayOfMonth)
	assert.Equal(t, recurrence.AdjustPrevious, mf.Adjust.Direction)
	assert.True(t, mf.Adjust.KeepInMonth)
}

func TestParsePattern_WeekdayZeroIsSunday(t *testing.T) {
	sunday := 0
	pj := factory.PatternJSON{
		Amount:       100,
		StartDate:    "2024-01-01",
		ContainerIDs: []string{"a"},
		Recurrence:   factory.RecurrenceJSON{Type: "weekly", Weekday: &sunday},
	}

	p, err := factory.ParsePattern(pj, false)
	require.NoError(t, err)

	wk, ok := p.Recurrence.(recurrence.Weekly)
	require.True(t, ok)
	assert.Equal(t, time.Sunday, wk.Weekday)
}

func TestParsePattern_TransferSkipsContainerRequirement(t *testing.T) {
	pj := factory.PatternJSON{
		Amount:     50000,
		StartDate:  "2024-01-01",
		Recurrence: factory.RecurrenceJSON{Type: "monthly_fixed", DayOfMonth: 25},
	}

	_, err := factory.ParsePattern(pj, false)
	assert.ErrorIs(t, err, forecast.ErrInvalidPattern)

	_, err = factory.ParsePattern(pj, true)
	assert.NoError(t, err)
}

func TestParsePattern_Failures(t *testing.T) {
	tests := []struct {
		name string
		pj   factory.PatternJSON
	}{
		{
			name: "unknown recurrence type",
			pj: factory.PatternJSON{
				Amount: 100, StartDate: "2024-01-01", ContainerIDs: []string{"a"},
				Recurrence: factory.RecurrenceJSON{Type: "fortnightly"},
			},
		},
		{
			name: "bad start date",
			pj: factory.PatternJSON{
				Amount: 100, StartDate: "01/01/2024", ContainerIDs: []string{"a"},
				Recurrence: factory.RecurrenceJSON{Type: "once"},
			},
		},
		{
			name: "weekly without weekday",
			pj: factory.PatternJSON{
				Amount: 100, StartDate: "2024-01-01", ContainerIDs: []string{"a"},
				Recurrence: factory.RecurrenceJSON{Type: "weekly"},
			},
		},
		{
			name: "day of month out of range",
			pj: factory.PatternJSON{
				Amount: 100, StartDate: "2024-01-01", ContainerIDs: []string{"a"},
				Recurrence: factory.RecurrenceJSON{Type: "monthly_fixed", DayOfMonth: 40},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParsePattern(tt.pj, false)
			assert.Error(t, err)
		})
	}
}

func TestEncodeDecode_StoredFormRoundTrips(t *testing.T) {
	patterns := []recurrence.AmountPattern{
		{
			Amount:     45000,
			Start:      recurrence.NewDate(2024, time.March, 15),
			Recurrence: recurrence.PeriodMonthly{Interval: 2},
			Containers: []recurrence.ContainerID{"groceries"},
		},
		{
			Amount: 100000,
			Start:  recurrence.NewDate(2024, time.January, 1),
			Recurrence: recurrence.MonthlyRelative{
				Weekday:  time.Friday,
				Position: recurrence.Last,
				Adjust:   recurrence.Adjustment{Direction: recurrence.AdjustNext, NoDedup: true},
			},
			Containers: []recurrence.ContainerID{"main"},
		},
		{
			Amount:     9900,
			Start:      recurrence.NewDate(2024, time.January, 1),
			Recurrence: recurrence.YearlyBankDay{Month: time.January, BankDayNumber: 1},
			Containers: []recurrence.ContainerID{"main"},
		},
		{
			Amount:     5000,
			Start:      recurrence.NewDate(2023, time.June, 1),
			Recurrence: recurrence.PeriodYearly{Months: []time.Month{time.June, time.December}},
			Containers: []recurrence.ContainerID{"gifts"},
		},
	}

	for _, p := range patterns {
		encoded, err := factory.EncodePatternString(p)
		require.NoError(t, err)

		decoded, err := factory.ParsePatternString(encoded, false)
		require.NoError(t, err)

		assert.Equal(t, p, decoded, "pattern kind %s", p.Recurrence.Kind())
	}
}
