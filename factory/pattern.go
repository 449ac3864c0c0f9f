/*
Package factory converts the JSON wire shape of amount patterns to and from
the engine's variant types.

PURPOSE:
  Patterns cross the API boundary in one tagged JSON shape, whether they are
  persisted rows or unsaved drafts in a preview request - the editor never
  speaks a different dialect than storage. The factory decodes that shape
  into the sealed RecurrencePattern union (via the validating builder, so
  nothing malformed gets through) and encodes it back for responses and
  storage.

JSON SCHEMA:
  {
    "amount": 120000,
    "start_date": "2024-01-01",
    "end_date": "2024-12-31",
    "container_ids": ["checking"],
    "recurrence": {
      "type": "monthly_fixed",
      "day_of_month": 31,
      "interval": 1,
      "bank_day_adjustment": "previous",
      "keep_in_month": true
    }
  }

  Variant-specific fields: weekday (0=Sunday) and relative_position (1-4,
  -1=last) for the relative variants, bank_day_number/from_end for the
  bank-day variants, month/months for the yearly and period variants.

SEE ALSO:
  - recurrence/pattern.go: the variant set
  - forecast/builder.go:   the validation the factory delegates to
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openbudget/forecast-engine/forecast"
	"github.com/openbudget/forecast-engine/recurrence"
)

// PatternJSON is the wire and storage representation of an AmountPattern.
type PatternJSON struct {
	Amount       int64          `json:"amount"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date,omitempty"`
	ContainerIDs []string       `json:"container_ids,omitempty"`
	Recurrence   RecurrenceJSON `json:"recurrence"`
}

// RecurrenceJSON is the tagged union of recurrence variants on the wire.
// Only the fields meaningful to the named type are read.
type RecurrenceJSON struct {
	Type string `json:"type"`

	Interval         int    `json:"interval,omitempty"`
	Weekday          *int   `json:"weekday,omitempty"`           // 0=Sunday
	DayOfMonth       int    `json:"day_of_month,omitempty"`      // 1-31
	RelativePosition int    `json:"relative_position,omitempty"` // 1-4, -1=last
	BankDayNumber    int    `json:"bank_day_number,omitempty"`
	FromEnd          bool   `json:"from_end,omitempty"`
	Month            int    `json:"month,omitempty"`  // 1-12
	Months           []int  `json:"months,omitempty"` // for period_yearly
	BankDayAdjust    string `json:"bank_day_adjustment,omitempty"`
	KeepInMonth      bool   `json:"keep_in_month,omitempty"`
	NoDedup          bool   `json:"no_dedup,omitempty"`
}

// ParsePattern decodes and validates a wire pattern. forTransfer relaxes the
// container requirement, since transfer posts carry endpoints at post level.
func ParsePattern(pj PatternJSON, forTransfer bool) (recurrence.AmountPattern, error) {
	start, err := recurrence.ParseDate(pj.StartDate)
	if err != nil {
		return recurrence.AmountPattern{}, fmt.Errorf("invalid start_date %q: %w", pj.StartDate, err)
	}

	rec, err := parseRecurrence(pj.Recurrence)
	if err != nil {
		return recurrence.AmountPattern{}, err
	}

	b := forecast.NewPatternBuilder(recurrence.Amount(pj.Amount), start).Recurring(rec)
	if pj.EndDate != "" {
		end, err := recurrence.ParseDate(pj.EndDate)
		if err != nil {
			return recurrence.AmountPattern{}, fmt.Errorf("invalid end_date %q: %w", pj.EndDate, err)
		}
		b.Until(end)
	}
	if forTransfer {
		b.ForTransfer()
	} else {
		containers := make([]recurrence.ContainerID, len(pj.ContainerIDs))
		for i, c := range pj.ContainerIDs {
			containers[i] = recurrence.ContainerID(c)
		}
		b.DrawingFrom(containers...)
	}
	return b.Build()
}

// ParsePatternString decodes a stored JSON document.
func ParsePatternString(data string, forTransfer bool) (recurrence.AmountPattern, error) {
	var pj PatternJSON
	if err := json.Unmarshal([]byte(data), &pj); err != nil {
		return recurrence.AmountPattern{}, fmt.Errorf("failed to parse pattern JSON: %w", err)
	}
	return ParsePattern(pj, forTransfer)
}

func parseRecurrence(rj RecurrenceJSON) (recurrence.RecurrencePattern, error) {
	adjust := recurrence.Adjustment{
		Direction:   parseAdjustDirection(rj.BankDayAdjust),
		KeepInMonth: rj.KeepInMonth,
		NoDedup:     rj.NoDedup,
	}

	switch recurrence.PatternKind(rj.Type) {
	case recurrence.KindOnce:
		return recurrence.Once{Adjust: adjust}, nil

	case recurrence.KindDaily:
		return recurrence.Daily{Interval: rj.Interval, Adjust: adjust}, nil

	case recurrence.KindWeekly:
		if rj.Weekday == nil {
			return nil, fmt.Errorf("weekly recurrence requires weekday")
		}
		return recurrence.Weekly{
			Weekday:  time.Weekday(*rj.Weekday),
			Interval: rj.Interval,
			Adjust:   adjust,
		}, nil

	case recurrence.KindMonthlyFixed:
		return recurrence.MonthlyFixed{
			DayOfMonth: rj.DayOfMonth,
			Interval:   rj.Interval,
			Adjust:     adjust,
		}, nil

	case recurrence.KindMonthlyRelative:
		if rj.Weekday == nil {
			return nil, fmt.Errorf("monthly_relative recurrence requires weekday")
		}
		return recurrence.MonthlyRelative{
			Weekday:  time.Weekday(*rj.Weekday),
			Position: recurrence.RelativePosition(rj.RelativePosition),
			Interval: rj.Interval,
			Adjust:   adjust,
		}, nil

	case recurrence.KindMonthlyBankDay:
		return recurrence.MonthlyBankDay{
			BankDayNumber: rj.BankDayNumber,
			FromEnd:       rj.FromEnd,
			Interval:      rj.Interval,
		}, nil

	case recurrence.KindYearly:
		y := recurrence.Yearly{
			Month:      time.Month(rj.Month),
			DayOfMonth: rj.DayOfMonth,
			Interval:   rj.Interval,
			Adjust:     adjust,
		}
		if rj.Weekday != nil {
			y.Relative = &recurrence.YearlyRelative{
				Weekday:  time.Weekday(*rj.Weekday),
				Position: recurrence.RelativePosition(rj.RelativePosition),
			}
		}
		return y, nil

	case recurrence.KindYearlyBankDay:
		return recurrence.YearlyBankDay{
			Month:         time.Month(rj.Month),
			BankDayNumber: rj.BankDayNumber,
			FromEnd:       rj.FromEnd,
			Interval:      rj.Interval,
		}, nil

	case recurrence.KindPeriodOnce:
		return recurrence.PeriodOnce{}, nil

	case recurrence.KindPeriodMonthly:
		return recurrence.PeriodMonthly{Interval: rj.Interval}, nil

	case recurrence.KindPeriodYearly:
		months := make([]time.Month, len(rj.Months))
		for i, m := range rj.Months {
			months[i] = time.Month(m)
		}
		return recurrence.PeriodYearly{Months: months, Interval: rj.Interval}, nil

	default:
		return nil, fmt.Errorf("unknown recurrence type %q", rj.Type)
	}
}

func parseAdjustDirection(s string) recurrence.AdjustDirection {
	switch s {
	case "next":
		return recurrence.AdjustNext
	case "previous":
		return recurrence.AdjustPrevious
	default:
		return recurrence.AdjustNone
	}
}

// =============================================================================
// ENCODING
// =============================================================================

// ToJSON encodes a pattern back into its wire shape.
func ToJSON(p recurrence.AmountPattern) PatternJSON {
	pj := PatternJSON{
		Amount:     int64(p.Amount),
		StartDate:  p.Start.String(),
		Recurrence: encodeRecurrence(p.Recurrence),
	}
	if p.End != nil {
		pj.EndDate = p.End.String()
	}
	for _, c := range p.Containers {
		pj.ContainerIDs = append(pj.ContainerIDs, string(c))
	}
	return pj
}

// EncodePatternString encodes a pattern for storage.
func EncodePatternString(p recurrence.AmountPattern) (string, error) {
	data, err := json.Marshal(ToJSON(p))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeRecurrence(r recurrence.RecurrencePattern) RecurrenceJSON {
	rj := RecurrenceJSON{Type: string(r.Kind())}

	setAdjust := func(a recurrence.Adjustment) {
		if a.IsZero() && !a.KeepInMonth && !a.NoDedup {
			return
		}
		rj.BankDayAdjust = string(a.Direction)
		rj.KeepInMonth = a.KeepInMonth
		rj.NoDedup = a.NoDedup
	}

	switch v := r.(type) {
	case recurrence.Once:
		setAdjust(v.Adjust)
	case recurrence.Daily:
		rj.Interval = v.Interval
		setAdjust(v.Adjust)
	case recurrence.Weekly:
		wd := int(v.Weekday)
		rj.Weekday = &wd
		rj.Interval = v.Interval
		setAdjust(v.Adjust)
	case recurrence.MonthlyFixed:
		rj.DayOfMonth = v.DayOfMonth
		rj.Interval = v.Interval
		setAdjust(v.Adjust)
	case recurrence.MonthlyRelative:
		wd := int(v.Weekday)
		rj.Weekday = &wd
		rj.RelativePosition = int(v.Position)
		rj.Interval = v.Interval
		setAdjust(v.Adjust)
	case recurrence.MonthlyBankDay:
		rj.BankDayNumber = v.BankDayNumber
		rj.FromEnd = v.FromEnd
		rj.Interval = v.Interval
	case recurrence.Yearly:
		rj.Month = int(v.Month)
		rj.Interval = v.Interval
		if v.Relative != nil {
			wd := int(v.Relative.Weekday)
			rj.Weekday = &wd
			rj.RelativePosition = int(v.Relative.Position)
		} else {
			rj.DayOfMonth = v.DayOfMonth
		}
		setAdjust(v.Adjust)
	case recurrence.YearlyBankDay:
		rj.Month = int(v.Month)
		rj.BankDayNumber = v.BankDayNumber
		rj.FromEnd = v.FromEnd
		rj.Interval = v.Interval
	case recurrence.PeriodOnce:
	case recurrence.PeriodMonthly:
		rj.Interval = v.Interval
	case recurrence.PeriodYearly:
		for _, m := range v.Months {
			rj.Months = append(rj.Months, int(m))
		}
		rj.Interval = v.Interval
	}
	return rj
}
