package bankday_test

import (
	"testing"
	"time"

	"github.com/openbudget/forecast-engine/bankday"
	"github.com/openbudget/forecast-engine/recurrence"
)

func d(year int, month time.Month, day int) recurrence.Date {
	return recurrence.NewDate(year, month, day)
}

func TestWeekend_WeekdaysAreBankDays(t *testing.T) {
	cal := bankday.Weekend{}

	if !cal.IsBankDay(d(2024, time.June, 14)) { // Friday
		t.Error("Friday must be a bank day")
	}
	if cal.IsBankDay(d(2024, time.June, 15)) { // Saturday
		t.Error("Saturday must not be a bank day")
	}
	if cal.IsBankDay(d(2024, time.June, 16)) { // Sunday
		t.Error("Sunday must not be a bank day")
	}
}

func TestTable_HolidaysOnTopOfWeekends(t *testing.T) {
	cal := bankday.NewTable([]bankday.Holiday{
		{Date: d(2024, time.July, 4), Name: "Independence Day"},
	})

	if cal.IsBankDay(d(2024, time.July, 4)) { // Thursday, closed
		t.Error("holiday must not be a bank day")
	}
	if !cal.IsBankDay(d(2024, time.July, 5)) { // Friday, open
		t.Error("ordinary Friday must be a bank day")
	}
	if cal.IsBankDay(d(2024, time.July, 6)) { // Saturday
		t.Error("weekend must not be a bank day")
	}
}

func TestTable_NonBankDaysListsWeekendsAndHolidays(t *testing.T) {
	cal := bankday.NewTable([]bankday.Holiday{
		{Date: d(2024, time.July, 4)},
	})

	// Mon July 1 .. Sun July 7: the 4th plus the weekend
	days := cal.NonBankDays(d(2024, time.July, 1), d(2024, time.July, 7))

	want := []string{"2024-07-04", "2024-07-06", "2024-07-07"}
	if len(days) != len(want) {
		t.Fatalf("got %d non-bank days, want %d", len(days), len(want))
	}
	for i, w := range want {
		if days[i].String() != w {
			t.Errorf("days[%d] = %s, want %s", i, days[i], w)
		}
	}
}

func TestTable_SnapshotImmuneToSourceMutation(t *testing.T) {
	holidays := []bankday.Holiday{{Date: d(2024, time.July, 4)}}
	cal := bankday.NewTable(holidays)

	// Mutating the input slice after construction must not affect the table
	holidays[0] = bankday.Holiday{Date: d(2024, time.July, 5)}

	if cal.IsBankDay(d(2024, time.July, 4)) {
		t.Error("snapshot lost its holiday after source mutation")
	}
	if !cal.IsBankDay(d(2024, time.July, 5)) {
		t.Error("snapshot picked up a holiday added after construction")
	}
}
