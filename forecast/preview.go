/*
preview.go - Timeline preview for draft patterns

PURPOSE:
  The thin façade the pattern editor calls while a user edits a budget post:
  expand possibly-unsaved patterns over a window and return the occurrences
  unsummed, plus the window's non-bank days for shading. It runs the exact
  generator the forecast projector runs - if the two ever diverged, the
  timeline would lie about future cash flow.
*/
package forecast

import (
	"sort"

	"github.com/openbudget/forecast-engine/recurrence"
)

// TimelineEntry is one dated event on the preview timeline.
type TimelineEntry struct {
	PatternIndex int
	Date         recurrence.Date
	Amount       recurrence.Amount
	Kind         recurrence.OccurrenceKind
}

// TimelinePreview is the preview response: entries sorted by
// (date, pattern index) and the non-bank days of the window.
type TimelinePreview struct {
	Entries     []TimelineEntry
	NonBankDays []recurrence.Date
}

// PreviewService expands draft patterns for visualization. Stateless; safe
// for concurrent use across editor sessions.
type PreviewService struct {
	gen *recurrence.Generator
}

// NewPreviewService returns a preview service over the given generator -
// the same one the projector uses.
func NewPreviewService(gen *recurrence.Generator) *PreviewService {
	return &PreviewService{gen: gen}
}

// Preview expands the patterns over [from, to]. Patterns need not be
// persisted anywhere; a mid-edit draft gets the same treatment as a stored
// pattern. Pure function of its inputs and the calendar snapshot.
//
// Period entries are dated the first of their month, so when from falls
// mid-month the first period entry's date precedes from.
func (s *PreviewService) Preview(patterns []recurrence.AmountPattern, from, to recurrence.Date) (*TimelinePreview, error) {
	window, err := recurrence.NewWindow(from, to)
	if err != nil {
		return nil, err
	}

	var entries []TimelineEntry
	for idx, p := range patterns {
		occs, err := s.gen.Generate(idx, p, window)
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			entries = append(entries, TimelineEntry{
				PatternIndex: occ.PatternIndex,
				Date:         occ.Date,
				Amount:       occ.Amount,
				Kind:         occ.Kind,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].PatternIndex < entries[j].PatternIndex
	})

	return &TimelinePreview{
		Entries:     entries,
		NonBankDays: s.gen.Calendar.NonBankDays(from, to),
	}, nil
}
