package ingest

import (
	"fmt"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
)

// Selection is the reconciliation state between parsing a file and
// committing it: which rows go through, and under which duplicate policy.
type Selection struct {
	cases      []*domain.Case
	duplicates map[string]bool
	selected   []bool
	mode       domain.DuplicateMode
}

// NewSelection builds the post-parse reconciliation state. Every row
// starts selected, duplicates included, since duplicates are resolved by
// policy rather than excluded.
func NewSelection(cases []*domain.Case, duplicates map[string]bool) *Selection {
	selected := make([]bool, len(cases))
	for i := range selected {
		selected[i] = true
	}
	return &Selection{
		cases:      cases,
		duplicates: duplicates,
		selected:   selected,
		mode:       domain.DuplicateAppend,
	}
}

// Cases returns all parsed rows, selected or not
func (s *Selection) Cases() []*domain.Case { return s.cases }

// IsDuplicate reports whether the row at index collides with the cache
func (s *Selection) IsDuplicate(index int) bool {
	if index < 0 || index >= len(s.cases) {
		return false
	}
	return s.duplicates[s.cases[index].CodigoSC]
}

// HasDuplicates reports whether any parsed row collides with the cache
func (s *Selection) HasDuplicates() bool { return len(s.duplicates) > 0 }

// IsSelected reports whether the row at index is in the commit set
func (s *Selection) IsSelected(index int) bool {
	if index < 0 || index >= len(s.selected) {
		return false
	}
	return s.selected[index]
}

// ToggleRow flips one row in or out of the commit set
func (s *Selection) ToggleRow(index int) {
	if index < 0 || index >= len(s.selected) {
		return
	}
	s.selected[index] = !s.selected[index]
}

// ToggleAll flips between all rows selected and none selected, based on
// the current full-selection state
func (s *Selection) ToggleAll() {
	all := true
	for _, sel := range s.selected {
		if !sel {
			all = false
			break
		}
	}
	for i := range s.selected {
		s.selected[i] = !all
	}
}

// SelectedCount returns the number of rows currently in the commit set
func (s *Selection) SelectedCount() int {
	n := 0
	for _, sel := range s.selected {
		if sel {
			n++
		}
	}
	return n
}

// Mode returns the current batch-wide duplicate policy
func (s *Selection) Mode() domain.DuplicateMode { return s.mode }

// SetMode sets the batch-wide duplicate policy
func (s *Selection) SetMode(mode domain.DuplicateMode) { s.mode = mode }

// Confirm emits the selected rows in their original order plus the chosen
// policy. Confirming an empty selection is an error.
func (s *Selection) Confirm() ([]*domain.Case, domain.DuplicateMode, error) {
	var out []*domain.Case
	for i, c := range s.cases {
		if s.selected[i] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, s.mode, fmt.Errorf("no hay filas seleccionadas")
	}
	return out, s.mode, nil
}
