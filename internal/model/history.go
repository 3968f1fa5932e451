// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"slices"
	"strconv"
	"strings"
)

// milestoneYear returns the numeric year of a milestone.
// Non-numeric years report ok=false.
func milestoneYear(m Milestone) (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(m.Year))
	if err != nil {
		return 0, false
	}
	return y, true
}

// SortMilestones orders milestones chronologically by numeric year.
// Entries whose year is not a number keep their relative order after the dated ones.
func SortMilestones(ms []Milestone) {
	slices.SortStableFunc(ms, func(a, b Milestone) int {
		ya, oka := milestoneYear(a)
		yb, okb := milestoneYear(b)
		switch {
		case oka && okb:
			return ya - yb
		case oka:
			return -1
		case okb:
			return 1
		default:
			return 0
		}
	})
}

// MergeHistory folds several history records into one: the first record
// provides title and foundation year, content and milestones are concatenated
// in record order and the milestones are then sorted.
func MergeHistory(records []History) History {
	var merged History
	for i, h := range records {
		if i == 0 {
			merged.ID = h.ID
			merged.Title = h.Title
		}
		if merged.FoundationYear == "" {
			merged.FoundationYear = h.FoundationYear
		}
		merged.Content = append(merged.Content, h.Content...)
		merged.Milestones = append(merged.Milestones, h.Milestones...)
	}
	SortMilestones(merged.Milestones)
	return merged
}
