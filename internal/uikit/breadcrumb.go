// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

// Breadcrumb represents a single breadcrumb item.
type Breadcrumb struct {
	Label  string
	URL    string
	Active bool
}

// Trail returns parents followed by an active, unlinked item labelled current.
func Trail(current string, parents ...Breadcrumb) []Breadcrumb {
	trail := make([]Breadcrumb, 0, len(parents)+1)
	for _, p := range parents {
		p.Active = false
		trail = append(trail, p)
	}
	return append(trail, Breadcrumb{Label: current, Active: true})
}
