// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// MaxVisiblePages is the number of page links shown before ellipses kick in.
const MaxVisiblePages = 5

// PageItem is one entry of a page list: a page number or an ellipsis.
type PageItem struct {
	Number     int
	IsEllipsis bool
}

func (p PageItem) String() string {
	if p.IsEllipsis {
		return "..."
	}
	return strconv.Itoa(p.Number)
}

// PageItems lists the pages to display. With at most maxVisible pages all of
// them are listed. Otherwise the first and last pages are always shown around
// a window of current-1..current+1, clamped to [2, total-1] and widened to
// three pages at the edges, with an ellipsis marking each gap.
func PageItems(current, total, maxVisible int) []PageItem {
	if total < 1 {
		return nil
	}
	if total <= maxVisible {
		items := make([]PageItem, 0, total)
		for i := 1; i <= total; i++ {
			items = append(items, PageItem{Number: i})
		}
		return items
	}

	current = ClampPage(current, total)
	start := max(2, current-1)
	end := min(total-1, current+1)
	if end-start+1 < 3 {
		if start == 2 {
			end = min(total-1, end+1)
		} else if end == total-1 {
			start = max(2, start-1)
		}
	}

	items := []PageItem{{Number: 1}}
	if start > 2 {
		items = append(items, PageItem{IsEllipsis: true})
	}
	for i := start; i <= end; i++ {
		items = append(items, PageItem{Number: i})
	}
	if end < total-1 {
		items = append(items, PageItem{IsEllipsis: true})
	}
	return append(items, PageItem{Number: total})
}

// Pagination holds pagination data for frontend templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Pages       []PaginationPage
}

// PaginationPage represents a single page link in pagination.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// ShouldShow returns true if pagination should be displayed (more than 1 page).
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// BuildPagination creates pagination links for baseURL, preserving every
// query parameter except page.
func BuildPagination(currentPage, totalPages int, baseURL string, query url.Values) Pagination {
	if totalPages < 1 {
		totalPages = 1
	}
	currentPage = ClampPage(currentPage, totalPages)

	params := make(url.Values)
	for k, v := range query {
		if k != "page" && len(v) > 0 && v[0] != "" {
			params[k] = v
		}
	}
	pageURL := func(page int) string {
		params.Set("page", strconv.Itoa(page))
		return fmt.Sprintf("%s?%s", baseURL, params.Encode())
	}

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
	if p.HasPrev {
		p.PrevURL = pageURL(currentPage - 1)
	}
	if p.HasNext {
		p.NextURL = pageURL(currentPage + 1)
	}
	for _, item := range PageItems(currentPage, totalPages, MaxVisiblePages) {
		if item.IsEllipsis {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
			continue
		}
		p.Pages = append(p.Pages, PaginationPage{
			Number:    item.Number,
			URL:       pageURL(item.Number),
			IsCurrent: item.Number == currentPage,
		})
	}
	return p
}

// CalculateTotalPages calculates the number of pages for the given total items and items per page.
func CalculateTotalPages(totalItems, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	return totalPages
}

// ClampPage ensures the page number is within the valid range [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// ParsePageParam parses the "page" query parameter from the request.
// Returns 1 if the parameter is missing, empty, or invalid.
func ParsePageParam(r *http.Request) int {
	return ParseIntParam(r, "page", 1, 1, 0)
}

// ParseIntParam parses an integer query parameter from the request.
// Returns defaultVal if the parameter is missing, empty, or invalid.
// If minVal > 0, values below minVal return defaultVal.
// If maxVal > 0, values above maxVal return defaultVal.
func ParseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(param)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if minVal > 0 && val < minVal {
		return defaultVal
	}
	if maxVal > 0 && val > maxVal {
		return defaultVal
	}
	return val
}
