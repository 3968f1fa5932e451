// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit provides template helpers, pagination logic and small view
// model types shared by the public site and the dashboard templates.
package uikit

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// MonthsPt contains Portuguese month names.
var MonthsPt = []string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// dateLayouts are the layouts accepted for backend dates, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TemplateFuncs returns a template.FuncMap with pure, reusable helper functions.
//
// Callers can merge project-specific functions on top:
//
//	funcs := uikit.TemplateFuncs()
//	funcs["T"] = i18n.T
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower":    strings.ToLower,
		"upper":    strings.ToUpper,
		"join":     strings.Join,
		"truncate": Truncate,
		"contains": func(collection []string, element string) bool {
			for _, s := range collection {
				if s == element {
					return true
				}
			}
			return false
		},
		"nl2br": func(s string) template.HTML {
			escaped := template.HTMLEscapeString(s)
			return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
		},
		"initials": Initials,

		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},

		"now":            time.Now,
		"formatDate":     FormatDate,
		"formatDateTime": FormatDateTime,

		"toJSON": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return template.JS(b)
		},
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				dict[key] = values[i+1]
			}
			return dict
		},
	}
}

// Truncate shortens s to at most length runes, appending "..." when cut.
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return strings.TrimSpace(string(r[:length])) + "..."
}

// Initials returns up to two uppercase initials of a name.
func Initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		out = append(out, []rune(strings.ToUpper(part))[0])
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// ParseDate parses an ISO date or timestamp as sent by the backend.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an ISO date for lang. Unparseable input is returned unchanged.
func FormatDate(s, lang string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	if lang == "en" {
		return t.Format("January 2, 2006")
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), MonthsPt[t.Month()-1], t.Year())
}

// FormatDateTime renders an ISO timestamp with hour and minute for lang.
func FormatDateTime(s, lang string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	if lang == "en" {
		return t.Format("Jan 2, 2006 3:04 PM")
	}
	return fmt.Sprintf("%02d/%02d/%d %02d:%02d", t.Day(), t.Month(), t.Year(), t.Hour(), t.Minute())
}
