// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"html"
	"regexp"
	"slices"
	"strings"
)

// WordsPerMinute is the reading speed used to estimate reading time.
const WordsPerMinute = 200

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ReadingTime estimates the minutes needed to read an HTML body.
// It never returns less than one minute.
func ReadingTime(body string) int {
	text := html.UnescapeString(tagPattern.ReplaceAllString(body, " "))
	words := len(strings.Fields(text))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// RelatedPosts returns up to limit posts that share the category or at least
// one tag with post. The post itself is never included.
func RelatedPosts(post BlogPost, all []BlogPost, limit int) []BlogPost {
	related := make([]BlogPost, 0, limit)
	for _, p := range all {
		if len(related) >= limit {
			break
		}
		if p.ID == post.ID || (p.Slug != "" && p.Slug == post.Slug) {
			continue
		}
		if p.Category == post.Category || sharesTag(p.Tags, post.Tags) {
			related = append(related, p)
		}
	}
	return related
}

func sharesTag(a, b []string) bool {
	for _, t := range a {
		if slices.Contains(b, t) {
			return true
		}
	}
	return false
}

// Categories returns the distinct categories of posts in first-seen order.
func Categories(posts []BlogPost) []string {
	var out []string
	for _, p := range posts {
		if p.Category != "" && !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

// MatchesSearch reports whether the query (case-insensitive) appears in the
// title, the excerpt or one of the tags of the post.
func MatchesSearch(p BlogPost, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Excerpt), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
