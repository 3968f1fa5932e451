// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util derives and checks the URL slugs of blog posts.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength caps generated slugs. Longer titles are cut at a word
// boundary.
const MaxSlugLength = 80

var (
	separators = regexp.MustCompile(`[\s_/.]+`)
	invalid    = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphens    = regexp.MustCompile(`-{2,}`)
	validSlug  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify turns a post title into a slug. Accents are dropped ("Inauguração"
// becomes "inauguracao") and other letters are transliterated.
func Slugify(title string) string {
	// Strip combining marks before transliterating so "ç" stays "c".
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ := transform.String(t, title)
	s = strings.ToLower(unidecode.Unidecode(s))

	s = separators.ReplaceAllString(s, "-")
	s = invalid.ReplaceAllString(s, "")
	s = hyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxSlugLength {
		s = s[:MaxSlugLength]
		if i := strings.LastIndexByte(s, '-'); i > 0 {
			s = s[:i]
		}
		s = strings.Trim(s, "-")
	}
	return s
}

// IsValidSlug reports whether s can be used as-is in a post URL.
func IsValidSlug(s string) bool {
	return len(s) <= MaxSlugLength && validSlug.MatchString(s)
}
