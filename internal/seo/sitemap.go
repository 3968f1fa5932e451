// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds robots.txt and the XML sitemap of the public site.
package seo

import (
	"encoding/xml"
	"net/url"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the site.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapPost is a blog article to list.
type SitemapPost struct {
	Slug      string
	UpdatedAt time.Time
}

// SitemapBuilder builds sitemap XML for the site pages.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
	}
}

// AddHomepage adds the homepage to the sitemap.
func (b *SitemapBuilder) AddHomepage() {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddPage adds a fixed page such as /historia.
func (b *SitemapBuilder) AddPage(path string, freq ChangeFreq, priority string) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + path,
		ChangeFreq: freq,
		Priority:   priority,
	})
}

// AddPost adds a blog article.
func (b *SitemapBuilder) AddPost(post SitemapPost) {
	if post.Slug == "" {
		return
	}
	u := SitemapURL{
		Loc:        b.siteURL + "/blog/" + url.PathEscape(post.Slug),
		ChangeFreq: ChangeFreqMonthly,
		Priority:   "0.6",
	}
	if !post.UpdatedAt.IsZero() {
		u.LastMod = post.UpdatedAt.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// AddCategory adds the filtered blog listing of a category.
func (b *SitemapBuilder) AddCategory(name string) {
	if name == "" {
		return
	}
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/blog?" + url.Values{"categoria": {name}}.Encode(),
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.4",
	})
}

// Len returns the number of URLs added so far.
func (b *SitemapBuilder) Len() int {
	return len(b.urls)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}
