// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the records exchanged with the institute backend
// (activities, projects, partners, contacts, history, blog posts and users)
// and the few pure helpers the pages need on top of them.
package model

// Activity is a recurring activity offered by the institute.
type Activity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Project is a project run by the institute.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Partner is a supporting organization.
type Partner struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Contact is a message left by a visitor through the contact form.
type Contact struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ContactInput is the payload accepted by the backend when creating a contact.
type ContactInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Milestone is one entry of the history timeline.
type Milestone struct {
	Year  string `json:"year"`
	Event string `json:"event"`
}

// History is a block of the institute history page.
type History struct {
	ID             string      `json:"id,omitempty"`
	Title          string      `json:"title"`
	FoundationYear string      `json:"foundationYear,omitempty"`
	Content        []string    `json:"content,omitempty"`
	Milestones     []Milestone `json:"milestones,omitempty"`
	CreatedAt      string      `json:"createdAt,omitempty"`
	UpdatedAt      string      `json:"updatedAt,omitempty"`
}

// BlogPost is a news or blog article. Slug is unique and used as the public lookup key.
type BlogPost struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	Image       string   `json:"image"`
	Author      string   `json:"author"`
	AuthorImage string   `json:"authorImage,omitempty"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// BlogPage is one page of blog posts as consumed by the blog views.
type BlogPage struct {
	Posts       []BlogPost `json:"posts"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}

// User is the projection of the authenticated user kept by the site.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"isActive,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// AuthResult is returned by the login and register endpoints.
type AuthResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// GetID implementations let the admin table manage any record generically.

func (a Activity) GetID() string { return a.ID }
func (p Project) GetID() string  { return p.ID }
func (p Partner) GetID() string  { return p.ID }
func (c Contact) GetID() string  { return c.ID }
func (h History) GetID() string  { return h.ID }
func (b BlogPost) GetID() string { return b.ID }
