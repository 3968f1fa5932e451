// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"context"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
)

// Identifiable is a record with a backend id.
type Identifiable interface {
	GetID() string
}

// View is the alternate render of a manager table.
type View int

// Table views. Exactly one applies at a time.
const (
	ViewLoading View = iota
	ViewEmpty
	ViewTable
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewEmpty:
		return "empty"
	default:
		return "table"
	}
}

// Row is one rendered table row.
type Row struct {
	ID    string
	Cells []string
}

// Manager drives the table of one resource: its rows, loading state and the
// delete confirmation dialog.
type Manager[T Identifiable] struct {
	Title   string
	Columns []string
	Render  func(T) []string

	CanAdd  bool
	CanEdit bool

	Items   []T
	Loading bool

	PendingDelete string
	DeleteError   string
}

// NewManager returns a manager in the loading state.
func NewManager[T Identifiable](title string, columns []string, render func(T) []string) *Manager[T] {
	return &Manager[T]{
		Title:   title,
		Columns: columns,
		Render:  render,
		Loading: true,
		CanAdd:  true,
		CanEdit: true,
	}
}

// SetItems replaces the rows and leaves the loading state.
func (m *Manager[T]) SetItems(items []T) {
	m.Items = items
	m.Loading = false
}

// View returns the render that applies to the current state.
func (m *Manager[T]) View() View {
	switch {
	case m.Loading:
		return ViewLoading
	case len(m.Items) == 0:
		return ViewEmpty
	default:
		return ViewTable
	}
}

// Header returns the column label keys.
func (m *Manager[T]) Header() []string {
	return m.Columns
}

// Rows renders every item through the row renderer.
func (m *Manager[T]) Rows() []Row {
	rows := make([]Row, 0, len(m.Items))
	for _, item := range m.Items {
		rows = append(rows, Row{ID: item.GetID(), Cells: m.Render(item)})
	}
	return rows
}

// Find returns the item with id.
func (m *Manager[T]) Find(id string) (T, bool) {
	for _, item := range m.Items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// ConfirmOpen reports whether the delete confirmation dialog is shown.
func (m *Manager[T]) ConfirmOpen() bool {
	return m.PendingDelete != ""
}

// RequestDelete opens the confirmation dialog for id.
func (m *Manager[T]) RequestDelete(id string) {
	m.PendingDelete = id
	m.DeleteError = ""
}

// CancelDelete closes the confirmation dialog.
func (m *Manager[T]) CancelDelete() {
	m.PendingDelete = ""
	m.DeleteError = ""
}

// ConfirmDelete calls del once with the pending id. On failure the dialog
// stays open with a localized error and the row is kept; on success the
// dialog closes and the row is dropped.
func (m *Manager[T]) ConfirmDelete(ctx context.Context, lang string, del func(ctx context.Context, id string) error) error {
	id := m.PendingDelete
	if id == "" {
		return nil
	}
	m.DeleteError = ""

	if err := del(ctx, id); err != nil {
		m.DeleteError = apiclient.Describe(err, lang)
		return err
	}

	kept := m.Items[:0:0]
	for _, item := range m.Items {
		if item.GetID() != id {
			kept = append(kept, item)
		}
	}
	m.Items = kept
	m.PendingDelete = ""
	return nil
}
