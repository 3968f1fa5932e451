// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

func activityManager(items ...model.Activity) *Manager[model.Activity] {
	m := NewManager("resource.activities", []string{"field.title"}, func(a model.Activity) []string {
		return []string{a.Title}
	})
	m.SetItems(items)
	return m
}

func TestManager_View(t *testing.T) {
	m := NewManager("t", nil, func(model.Activity) []string { return nil })
	assert.Equal(t, ViewLoading, m.View())

	m.SetItems(nil)
	assert.Equal(t, ViewEmpty, m.View())

	m.SetItems([]model.Activity{{ID: "a"}})
	assert.Equal(t, ViewTable, m.View())

	m.Loading = true
	assert.Equal(t, ViewLoading, m.View(), "loading wins over a non-empty list")
}

func TestManager_Rows(t *testing.T) {
	m := activityManager(model.Activity{ID: "1", Title: "Capoeira"}, model.Activity{ID: "2", Title: "Coral"})
	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, Row{ID: "2", Cells: []string{"Coral"}}, rows[1])
}

func TestManager_ConfirmDeleteCallsOnce(t *testing.T) {
	m := activityManager(model.Activity{ID: "x"}, model.Activity{ID: "y"})
	m.RequestDelete("x")
	require.True(t, m.ConfirmOpen())

	var calls []string
	err := m.ConfirmDelete(context.Background(), "pt", func(_ context.Context, id string) error {
		calls = append(calls, id)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, calls)
	assert.False(t, m.ConfirmOpen())
	assert.Empty(t, m.DeleteError)
	_, found := m.Find("x")
	assert.False(t, found)
	assert.Len(t, m.Items, 1)
}

func TestManager_ConfirmDeleteFailureKeepsDialog(t *testing.T) {
	m := activityManager(model.Activity{ID: "x"})
	m.RequestDelete("x")

	calls := 0
	err := m.ConfirmDelete(context.Background(), "pt", func(context.Context, string) error {
		calls++
		return &apiclient.HTTPError{Status: http.StatusInternalServerError, StatusText: "Internal Server Error"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, m.ConfirmOpen())
	assert.Equal(t, "x", m.PendingDelete)
	assert.Equal(t, "Erro interno do servidor.\nTente novamente mais tarde.", m.DeleteError)
	_, found := m.Find("x")
	assert.True(t, found, "row must be kept after a failed delete")
}

func TestManager_RetryAfterFailure(t *testing.T) {
	m := activityManager(model.Activity{ID: "x"})
	m.RequestDelete("x")

	fail := true
	del := func(context.Context, string) error {
		if fail {
			return errors.New("connection refused")
		}
		return nil
	}
	require.Error(t, m.ConfirmDelete(context.Background(), "pt", del))
	assert.NotEmpty(t, m.DeleteError)

	fail = false
	require.NoError(t, m.ConfirmDelete(context.Background(), "pt", del))
	assert.Empty(t, m.DeleteError)
	assert.Equal(t, ViewEmpty, m.View())
}

func TestManager_CancelDelete(t *testing.T) {
	m := activityManager(model.Activity{ID: "x"})
	m.RequestDelete("x")
	m.DeleteError = "falhou"
	m.CancelDelete()

	assert.False(t, m.ConfirmOpen())
	assert.Empty(t, m.DeleteError)

	err := m.ConfirmDelete(context.Background(), "pt", func(context.Context, string) error {
		t.Error("delete must not run without a pending id")
		return nil
	})
	assert.NoError(t, err)
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "loading", ViewLoading.String())
	assert.Equal(t, "empty", ViewEmpty.String())
	assert.Equal(t, "table", ViewTable.String())
}
