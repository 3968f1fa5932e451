// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"net/url"
	"testing"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

func TestKindSpecsCoverEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		spec, ok := kindSpecs[k]
		if !ok {
			t.Errorf("kind %d has no spec", k)
			continue
		}
		if spec.partial == "" {
			t.Errorf("kind %d has no partial", k)
		}
		if spec.parse == nil || spec.empty == nil || spec.multipart == nil || spec.json == nil {
			t.Errorf("kind %d has an incomplete spec", k)
		}
	}
	if len(kindSpecs) != len(Kinds()) {
		t.Errorf("kindSpecs has %d entries, want %d", len(kindSpecs), len(Kinds()))
	}
}

func TestField_InputType(t *testing.T) {
	tests := []struct {
		kind FieldKind
		want string
	}{
		{KindText, "text"},
		{KindEmail, "email"},
		{KindPassword, "password"},
		{KindDate, "date"},
		{KindTextarea, ""},
	}
	for _, tt := range tests {
		if got := (Field{Kind: tt.kind}).InputType(); got != tt.want {
			t.Errorf("InputType(%d) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestField_ParseMilestones(t *testing.T) {
	f := Field{Name: "milestones", Kind: KindMilestones}
	in := Input{Values: url.Values{
		"milestones.year":  {"1998", "", "2005"},
		"milestones.event": {"Fundação", "", "Nova sede"},
	}}

	v := f.parse(in)
	if len(v.Milestones) != 3 {
		t.Fatalf("parsed %d rows, want 3", len(v.Milestones))
	}

	got := compactMilestones(v.Milestones)
	want := []model.Milestone{{Year: "1998", Event: "Fundação"}, {Year: "2005", Event: "Nova sede"}}
	if len(got) != len(want) {
		t.Fatalf("compactMilestones = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestField_ParseFile(t *testing.T) {
	f := Field{Name: "image", Kind: KindFile}

	v := f.parse(Input{Values: url.Values{"image": {"/uploads/old.png"}}})
	if v.File != nil || v.Text != "/uploads/old.png" {
		t.Errorf("without upload got %+v", v)
	}
	if !f.isEmpty(v) {
		t.Error("file field without upload should be empty")
	}

	v = f.parse(Input{Values: url.Values{}, Files: map[string]apiclient.FormFile{
		"image": {Filename: "a.png", Data: []byte("x")},
	}})
	if v.File == nil || v.File.Field != "image" {
		t.Fatalf("upload not parsed: %+v", v)
	}
}

func TestCompactList(t *testing.T) {
	got := compactList([]string{" a ", "", "   ", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("compactList = %q", got)
	}
}
