// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package admin holds the dashboard building blocks: field descriptors, the
// form state behind the create/edit dialog and the generic entity manager that
// drives each resource table.
package admin

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// FieldKind is the closed set of input kinds a form can render.
type FieldKind int

// Field kinds.
const (
	KindText FieldKind = iota
	KindEmail
	KindPassword
	KindDate
	KindTextarea
	KindFile
	KindArray
	KindMilestones

	kindCount
)

// Kinds lists every field kind.
func Kinds() []FieldKind {
	out := make([]FieldKind, 0, kindCount)
	for k := FieldKind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Field describes one input of a form.
type Field struct {
	Name        string
	Label       string // i18n key
	Kind        FieldKind
	Required    bool
	Placeholder string
	Accept      string
}

// Value is the parsed state of one field.
type Value struct {
	Text       string
	List       []string
	Milestones []model.Milestone
	File       *apiclient.FormFile
}

// Input is the raw submission of a form: posted values and uploaded files
// keyed by field name.
type Input struct {
	Values url.Values
	Files  map[string]apiclient.FormFile
}

type kindSpec struct {
	partial   string
	inputType string
	parse     func(f Field, in Input) Value
	empty     func(v Value) bool
	multipart func(f Field, v Value, form *apiclient.FormData) error
	json      func(v Value) (any, bool)
}

var kindSpecs = map[FieldKind]kindSpec{
	KindText:     textSpec("text"),
	KindEmail:    textSpec("email"),
	KindPassword: textSpec("password"),
	KindDate:     textSpec("date"),
	KindTextarea: {
		partial:   "field_textarea",
		parse:     parseText,
		empty:     emptyText,
		multipart: encodeTextPart,
		json:      textJSON,
	},
	KindFile: {
		partial: "field_file",
		parse: func(f Field, in Input) Value {
			v := Value{Text: strings.TrimSpace(in.Values.Get(f.Name))}
			if file, ok := in.Files[f.Name]; ok && len(file.Data) > 0 {
				file.Field = f.Name
				v.File = &file
			}
			return v
		},
		empty: func(v Value) bool { return v.File == nil },
		multipart: func(f Field, v Value, form *apiclient.FormData) error {
			if v.File != nil {
				form.AddFile(*v.File)
			}
			return nil
		},
		json: func(Value) (any, bool) { return nil, false },
	},
	KindArray: {
		partial: "field_array",
		parse: func(f Field, in Input) Value {
			return Value{List: in.Values[f.Name]}
		},
		empty: func(v Value) bool { return len(compactList(v.List)) == 0 },
		multipart: func(f Field, v Value, form *apiclient.FormData) error {
			for _, item := range compactList(v.List) {
				form.Add(f.Name+"[]", item)
			}
			return nil
		},
		json: func(v Value) (any, bool) { return compactList(v.List), true },
	},
	KindMilestones: {
		partial: "field_milestones",
		parse: func(f Field, in Input) Value {
			years := in.Values[f.Name+".year"]
			events := in.Values[f.Name+".event"]
			rows := make([]model.Milestone, max(len(years), len(events)))
			for i := range rows {
				if i < len(years) {
					rows[i].Year = years[i]
				}
				if i < len(events) {
					rows[i].Event = events[i]
				}
			}
			return Value{Milestones: rows}
		},
		empty: func(v Value) bool { return len(compactMilestones(v.Milestones)) == 0 },
		multipart: func(f Field, v Value, form *apiclient.FormData) error {
			b, err := json.Marshal(compactMilestones(v.Milestones))
			if err != nil {
				return fmt.Errorf("encoding %s: %w", f.Name, err)
			}
			form.Add(f.Name, string(b))
			return nil
		},
		json: func(v Value) (any, bool) { return compactMilestones(v.Milestones), true },
	},
}

func textSpec(inputType string) kindSpec {
	return kindSpec{
		partial:   "field_input",
		inputType: inputType,
		parse:     parseText,
		empty:     emptyText,
		multipart: encodeTextPart,
		json:      textJSON,
	}
}

func parseText(f Field, in Input) Value {
	return Value{Text: in.Values.Get(f.Name)}
}

func emptyText(v Value) bool {
	return strings.TrimSpace(v.Text) == ""
}

func encodeTextPart(f Field, v Value, form *apiclient.FormData) error {
	form.Add(f.Name, v.Text)
	return nil
}

func textJSON(v Value) (any, bool) {
	return v.Text, true
}

func specFor(k FieldKind) kindSpec {
	spec, ok := kindSpecs[k]
	if !ok {
		panic(fmt.Sprintf("admin: unknown field kind %d", k))
	}
	return spec
}

// Partial is the template that renders the field.
func (f Field) Partial() string { return specFor(f.Kind).partial }

// InputType is the HTML input type of single-line kinds.
func (f Field) InputType() string { return specFor(f.Kind).inputType }

// IsFile reports whether the field is a file picker.
func (f Field) IsFile() bool { return f.Kind == KindFile }

func (f Field) parse(in Input) Value { return specFor(f.Kind).parse(f, in) }
func (f Field) isEmpty(v Value) bool { return specFor(f.Kind).empty(v) }
func (f Field) jsonValue(v Value) (any, bool) { return specFor(f.Kind).json(v) }

func (f Field) encodePart(v Value, form *apiclient.FormData) error {
	return specFor(f.Kind).multipart(f, v, form)
}

// compactList trims entries and drops blank ones.
func compactList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// compactMilestones trims rows and drops those with neither year nor event.
func compactMilestones(rows []model.Milestone) []model.Milestone {
	out := make([]model.Milestone, 0, len(rows))
	for _, m := range rows {
		m.Year = strings.TrimSpace(m.Year)
		m.Event = strings.TrimSpace(m.Event)
		if m.Year == "" && m.Event == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
