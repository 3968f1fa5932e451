// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// ErrInvalid is returned by Submit when required fields are missing.
var ErrInvalid = errors.New("form has missing required fields")

// Mode selects how a form payload is assembled.
type Mode int

// Submission modes.
const (
	ModeMultipart Mode = iota
	ModeJSON
)

// Submitter receives the assembled payload: *apiclient.FormData in
// multipart mode, map[string]any in JSON mode.
type Submitter func(ctx context.Context, payload any) error

// Form is the state of the create/edit dialog of one resource.
type Form struct {
	Title  string
	Fields []Field
	Mode   Mode

	Open   bool
	EditID string
	Values map[string]Value
	Errors map[string]string
	Banner string
}

// NewForm returns a closed form.
func NewForm(title string, mode Mode, fields []Field) *Form {
	return &Form{
		Title:  title,
		Fields: fields,
		Mode:   mode,
		Values: make(map[string]Value),
		Errors: make(map[string]string),
	}
}

// OpenNew opens the dialog empty for a new record.
func (f *Form) OpenNew() {
	f.reset()
	f.Open = true
}

// OpenEdit opens the dialog populated with an existing record.
func (f *Form) OpenEdit(id string, values map[string]Value) {
	f.reset()
	f.Open = true
	f.EditID = id
	for k, v := range values {
		f.Values[k] = v
	}
}

// Close closes the dialog and clears its state.
func (f *Form) Close() {
	f.reset()
}

// IsEdit reports whether the dialog edits an existing record.
func (f *Form) IsEdit() bool {
	return f.EditID != ""
}

// Value returns the current value of a field.
func (f *Form) Value(name string) Value {
	return f.Values[name]
}

// DismissBanner clears the submission error banner.
func (f *Form) DismissBanner() {
	f.Banner = ""
}

func (f *Form) reset() {
	f.Open = false
	f.EditID = ""
	f.Banner = ""
	f.Values = make(map[string]Value)
	f.Errors = make(map[string]string)
}

// Load parses the submission into the form values without validating.
func (f *Form) Load(in Input) {
	if in.Values == nil {
		in.Values = make(map[string][]string)
	}
	for _, field := range f.Fields {
		f.Values[field.Name] = field.parse(in)
	}
}

// Apply handles the add/remove row actions of list fields. Actions are
// "add:<field>" and "remove:<field>:<index>". It reports whether action was
// recognized.
func (f *Form) Apply(action string) bool {
	parts := strings.Split(action, ":")
	if len(parts) < 2 {
		return false
	}
	field, ok := f.field(parts[1])
	if !ok || (field.Kind != KindArray && field.Kind != KindMilestones) {
		return false
	}
	v := f.Values[field.Name]

	switch {
	case parts[0] == "add" && len(parts) == 2:
		if field.Kind == KindArray {
			v.List = append(v.List, "")
		} else {
			v.Milestones = append(v.Milestones, model.Milestone{})
		}
	case parts[0] == "remove" && len(parts) == 3:
		i, err := strconv.Atoi(parts[2])
		if err != nil || i < 0 {
			return false
		}
		if field.Kind == KindArray && i < len(v.List) {
			v.List = append(v.List[:i:i], v.List[i+1:]...)
		} else if field.Kind == KindMilestones && i < len(v.Milestones) {
			v.Milestones = append(v.Milestones[:i:i], v.Milestones[i+1:]...)
		} else {
			return false
		}
	default:
		return false
	}
	f.Values[field.Name] = v
	return true
}

func (f *Form) field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Validate checks required fields, skipping file pickers, and records one
// localized message per missing field.
func (f *Form) Validate(lang string) bool {
	f.Errors = make(map[string]string)
	for _, field := range f.Fields {
		if !field.Required || field.Kind == KindFile {
			continue
		}
		if field.isEmpty(f.Values[field.Name]) {
			f.Errors[field.Name] = i18n.T(lang, "error.field_required", i18n.T(lang, field.Label))
		}
	}
	return len(f.Errors) == 0
}

// Payload assembles the current values for the form mode.
func (f *Form) Payload() (any, error) {
	if f.Mode == ModeJSON {
		out := make(map[string]any, len(f.Fields))
		for _, field := range f.Fields {
			if v, ok := field.jsonValue(f.Values[field.Name]); ok {
				out[field.Name] = v
			}
		}
		return out, nil
	}

	form := &apiclient.FormData{}
	for _, field := range f.Fields {
		if err := field.encodePart(f.Values[field.Name], form); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// Submit loads in, validates it and hands the payload to submit. Validation
// failures return ErrInvalid without calling submit. A failed submission
// keeps the dialog open and populated with a localized banner; a successful
// one clears and closes it.
func (f *Form) Submit(ctx context.Context, lang string, in Input, submit Submitter) error {
	f.Banner = ""
	f.Load(in)
	if !f.Validate(lang) {
		return ErrInvalid
	}

	payload, err := f.Payload()
	if err == nil {
		err = submit(ctx, payload)
	}
	if err != nil {
		f.Open = true
		f.Banner = apiclient.Describe(err, lang)
		return err
	}

	f.reset()
	return nil
}
