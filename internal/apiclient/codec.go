// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Codec encodes a mutation payload into a request body.
type Codec interface {
	Encode(payload any) (body []byte, contentType string, err error)
}

// JSONCodec sends payloads as application/json.
type JSONCodec struct{}

// Encode marshals payload as JSON.
func (JSONCodec) Encode(payload any) ([]byte, string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encoding json payload: %w", err)
	}
	return b, "application/json", nil
}

// MultipartCodec sends *FormData payloads as multipart/form-data.
type MultipartCodec struct{}

// Encode writes payload, which must be a *FormData, as a multipart body.
func (MultipartCodec) Encode(payload any) ([]byte, string, error) {
	form, ok := payload.(*FormData)
	if !ok {
		return nil, "", fmt.Errorf("multipart payload must be *FormData, got %T", payload)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range form.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.Name, err)
		}
	}
	for _, f := range form.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.Filename)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("writing file part %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// FormField is a plain multipart value.
type FormField struct {
	Name  string
	Value string
}

// FormFile is an uploaded file part.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// FormData is an ordered multipart payload. Repeated names are allowed.
type FormData struct {
	Fields []FormField
	Files  []FormFile
}

// Add appends a value.
func (f *FormData) Add(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

// AddFile appends a file part.
func (f *FormData) AddFile(file FormFile) {
	f.Files = append(f.Files, file)
}

// Values returns every value recorded under name.
func (f *FormData) Values(name string) []string {
	var out []string
	for _, field := range f.Fields {
		if field.Name == name {
			out = append(out, field.Value)
		}
	}
	return out
}
