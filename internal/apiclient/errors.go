// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/DiogoGraciano/instituto-site/internal/i18n"
)

// Transport failure classes. Both are retried by the client.
var (
	ErrNetwork = errors.New("network failure")
	ErrTimeout = errors.New("request timeout")
)

// HTTPError is returned for any non-2xx response from the backend.
type HTTPError struct {
	Status     int
	StatusText string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.StatusText)
}

// ServiceError wraps a failure of one service operation. Key names the
// localized resource-specific message used when the cause cannot be classified.
type ServiceError struct {
	Op  string
	Key string
	Err error
}

func (e *ServiceError) Error() string {
	return e.Op + ": " + Normalize(e.Err).String()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Kind discriminates a NormalizedError.
type Kind int

const (
	KindUnknown Kind = iota
	KindMessage
	KindFieldErrors
)

// NormalizedError is the single presentation form of every error shown to a user.
type NormalizedError struct {
	Kind Kind
	Text string
	List []string
}

// Localized renders the error for display. Field errors are joined with ", ".
func (n NormalizedError) Localized(lang string) string {
	switch n.Kind {
	case KindMessage:
		return n.Text
	case KindFieldErrors:
		return strings.Join(n.List, ", ")
	default:
		return i18n.T(lang, "error.fallback")
	}
}

func (n NormalizedError) String() string {
	return n.Localized(i18n.DefaultLanguage)
}

// Normalize maps any error to a NormalizedError. A backend error body wins
// over the error text: its message string first, then the errors list or
// object, then the error string.
func Normalize(err error) NormalizedError {
	if err == nil {
		return NormalizedError{Kind: KindUnknown}
	}

	var he *HTTPError
	if errors.As(err, &he) {
		if n, ok := fromBody(he.Body); ok {
			return n
		}
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return NormalizedError{Kind: KindMessage, Text: msg}
	}
	return NormalizedError{Kind: KindUnknown}
}

// Message is Normalize rendered in the default language.
func Message(err error) string {
	return Normalize(err).String()
}

func fromBody(body []byte) (NormalizedError, bool) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return NormalizedError{}, false
	}
	root := gjson.ParseBytes(body)

	if root.IsArray() {
		return fieldErrors(root.Array())
	}
	if !root.IsObject() {
		return NormalizedError{}, false
	}

	msg := root.Get("message")
	if msg.Type == gjson.String && strings.TrimSpace(msg.Str) != "" {
		return NormalizedError{Kind: KindMessage, Text: msg.Str}, true
	}
	if msg.IsArray() {
		if n, ok := fieldErrors(msg.Array()); ok {
			return n, true
		}
	}

	errs := root.Get("errors")
	if errs.IsArray() {
		if n, ok := fieldErrors(errs.Array()); ok {
			return n, true
		}
	}
	if errs.IsObject() {
		var flat []gjson.Result
		errs.ForEach(func(_, v gjson.Result) bool {
			if v.IsArray() {
				flat = append(flat, v.Array()...)
			} else {
				flat = append(flat, v)
			}
			return true
		})
		if n, ok := fieldErrors(flat); ok {
			return n, true
		}
	}

	if e := root.Get("error"); e.Type == gjson.String && strings.TrimSpace(e.Str) != "" {
		return NormalizedError{Kind: KindMessage, Text: e.Str}, true
	}
	return NormalizedError{}, false
}

func fieldErrors(items []gjson.Result) (NormalizedError, bool) {
	list := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch {
		case item.Type == gjson.String:
			s = item.Str
		case item.IsObject():
			s = item.Get("message").String()
			if s == "" {
				s = item.Get("error").String()
			}
		default:
			s = item.Raw
		}
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	if len(list) == 0 {
		return NormalizedError{}, false
	}
	return NormalizedError{Kind: KindFieldErrors, List: list}, true
}

var httpCodePattern = regexp.MustCompile(`HTTP (\d{3})`)

var statusKeys = map[int]string{
	400: "error.http_400",
	401: "error.http_401",
	403: "error.http_403",
	404: "error.http_404",
	409: "error.http_409",
	422: "error.http_422",
	429: "error.http_429",
	500: "error.http_500",
	502: "error.http_503",
	503: "error.http_503",
}

// StatusMessage returns the localized message for an HTTP status.
func StatusMessage(status int, lang string) string {
	if key, ok := statusKeys[status]; ok {
		return i18n.T(lang, key)
	}
	return i18n.T(lang, "error.http_generic")
}

var networkHints = []string{"failed to fetch", "networkerror", "err_network", "connection refused", "no such host", "connection reset"}

// Describe is the user-facing variant of Normalize: backend messages are
// kept, bare HTTP statuses, network failures and timeouts are translated.
func Describe(err error, lang string) string {
	if err == nil {
		return ""
	}

	var he *HTTPError
	if errors.As(err, &he) {
		if n, ok := fromBody(he.Body); ok {
			return n.Localized(lang)
		}
		return StatusMessage(he.Status, lang)
	}
	if IsTimeout(err) {
		return i18n.T(lang, "error.timeout")
	}
	if errors.Is(err, ErrNetwork) {
		return i18n.T(lang, "error.network")
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return i18n.T(lang, se.Key)
	}

	text := err.Error()
	if m := httpCodePattern.FindStringSubmatch(text); m != nil {
		code, _ := strconv.Atoi(m[1])
		return StatusMessage(code, lang)
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "aborterror") {
		return i18n.T(lang, "error.timeout")
	}
	for _, hint := range networkHints {
		if strings.Contains(lower, hint) {
			return i18n.T(lang, "error.network")
		}
	}
	return Normalize(err).Localized(lang)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == status
}
