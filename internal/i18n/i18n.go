// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n provides the translated strings of the public site and the dashboard.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// Message represents a single translatable message.
type Message struct {
	ID          string `json:"id"`
	Translation string `json:"translation"`
}

// MessageFile represents the structure of a messages JSON file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// Catalog holds all translations for all supported languages.
type Catalog struct {
	translations map[string]map[string]string // lang -> key -> translation
	matcher      language.Matcher
	supported    []language.Tag
}

// DefaultLanguage is the language of the institute audience.
const DefaultLanguage = "pt"

// SupportedLanguages lists the languages we ship catalogs for.
var SupportedLanguages = []string{"pt", "en"}

var (
	catalog  *Catalog
	loadOnce sync.Once
	loadErr  error
)

// Init loads the embedded catalogs. Calling it is optional: lookups load the
// catalogs on first use. Init reports loading errors that T would swallow.
func Init(logger *slog.Logger) error {
	ensure()
	if loadErr != nil {
		return loadErr
	}
	if logger != nil {
		logger.Info("i18n initialized", "languages", SupportedLanguages, "default", DefaultLanguage)
	}
	return nil
}

func ensure() {
	loadOnce.Do(func() {
		c := &Catalog{translations: make(map[string]map[string]string)}

		tags := make([]language.Tag, 0, len(SupportedLanguages))
		for _, lang := range SupportedLanguages {
			tags = append(tags, language.MustParse(lang))
		}
		c.supported = tags
		c.matcher = language.NewMatcher(tags)

		for _, lang := range SupportedLanguages {
			if err := c.loadLanguage(lang); err != nil {
				loadErr = fmt.Errorf("failed to load language %s: %w", lang, err)
				return
			}
		}
		catalog = c
	})
}

// loadLanguage loads translations for a specific language.
func (c *Catalog) loadLanguage(lang string) error {
	path := fmt.Sprintf("locales/%s/messages.json", lang)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var msgFile MessageFile
	if err := json.Unmarshal(data, &msgFile); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.translations[lang] = make(map[string]string, len(msgFile.Messages))
	for _, msg := range msgFile.Messages {
		c.translations[lang][msg.ID] = msg.Translation
	}
	return nil
}

// T translates a message key to the specified language.
// Unknown languages fall back to DefaultLanguage; unknown keys return the key itself.
// Supports optional arguments for string formatting.
func T(lang, key string, args ...any) string {
	ensure()
	if catalog == nil {
		return key
	}

	translation, ok := catalog.translations[lang][key]
	if !ok {
		translation, ok = catalog.translations[DefaultLanguage][key]
		if !ok {
			return key
		}
	}

	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// MatchLanguage finds the best matching supported language for an
// Accept-Language header or a bare language code.
func MatchLanguage(acceptLang string) string {
	ensure()
	if catalog == nil {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(acceptLang)
		if err != nil {
			return DefaultLanguage
		}
		tags = []language.Tag{tag}
	}

	_, idx, conf := catalog.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	if idx >= 0 && idx < len(catalog.supported) {
		return catalog.supported[idx].String()
	}
	return DefaultLanguage
}

// IsSupported checks if a language code has a catalog.
func IsSupported(lang string) bool {
	lang = strings.ToLower(lang)
	for _, supported := range SupportedLanguages {
		if supported == lang {
			return true
		}
	}
	return false
}

// TranslationCount returns the number of translations loaded for a language.
func TranslationCount(lang string) int {
	ensure()
	if catalog == nil {
		return 0
	}
	return len(catalog.translations[lang])
}

// Keys returns the message keys of a language, used to check catalogs stay in sync.
func Keys(lang string) []string {
	ensure()
	if catalog == nil {
		return nil
	}
	keys := make([]string, 0, len(catalog.translations[lang]))
	for k := range catalog.translations[lang] {
		keys = append(keys, k)
	}
	return keys
}
