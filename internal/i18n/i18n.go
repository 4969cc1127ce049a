package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

const (
	LangFR = "fr"
	LangEN = "en"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Locales returns the catalogs compiled into the binary.
func Locales() fs.FS {
	sub, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

type Manager struct {
	defaultLanguage string
	locales         map[string]map[string]string
	supported       []string
}

// NewManager loads every <lang>.json catalog of locales. Both fr and en must
// be present; an unsupported defaultLanguage falls back to fr.
func NewManager(defaultLanguage string, locales fs.FS) (*Manager, error) {
	catalogs, err := fs.Glob(locales, "*.json")
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}

	manager := &Manager{locales: make(map[string]map[string]string, len(catalogs))}
	for _, name := range catalogs {
		language := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
		messages, err := loadCatalog(locales, name)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", language, err)
		}
		manager.locales[language] = messages
		manager.supported = append(manager.supported, language)
	}

	for _, required := range []string{LangFR, LangEN} {
		if _, ok := manager.locales[required]; !ok {
			return nil, fmt.Errorf("required locale %q missing", required)
		}
	}

	sort.Strings(manager.supported)
	manager.defaultLanguage = LangFR
	manager.defaultLanguage = manager.NormalizeLanguage(defaultLanguage)
	return manager, nil
}

func loadCatalog(locales fs.FS, name string) (map[string]string, error) {
	content, err := fs.ReadFile(locales, name)
	if err != nil {
		return nil, err
	}
	messages := map[string]string{}
	if err := json.Unmarshal(content, &messages); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(messages) == 0 {
		return nil, errors.New("catalog is empty")
	}
	return messages, nil
}

func (manager *Manager) DefaultLanguage() string {
	return manager.defaultLanguage
}

func (manager *Manager) SupportedLanguages() []string {
	result := make([]string, len(manager.supported))
	copy(result, manager.supported)
	return result
}

func (manager *Manager) NormalizeLanguage(raw string) string {
	if normalized := normalizeLanguageTag(raw); manager.isSupported(normalized) {
		return normalized
	}
	return manager.defaultLanguage
}

// DetectFromAcceptLanguage picks the supported language with the highest
// q-value. Ties keep header order; q=0 entries are refused.
func (manager *Manager) DetectFromAcceptLanguage(raw string) string {
	best := ""
	bestWeight := 0.0
	for _, part := range strings.Split(raw, ",") {
		tag, weight := parseAcceptLanguagePart(part)
		language := normalizeLanguageTag(tag)
		if weight <= bestWeight || !manager.isSupported(language) {
			continue
		}
		best, bestWeight = language, weight
	}
	if best == "" {
		return manager.defaultLanguage
	}
	return best
}

// Translate looks key up in language, then in the default catalog. An
// unknown key is returned as is.
func (manager *Manager) Translate(language string, key string) string {
	for _, candidate := range []string{manager.NormalizeLanguage(language), manager.defaultLanguage} {
		if value := strings.TrimSpace(manager.locales[candidate][key]); value != "" {
			return manager.locales[candidate][key]
		}
	}
	return key
}

func (manager *Manager) isSupported(language string) bool {
	if language == "" {
		return false
	}
	_, ok := manager.locales[language]
	return ok
}

func parseAcceptLanguagePart(part string) (string, float64) {
	fields := strings.Split(part, ";")
	tag := strings.TrimSpace(fields[0])
	weight := 1.0
	for _, parameter := range fields[1:] {
		name, value, ok := strings.Cut(strings.TrimSpace(parameter), "=")
		if !ok || strings.TrimSpace(name) != "q" {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return tag, 0
		}
		weight = parsed
	}
	return tag, weight
}

func normalizeLanguageTag(raw string) string {
	language := strings.ToLower(strings.TrimSpace(raw))
	language = strings.ReplaceAll(language, "_", "-")
	if separator := strings.Index(language, "-"); separator >= 0 {
		language = language[:separator]
	}
	return language
}
