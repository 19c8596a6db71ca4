// Package i18n хранит переводы интерфейса и выбранный клиентом язык.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FallbackLocale используется, когда в выбранном языке нет ключа.
const FallbackLocale = "uz"

// SupportedLocales — языки, для которых есть каталоги.
var SupportedLocales = []string{"uz", "ru", "en"}

//go:embed locales/*.yaml
var localeFS embed.FS

// IsSupported сообщает, есть ли каталог для locale.
func IsSupported(locale string) bool {
	for _, l := range SupportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

// Catalog — загруженные вложенные словари переводов по языкам.
type Catalog struct {
	tables map[string]map[string]any
}

// Load читает встроенные каталоги.
func Load() (*Catalog, error) {
	c := &Catalog{tables: make(map[string]map[string]any, len(SupportedLocales))}
	for _, locale := range SupportedLocales {
		raw, err := localeFS.ReadFile("locales/" + locale + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", locale, err)
		}
		table := map[string]any{}
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", locale, err)
		}
		c.tables[locale] = table
	}
	return c, nil
}

// MustLoad как Load, но паникует при ошибке. Каталоги встроены в бинарь.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// T переводит ключ вида "section.key". Если в locale перевода нет, берётся
// FallbackLocale, а если нет и там, возвращается сам ключ.
func (c *Catalog) T(locale, key string) string {
	if v, ok := c.lookup(locale, key); ok {
		return v
	}
	if v, ok := c.lookup(FallbackLocale, key); ok {
		return v
	}
	return key
}

func (c *Catalog) lookup(locale, key string) (string, bool) {
	if c == nil || key == "" {
		return "", false
	}
	var node any = c.tables[locale]
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = m[part]
		if !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok && s != ""
}
