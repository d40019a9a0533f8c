// Package dictionary provides the translations that expressions
// reference with "&{key}".
package dictionary

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Dictionary finds the translation for a key in one language.
type Dictionary interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Map is an in-memory Dictionary.
type Map map[string]string

func (m Map) Get(ctx context.Context, key string) (string, bool, error) {
	s, have := m[key]
	return s, have, nil
}

// Languages maps a language to its translations.
type Languages map[string]Map

// Names returns the languages in order.
func (ls Languages) Names() []string {
	acc := make([]string, 0, len(ls))
	for lang := range ls {
		acc = append(acc, lang)
	}
	sort.Strings(acc)
	return acc
}

// ParseYAML parses translations grouped by language:
//
//	en:
//	  greeting: Hello
//	fr:
//	  greeting: Bonjour
func ParseYAML(bs []byte) (Languages, error) {
	var ls Languages
	if err := yaml.Unmarshal(bs, &ls); err != nil {
		return nil, fmt.Errorf("parsing translations: %w", err)
	}
	if ls == nil {
		ls = make(Languages)
	}
	return ls, nil
}

// ReadYAML reads a file for ParseYAML.
func ReadYAML(filename string) (Languages, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseYAML(bs)
}

// MissingTranslation occurs when a strict Translator has no
// translation for a key.
type MissingTranslation struct {
	Key string
}

func (e *MissingTranslation) Error() string {
	return "no translation for " + e.Key
}

// Translator adapts Dictionaries to the compiler's translation
// lookup.
//
// Dictionaries are tried in order.  A key that none of them has
// translates to itself unless Strict.
type Translator struct {
	Dictionaries []Dictionary
	Strict       bool

	logger *zap.Logger
}

// NewTranslator makes a Translator.  The logger can be nil.
func NewTranslator(logger *zap.Logger, ds ...Dictionary) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{
		Dictionaries: ds,
		logger:       logger,
	}
}

func (t *Translator) Translate(ctx context.Context, key string) (string, error) {
	for _, d := range t.Dictionaries {
		s, have, err := d.Get(ctx, key)
		if err != nil {
			return "", err
		}
		if have {
			return s, nil
		}
	}
	if t.Strict {
		return "", &MissingTranslation{Key: key}
	}
	if t.logger != nil {
		t.logger.Debug("missing translation", zap.String("key", key))
	}
	return key, nil
}
