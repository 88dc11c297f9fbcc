package i18n

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrymomot/formrules/pkg/logger"
)

// Translator looks messages up by language and dotted key.
// It is safe for concurrent use.
type Translator struct {
	translations   map[string]map[string]any
	defaultLang    string
	fallbackToKey  bool
	missingLogMode bool
	logger         *slog.Logger
	mu             sync.RWMutex
}

// NewTranslator loads the adapter's catalogs. Language codes are normalized
// with NormalizeLanguage.
func NewTranslator(ctx context.Context, adapter TranslationAdapter, options ...Option) (*Translator, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}

	t := &Translator{
		translations: make(map[string]map[string]any),
		defaultLang:  DefaultLanguage,
		logger:       logger.Discard(),
	}
	for _, option := range options {
		option(t)
	}

	catalog, err := adapter.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.add(catalog); err != nil {
		return nil, err
	}

	t.logger.DebugContext(ctx, "message catalogs loaded",
		logger.Component("i18n"),
		slog.Any("languages", t.supportedLanguages()),
	)
	return t, nil
}

// Add merges catalog into the loaded messages, overriding existing keys.
func (t *Translator) Add(catalog map[string]map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.add(catalog)
}

func (t *Translator) add(catalog map[string]map[string]any) error {
	for lang, messages := range catalog {
		lang = NormalizeLanguage(lang)
		if lang == "" {
			return ErrEmptyLanguage
		}
		if messages == nil {
			return fmt.Errorf("%w: nil messages for language %q", ErrInvalidStructure, lang)
		}
		if t.translations[lang] == nil {
			t.translations[lang] = make(map[string]any)
		}
		merge(t.translations[lang], messages)
	}
	return nil
}

// DefaultLanguage returns the fallback language.
func (t *Translator) DefaultLanguage() string {
	return t.defaultLang
}

// SupportedLanguages returns the loaded language codes, sorted.
func (t *Translator) SupportedLanguages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.supportedLanguages()
}

func (t *Translator) supportedLanguages() []string {
	langs := make([]string, 0, len(t.translations))
	for lang := range t.translations {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Lookup returns the raw message for key. It tries lang, its shorter
// prefixes ("de-at" then "de") and finally the default language.
func (t *Translator) Lookup(lang, key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, candidate := range candidates(lang, t.defaultLang) {
		messages, ok := t.translations[candidate]
		if !ok {
			continue
		}
		if msg, ok := getTranslation(messages, key); ok {
			return msg, true
		}
	}
	if t.missingLogMode {
		t.logger.Warn("translation not found", logger.Locale(lang), slog.String("key", key))
	}
	return "", false
}

// HasTranslation reports whether key resolves for lang, fallbacks included.
func (t *Translator) HasTranslation(lang, key string) bool {
	_, ok := t.Lookup(lang, key)
	return ok
}

// T looks key up and interpolates params into it. A missing key yields the
// key itself when fallback to key is enabled, otherwise "".
func (t *Translator) T(lang, key string, params map[string]any) string {
	msg, ok := t.Lookup(lang, key)
	if !ok {
		if !t.fallbackToKey {
			return ""
		}
		msg = key
	}
	return Interpolate(msg, params)
}

// getTranslation walks a nested map along a dotted key. The full remaining
// key is tried first at every level, so "validation.min.string" may be
// stored either nested or flat.
func getTranslation(m map[string]any, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return asMessage(v)
	}
	head, rest, found := strings.Cut(key, ".")
	for found {
		if next, ok := m[head].(map[string]any); ok {
			if msg, ok := getTranslation(next, rest); ok {
				return msg, true
			}
		}
		var more string
		more, rest, found = strings.Cut(rest, ".")
		head = head + "." + more
	}
	return "", false
}

func asMessage(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

var token = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}|:([A-Za-z_][A-Za-z0-9_]*)`)

// Interpolate substitutes :token and {token} placeholders from params in a
// single pass. Unknown tokens are left in place. Names are matched greedily,
// so :min_digits is never read as :min followed by "_digits".
func Interpolate(tmpl string, params map[string]any) string {
	if len(params) == 0 || !strings.ContainsAny(tmpl, ":{") {
		return tmpl
	}
	return token.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := strings.TrimPrefix(m, ":")
		if strings.HasPrefix(m, "{") {
			name = m[1 : len(m)-1]
		}
		v, ok := params[name]
		if !ok {
			return m
		}
		return Format(v)
	})
}

// Format renders a parameter value for a message.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = Format(p)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
