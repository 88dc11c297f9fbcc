package i18n

import "strings"

// DefaultLanguage is used when a requested language has no catalog.
const DefaultLanguage = "en"

// NormalizeLanguage lowercases a tag and uses "-" as separator:
// "pt_BR" becomes "pt-br".
func NormalizeLanguage(lang string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(lang)), "_", "-")
}

// candidates lists the lookup order for lang: the full tag, each shorter
// prefix, then fallback. Duplicates are dropped.
func candidates(lang, fallback string) []string {
	lang = NormalizeLanguage(lang)
	out := make([]string, 0, 3)
	for lang != "" {
		out = append(out, lang)
		i := strings.LastIndex(lang, "-")
		if i < 0 {
			break
		}
		lang = lang[:i]
	}
	fallback = NormalizeLanguage(fallback)
	for _, c := range out {
		if c == fallback {
			return out
		}
	}
	if fallback != "" {
		out = append(out, fallback)
	}
	return out
}
