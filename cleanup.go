package tlcache

import (
	"strings"
	"sync"
)

// Sanitizer reports whether a translated value may be shown for locale.
// Rejected values are handled like cache misses.
type Sanitizer func(value, locale string) bool

// AcceptNonEmpty rejects only values that are blank after trimming.
func AcceptNonEmpty(value, _ string) bool {
	return strings.TrimSpace(value) != ""
}

// LabelEchoSanitizer rejects blank values and values that consist of nothing
// but a language label followed by a colon ("Italian:", "it: ", "italiano:").
// Some providers answer with the label of the target language instead of a
// translation; those answers must never reach a page.
//
// Labels are the locale code, its base language, and the English and native
// language names, for every entry in KnownLanguages plus the requested locale.
func LabelEchoSanitizer(value, locale string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	if !strings.HasSuffix(trimmed, ":") {
		return true
	}

	label := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(trimmed, ":")))
	if label == "" {
		return false
	}
	if _, known := knownLabels()[label]; known {
		return false
	}
	for _, l := range labelsFor(locale) {
		if l == label {
			return false
		}
	}
	return true
}

var (
	labelsOnce sync.Once
	labelSet   map[string]struct{}
)

func knownLabels() map[string]struct{} {
	labelsOnce.Do(func() {
		labelSet = make(map[string]struct{}, len(KnownLanguages)*3)
		for _, code := range KnownLanguages {
			for _, l := range labelsFor(code) {
				labelSet[l] = struct{}{}
			}
		}
	})
	return labelSet
}

func labelsFor(locale string) []string {
	normalized := NormalizeLocale(locale)
	if normalized == "" {
		return nil
	}

	candidates := []string{
		normalized,
		strings.ReplaceAll(normalized, "-", "_"),
		BaseLanguage(normalized),
		LanguageName(normalized),
		NativeLanguageName(normalized),
	}

	labels := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			labels = append(labels, c)
		}
	}
	return labels
}
