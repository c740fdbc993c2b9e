package tlcache

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// KnownLanguages lists the base language codes the pipeline is commonly
// asked to translate into. It seeds the label table used by
// LabelEchoSanitizer; locales outside it still work.
var KnownLanguages = []string{
	// Tier 1
	"en", "de", "es", "fr", "it", "ja", "pt", "zh",
	// Tier 2
	"ar", "bn", "cs", "da", "el", "fi", "he", "hi", "hu", "id", "ko",
	"nl", "nb", "no", "pl", "ro", "ru", "sv", "th", "tr", "uk", "vi",
	// Tier 3
	"bg", "ca", "et", "fa", "hr", "is", "lt", "lv", "ms", "sk", "sl",
	"sr", "sw", "tl", "ur",
}

// NormalizeLocale canonicalizes a locale code so that "sv", "SV" and " sv "
// map to the same cache key. Underscores are accepted ("pt_BR" → "pt-BR").
// Codes that do not parse as BCP 47 are lower-cased and returned as-is.
func NormalizeLocale(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	candidate := strings.ReplaceAll(trimmed, "_", "-")
	tag, err := language.Parse(candidate)
	if err != nil {
		return strings.ToLower(candidate)
	}
	return tag.String()
}

// SameLocale reports whether two locale codes normalize to the same value.
func SameLocale(a, b string) bool {
	return NormalizeLocale(a) == NormalizeLocale(b)
}

// BaseLanguage returns the base language subtag (e.g., "pt" from "pt-BR").
func BaseLanguage(code string) string {
	normalized := NormalizeLocale(code)
	tag, err := language.Parse(normalized)
	if err != nil {
		base, _, _ := strings.Cut(normalized, "-")
		return base
	}
	base, _ := tag.Base()
	return base.String()
}

// LanguageName returns the English name for a locale (e.g., "Swedish").
// Falls back to the code itself if no name is known.
func LanguageName(code string) string {
	tag, err := language.Parse(NormalizeLocale(code))
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// NativeLanguageName returns the name of a locale in its own language
// (e.g., "svenska"). Returns "" if unknown.
func NativeLanguageName(code string) string {
	tag, err := language.Parse(NormalizeLocale(code))
	if err != nil {
		return ""
	}
	return display.Self.Name(tag)
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(code string) string {
	if RTLLanguages[BaseLanguage(code)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	return GetDirection(code) == "rtl"
}
