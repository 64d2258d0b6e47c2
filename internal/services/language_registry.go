package services

import (
	"fmt"
	"sort"
)

// LanguageRegistry holds the closed set of supported target languages.
type LanguageRegistry struct {
	names map[string]string // code -> English display name
}

// NewLanguageRegistry creates the registry with the supported language set.
func NewLanguageRegistry() *LanguageRegistry {
	return &LanguageRegistry{
		names: map[string]string{
			"en": "English",
			"es": "Spanish",
			"pt": "Portuguese",
			"fr": "French",
			"de": "German",
			"it": "Italian",
			"ja": "Japanese",
			"ko": "Korean",
			"zh": "Chinese",
			"hi": "Hindi",
			"ru": "Russian",
			"ar": "Arabic",
			"nl": "Dutch",
			"pl": "Polish",
			"tr": "Turkish",
		},
	}
}

// IsSupported reports whether code is a supported target language.
func (r *LanguageRegistry) IsSupported(code string) bool {
	_, ok := r.names[code]
	return ok
}

// LanguageName returns the English display name for a supported code.
func (r *LanguageRegistry) LanguageName(code string) (string, error) {
	name, ok := r.names[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return name, nil
}

// SupportedLanguageCodes returns all supported codes, sorted.
func (r *LanguageRegistry) SupportedLanguageCodes() []string {
	codes := make([]string, 0, len(r.names))
	for code := range r.names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
