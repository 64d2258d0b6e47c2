package services

import (
	"errors"
	"sort"
	"testing"
)

func TestLanguageRegistry_IsSupported(t *testing.T) {
	registry := NewLanguageRegistry()

	for _, code := range []string{"en", "es", "pt", "fr", "de", "it", "ja", "ko", "zh", "hi", "ru", "ar", "nl", "pl", "tr"} {
		if !registry.IsSupported(code) {
			t.Errorf("Expected %q supported", code)
		}
	}
	for _, code := range []string{"", "xx", "EN", "english"} {
		if registry.IsSupported(code) {
			t.Errorf("Expected %q unsupported", code)
		}
	}
}

func TestLanguageRegistry_LanguageName(t *testing.T) {
	registry := NewLanguageRegistry()

	name, err := registry.LanguageName("ja")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if name != "Japanese" {
		t.Errorf("Expected Japanese, got %q", name)
	}

	_, err = registry.LanguageName("klingon")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("Expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestLanguageRegistry_SupportedLanguageCodes(t *testing.T) {
	registry := NewLanguageRegistry()

	codes := registry.SupportedLanguageCodes()
	if len(codes) != 15 {
		t.Errorf("Expected 15 supported languages, got %d", len(codes))
	}
	if !sort.StringsAreSorted(codes) {
		t.Error("Expected codes sorted for stable API output")
	}
}
