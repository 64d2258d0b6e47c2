package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestTranslationService(gen *fakeGenerator) *TranslationService {
	return NewTranslationService(gen, NewLanguageRegistry(), testSettingsStore())
}

func TestTranslate_UnsupportedLanguage(t *testing.T) {
	service := newTestTranslationService(&fakeGenerator{})

	_, err := service.Translate(context.Background(), "hello", "xx")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("Expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestTranslate_ShortTextSingleCall(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{raw: `{"translation": "hola mundo"}`},
	}}
	service := newTestTranslationService(gen)

	got, err := service.Translate(context.Background(), "hello world", "es")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "hola mundo" {
		t.Errorf("Expected translated text, got %q", got)
	}
	if gen.callCount() != 1 {
		t.Errorf("Expected 1 model call for short text, got %d", gen.callCount())
	}
	if !strings.Contains(gen.call(0).prompt, "Translate the following text to Spanish") {
		t.Errorf("Prompt missing language name:\n%s", gen.call(0).prompt)
	}
}

func TestTranslate_LongTextChunkedInOrder(t *testing.T) {
	// Three paragraphs of ~3000 chars each: pairs never fit in one chunk.
	p1 := strings.Repeat("a", 3000)
	p2 := strings.Repeat("b", 3000)
	p3 := strings.Repeat("c", 3000)
	text := p1 + "\n\n" + p2 + "\n\n" + p3

	gen := &fakeGenerator{responses: []fakeResponse{
		{raw: `{"translation": "uno"}`},
		{raw: `{"translation": "dos"}`},
		{raw: `{"translation": "tres"}`},
	}}
	service := newTestTranslationService(gen)

	got, err := service.Translate(context.Background(), text, "es")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "uno\n\ndos\n\ntres" {
		t.Errorf("Expected chunks rejoined in order, got %q", got)
	}
	if gen.callCount() != 3 {
		t.Fatalf("Expected 3 chunk calls, got %d", gen.callCount())
	}
	if !strings.Contains(gen.call(0).prompt, p1) || !strings.Contains(gen.call(2).prompt, p3) {
		t.Error("Chunks sent out of source order")
	}
}

func TestTranslate_RateLimitAborts(t *testing.T) {
	p1 := strings.Repeat("a", 3000)
	p2 := strings.Repeat("b", 3000)
	text := p1 + "\n\n" + p2

	gen := &fakeGenerator{responses: []fakeResponse{
		{raw: `{"translation": "uno"}`},
		{err: fmt.Errorf("model x (status 429): %w", ErrRateLimited)},
	}}
	service := newTestTranslationService(gen)

	_, err := service.Translate(context.Background(), text, "es")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited to propagate, got %v", err)
	}
}

func TestTranslate_FallbackModelOnUnavailable(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: errors.New("model gemini-x not found (status 404)")},
		{raw: `{"translation": "bonjour"}`},
	}}
	service := newTestTranslationService(gen)

	got, err := service.Translate(context.Background(), "hello", "fr")
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}
	if got != "bonjour" {
		t.Errorf("Expected fallback translation, got %q", got)
	}
	if gen.callCount() != 2 {
		t.Fatalf("Expected 2 calls (primary + fallback), got %d", gen.callCount())
	}
	want := service.settings.Get().TranslationFallback
	if gen.call(1).opts.Model != want {
		t.Errorf("Expected fallback model %q, got %q", want, gen.call(1).opts.Model)
	}
}

func TestTranslate_NoFallbackOnRateLimit(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: fmt.Errorf("model x (status 429): %w", ErrRateLimited)},
	}}
	service := newTestTranslationService(gen)

	_, err := service.Translate(context.Background(), "hello", "fr")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}
	if gen.callCount() != 1 {
		t.Errorf("Rate limit must not trigger the fallback model, got %d calls", gen.callCount())
	}
}

func TestChunkParagraphs(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected []string
	}{
		{
			name:     "fits one chunk",
			text:     "one\n\ntwo",
			limit:    100,
			expected: []string{"one\n\ntwo"},
		},
		{
			name:     "greedy packing",
			text:     "aaaa\n\nbbbb\n\ncccc",
			limit:    11,
			expected: []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name:     "oversize paragraph kept whole",
			text:     "short\n\n" + strings.Repeat("x", 50) + "\n\ntail",
			limit:    20,
			expected: []string{"short", strings.Repeat("x", 50), "tail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkParagraphs(tt.text, tt.limit)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d chunks, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("Chunk %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestChunkParagraphs_ReassemblyLossless(t *testing.T) {
	text := strings.Repeat("para one\n\npara two\n\npara three\n\n", 20)
	text = strings.TrimSuffix(text, "\n\n")

	chunks := chunkParagraphs(text, 40)
	rejoined := strings.Join(chunks, "\n\n")
	if rejoined != text {
		t.Error("Rejoining chunks with blank lines must reproduce the source text")
	}
	for i, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > 40 && strings.Contains(chunk, "\n\n") {
			t.Errorf("Chunk %d exceeds the limit despite holding multiple paragraphs", i)
		}
	}
}

func TestIsModelUnavailable(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{errors.New("model gemini not found"), true},
		{errors.New("the model does not exist"), true},
		{errors.New("upstream returned status 404"), true},
		{fmt.Errorf("model x (status 429): %w", ErrRateLimited), false},
		{errors.New("connection reset"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isModelUnavailable(tt.err); got != tt.expected {
			t.Errorf("isModelUnavailable(%v) = %v, expected %v", tt.err, got, tt.expected)
		}
	}
}
