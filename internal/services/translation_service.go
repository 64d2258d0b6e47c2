package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// translationChunkLimit is the per-call size ceiling in characters. Text at
// or under the limit translates in one call; longer text is chunked at
// paragraph boundaries.
const translationChunkLimit = 5000

// translationSchema is the JSON-schema contract for one translation call.
var translationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"translation": map[string]interface{}{
			"type": "string",
		},
	},
	"required":             []string{"translation"},
	"additionalProperties": false,
}

// TranslationService performs length-safe, structure-preserving translation.
type TranslationService struct {
	generator Generator
	registry  *LanguageRegistry
	settings  *ModelSettingsStore
	limiter   *rate.Limiter // paces chunk calls so long documents don't burst the model
}

// NewTranslationService creates the translation engine.
func NewTranslationService(generator Generator, registry *LanguageRegistry, settings *ModelSettingsStore) *TranslationService {
	return &TranslationService{
		generator: generator,
		registry:  registry,
		settings:  settings,
		limiter:   rate.NewLimiter(rate.Limit(2), 1), // 2 chunk calls/second
	}
}

// Translate translates text into the target language, preserving paragraph
// structure and ordering. Rate-limit errors are re-thrown wrapping
// ErrRateLimited so callers can back off; any other chunk failure aborts the
// whole call — partial translations are never returned.
func (s *TranslationService) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	languageName, err := s.registry.LanguageName(targetLanguage)
	if err != nil {
		return "", err
	}

	if utf8.RuneCountInString(text) <= translationChunkLimit {
		return s.translateChunk(ctx, text, languageName)
	}

	chunks := chunkParagraphs(text, translationChunkLimit)
	log.Printf("🌐 [TRANSLATE] Long text (%d chars) split into %d chunks", utf8.RuneCountInString(text), len(chunks))

	// Sequential, in source order: preserves ordering and avoids bursting
	// the model's rate limit.
	translated := make([]string, len(chunks))
	for i, chunk := range chunks {
		if chunk == "" {
			translated[i] = ""
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("translation aborted: %w", err)
		}

		result, err := s.translateChunk(ctx, chunk, languageName)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				return "", fmt.Errorf("translation rate limited on chunk %d/%d: %w", i+1, len(chunks), err)
			}
			return "", fmt.Errorf("translation failed on chunk %d/%d: %v", i+1, len(chunks), err)
		}
		translated[i] = result
	}

	return strings.Join(translated, "\n\n"), nil
}

// translateChunk issues one schema-constrained translation call. When the
// configured translation model is unavailable it retries once with the
// documented fallback model.
func (s *TranslationService) translateChunk(ctx context.Context, text, languageName string) (string, error) {
	recordTranslationChunk()

	prompt := fmt.Sprintf(
		"Translate the following text to %s.\n"+
			"Rules: translate literally and completely, preserve all formatting, line breaks and paragraph structure, "+
			"do not summarize, do not reorder, do not add commentary.\n\nTEXT:\n%s",
		languageName, text,
	)

	current := s.settings.Get()
	opts := GenerateOptions{
		Model:       current.Translation,
		Schema:      translationSchema,
		SchemaName:  "translation",
		Temperature: 0.2,
	}

	raw, err := s.generator.Generate(ctx, prompt, opts)
	if err != nil && isModelUnavailable(err) && current.TranslationFallback != "" {
		log.Printf("⚠️ [TRANSLATE] Model %s unavailable, falling back to %s", current.Translation, current.TranslationFallback)
		opts.Model = current.TranslationFallback
		raw, err = s.generator.Generate(ctx, prompt, opts)
	}
	if err != nil {
		return "", err
	}

	var parsed struct {
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("malformed translation payload: %w", err)
	}

	result := stripWrappingQuotes(strings.TrimSpace(parsed.Translation))
	if result == "" {
		return "", fmt.Errorf("model returned an empty translation")
	}
	return result, nil
}

// isModelUnavailable detects a model-not-found upstream failure, the one
// condition worth a fallback-model retry.
func isModelUnavailable(err error) bool {
	if err == nil || errors.Is(err, ErrRateLimited) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "model not found") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "status 404")
}

// chunkParagraphs splits text on double-newline paragraph boundaries and
// greedily packs paragraphs into chunks of at most limit characters. A
// single paragraph longer than the limit is kept whole — never split
// mid-paragraph.
func chunkParagraphs(text string, limit int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, paragraph := range paragraphs {
		paragraphLen := utf8.RuneCountInString(paragraph)

		if currentLen > 0 && currentLen+2+paragraphLen > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}

		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(paragraph)
		currentLen += paragraphLen
	}

	if currentLen > 0 || current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
