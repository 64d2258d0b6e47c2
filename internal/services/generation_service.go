package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"castor/internal/models"
)

// suggestionsSchema is the JSON-schema contract for every suggestion call.
var suggestionsSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"suggestions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "string",
			},
		},
	},
	"required":             []string{"suggestions"},
	"additionalProperties": false,
}

// translateLenientCeiling relaxes the per-suggestion ceiling for
// translate-style calls, where output length tracks the input.
const translateLenientCeiling = 10000

// GenerationService drives schema-constrained suggestion generation with the
// improve-mode length-retry policy.
type GenerationService struct {
	generator Generator
	builder   *PromptBuilder
	settings  *ModelSettingsStore
}

// NewGenerationService creates the generation engine.
func NewGenerationService(generator Generator, builder *PromptBuilder, settings *ModelSettingsStore) *GenerationService {
	return &GenerationService{
		generator: generator,
		builder:   builder,
		settings:  settings,
	}
}

// GenerateSuggestions runs one generation call for the mode and returns the
// filtered suggestions. A malformed model payload or an empty result after
// filtering is a hard error — callers never silently receive zero
// suggestions.
func (s *GenerationService) GenerateSuggestions(
	ctx context.Context,
	mode models.GenerationMode,
	profile *models.StyleProfile,
	sctx *models.SuggestionContext,
	maxChars int,
	isProUser bool,
) ([]string, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown generation mode %q", mode)
	}

	started := time.Now()
	defer func() {
		observeGenerationLatency(time.Since(started).Seconds())
	}()

	count := mode.SuggestionCount()
	systemContext := s.builder.BuildSystemContext(profile, maxChars, sctx.AccountContext)

	userPrompt, err := s.builder.BuildUserPrompt(mode, sctx, maxChars, profile.LanguagePreference, count)
	if err != nil {
		return nil, err
	}

	current := s.settings.Get()
	model := current.Default
	if isProUser {
		model = current.Pro
	}

	opts := GenerateOptions{
		Model:             model,
		SystemInstruction: systemContext,
		Schema:            suggestionsSchema,
		SchemaName:        "suggestions",
	}

	suggestions, err := s.callAndFilter(ctx, userPrompt, opts, mode, maxChars, count)
	if err != nil {
		return nil, err
	}

	// Length-retry policy: improve mode, Pro tier only, at most once.
	if mode == models.ModeImprove && isProUser {
		suggestions = s.retryForLength(ctx, userPrompt, opts, sctx.CurrentDraft, maxChars, count, suggestions)
	}

	recordSuggestions(string(mode), len(suggestions))
	return suggestions, nil
}

// callAndFilter issues one model call and post-filters the payload.
func (s *GenerationService) callAndFilter(
	ctx context.Context,
	prompt string,
	opts GenerateOptions,
	mode models.GenerationMode,
	maxChars, count int,
) ([]string, error) {
	raw, err := s.generator.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("malformed suggestions payload: %w", err)
	}

	suggestions := filterSuggestions(parsed.Suggestions, mode, maxChars, count)
	if len(suggestions) == 0 {
		return nil, ErrNoSuggestions
	}
	return suggestions, nil
}

// retryForLength reissues the improve prompt with a mandatory-length
// directive when every suggestion came back short. Retry failures are
// swallowed: the original suggestions are always a valid fallback.
func (s *GenerationService) retryForLength(
	ctx context.Context,
	prompt string,
	opts GenerateOptions,
	draft string,
	maxChars, count int,
	suggestions []string,
) []string {
	draftLen := utf8.RuneCountInString(draft)
	minTarget := computeImproveMinChars(draftLen, maxChars)

	meetTarget := 0
	grewEnough := 0
	for _, suggestion := range suggestions {
		length := utf8.RuneCountInString(suggestion)
		if length >= minTarget {
			meetTarget++
		}
		if length >= draftLen+20 {
			grewEnough++
		}
	}
	if meetTarget > 0 || grewEnough >= 2 {
		return suggestions
	}

	recordGenerationRetry()
	log.Printf("🔁 [GENERATE] All improve suggestions short of %d chars, retrying once", minTarget)

	retryPrompt := prompt + fmt.Sprintf(
		"\n\nMANDATORY: every option MUST be at least %d characters long. Expand with concrete substance, not filler.",
		minTarget,
	)

	retried, err := s.callAndFilter(ctx, retryPrompt, opts, models.ModeImprove, maxChars, count)
	if err != nil {
		log.Printf("⚠️ [GENERATE] Length retry failed, keeping original suggestions: %v", err)
		return suggestions
	}
	return retried
}

// computeImproveMinChars derives the minimum-length band for improve mode.
// Short drafts get a fixed growth floor; long drafts scale at 1.15x. The
// result is capped below maxChars to leave the model headroom.
func computeImproveMinChars(draftLength, maxChars int) int {
	var growth, floor int
	switch {
	case draftLength < 120:
		growth, floor = 40, 90
	case draftLength < 260:
		growth, floor = 70, 180
	default:
		growth, floor = 50, int(float64(draftLength)*1.15)
	}

	desired := draftLength + growth
	if floor > desired {
		desired = floor
	}

	ceiling := maxChars - 20
	if ceiling < 40 {
		ceiling = 40
	}
	if desired > ceiling {
		return ceiling
	}
	return desired
}

// filterSuggestions trims, strips wrapping quotes, drops empties and
// over-ceiling entries, and caps the list to the requested count.
func filterSuggestions(raw []string, mode models.GenerationMode, maxChars, count int) []string {
	ceiling := maxChars
	if mode == models.ModeTranslate && ceiling < translateLenientCeiling {
		ceiling = translateLenientCeiling
	}

	filtered := make([]string, 0, count)
	for _, suggestion := range raw {
		cleaned := stripWrappingQuotes(strings.TrimSpace(suggestion))
		if cleaned == "" {
			continue
		}
		if utf8.RuneCountInString(cleaned) > ceiling {
			continue
		}
		filtered = append(filtered, cleaned)
		if len(filtered) == count {
			break
		}
	}
	return filtered
}

// stripWrappingQuotes removes one layer of wrapping quote characters the
// model sometimes adds around a suggestion.
func stripWrappingQuotes(s string) string {
	if utf8.RuneCountInString(s) < 2 {
		return s
	}

	pairs := [][2]string{
		{`"`, `"`},
		{`'`, `'`},
		{"“", "”"}, // curly double quotes
		{"‘", "’"}, // curly single quotes
	}
	for _, pair := range pairs {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, pair[0]), pair[1]))
		}
	}
	return s
}
