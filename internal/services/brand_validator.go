package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"castor/internal/models"
)

// brandValidationSchema is the JSON-schema contract for the model-assisted
// validation path.
var brandValidationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"isCoherent":     map[string]interface{}{"type": "boolean"},
		"coherenceScore": map[string]interface{}{"type": "integer"},
		"violations": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"strengths": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"feedback": map[string]interface{}{"type": "string"},
	},
	"required":             []string{"isCoherent", "coherenceScore", "violations", "strengths", "feedback"},
	"additionalProperties": false,
}

// BrandValidator scores generated or hand-written text for brand coherence.
// It never returns an error: the model-assisted path silently downgrades to
// the heuristic scorer on any failure.
type BrandValidator struct {
	generator Generator
	settings  *ModelSettingsStore
}

// NewBrandValidator creates the validator.
func NewBrandValidator(generator Generator, settings *ModelSettingsStore) *BrandValidator {
	return &BrandValidator{
		generator: generator,
		settings:  settings,
	}
}

// Validate produces a structured coherence report for the suggestion. With a
// brand voice defined it asks the model; without one (or on any model
// failure) it falls back to the local heuristics.
func (v *BrandValidator) Validate(ctx context.Context, suggestion string, profile *models.StyleProfile, accountContext *models.AccountContext) *models.BrandValidationResult {
	if accountContext != nil && accountContext.BrandVoice != "" {
		result, err := v.validateWithModel(ctx, suggestion, profile, accountContext)
		if err == nil {
			return result
		}
		log.Printf("⚠️ [BRAND] Model validation failed, falling back to heuristics: %v", err)
	}
	return v.validateHeuristic(suggestion, profile)
}

// validateHeuristic scores the suggestion against the profile alone: length
// band, emoji usage and familiar phrasing.
func (v *BrandValidator) validateHeuristic(suggestion string, profile *models.StyleProfile) *models.BrandValidationResult {
	score := 100
	var violations, strengths []string

	// Length band relative to the author's average.
	length := utf8.RuneCountInString(suggestion)
	if profile.AvgLength > 0 {
		diff := float64(length-profile.AvgLength) / float64(profile.AvgLength)
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff > 0.5:
			score -= 20
			violations = append(violations, fmt.Sprintf("Length differs sharply from your usual posts (%d vs ~%d chars)", length, profile.AvgLength))
		case diff > 0.25:
			score -= 10
			violations = append(violations, fmt.Sprintf("Length drifts from your usual posts (%d vs ~%d chars)", length, profile.AvgLength))
		default:
			strengths = append(strengths, "Length matches your usual posts")
		}
	}

	// Emoji usage.
	emojiCount := countEmojis(suggestion)
	switch {
	case profile.EmojiUsage == models.EmojiNone && emojiCount > 0:
		score -= 15
		violations = append(violations, "Uses emojis but you almost never do")
	case profile.EmojiUsage == models.EmojiHeavy && emojiCount == 0:
		score -= 10
		violations = append(violations, "No emojis, but your posts usually have them")
	case profile.EmojiUsage == models.EmojiLight && emojiCount > 2:
		score -= 5
		violations = append(violations, "More emojis than your usual light touch")
	default:
		strengths = append(strengths, "Emoji usage matches your style")
	}

	// Familiar phrasing.
	lowered := strings.ToLower(suggestion)
	for _, phrase := range profile.CommonPhrases {
		if phrase != "" && strings.Contains(lowered, strings.ToLower(phrase)) {
			strengths = append(strengths, fmt.Sprintf("Uses your familiar phrasing (%q)", phrase))
			break
		}
	}

	score = models.ClampScore(score)
	return &models.BrandValidationResult{
		CoherenceScore: score,
		IsCoherent:     score >= models.CoherentThreshold,
		Violations:     violations,
		Strengths:      strengths,
		Feedback:       heuristicFeedback(score, violations, strengths),
		Category:       models.CategoryForScore(score),
	}
}

// heuristicFeedback picks the single-sentence summary for a score band.
func heuristicFeedback(score int, violations, strengths []string) string {
	switch {
	case score >= 90:
		if len(strengths) > 0 {
			return strengths[0]
		}
		return "Reads exactly like you."
	case score >= 75:
		return "This fits your style well."
	case score >= 60:
		if len(violations) > 0 {
			return "Mostly aligned: " + violations[0]
		}
		return "Mostly aligned with your style."
	default:
		if len(violations) > 0 {
			return "Off-brand: " + violations[0]
		}
		return "Off-brand for this account."
	}
}

// validateWithModel asks the model for a structured coherence report against
// the full profile and brand context.
func (v *BrandValidator) validateWithModel(ctx context.Context, suggestion string, profile *models.StyleProfile, accountContext *models.AccountContext) (*models.BrandValidationResult, error) {
	var sb strings.Builder
	sb.WriteString("Evaluate whether this text is coherent with the author's style and the account's brand.\n\n")

	sb.WriteString("AUTHOR STYLE:\n")
	sb.WriteString(fmt.Sprintf("- Tone: %s, typical length ~%d chars, emoji usage: %s\n", profile.Tone, profile.AvgLength, profile.EmojiUsage))
	if len(profile.CommonPhrases) > 0 {
		sb.WriteString(fmt.Sprintf("- Common phrases: %s\n", strings.Join(profile.CommonPhrases, ", ")))
	}
	if len(profile.Topics) > 0 {
		sb.WriteString(fmt.Sprintf("- Topics: %s\n", strings.Join(profile.Topics, ", ")))
	}

	sb.WriteString(fmt.Sprintf("\nBRAND VOICE: %s\n", accountContext.BrandVoice))
	if len(accountContext.Expertise) > 0 {
		sb.WriteString(fmt.Sprintf("Expertise: %s\n", strings.Join(accountContext.Expertise, ", ")))
	}
	if len(accountContext.AlwaysDo) > 0 {
		sb.WriteString(fmt.Sprintf("Always: %s\n", strings.Join(accountContext.AlwaysDo, "; ")))
	}
	if len(accountContext.NeverDo) > 0 {
		sb.WriteString(fmt.Sprintf("Never: %s\n", strings.Join(accountContext.NeverDo, "; ")))
	}

	sb.WriteString(fmt.Sprintf("\nTEXT TO EVALUATE:\n%q\n", suggestion))
	sb.WriteString("\nScore coherence 0-100, list violations and strengths, and give one sentence of feedback.")

	opts := GenerateOptions{
		Model:       v.settings.Get().Default,
		Schema:      brandValidationSchema,
		SchemaName:  "brand_validation",
		Temperature: 0.2,
	}

	raw, err := v.generator.Generate(ctx, sb.String(), opts)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		IsCoherent     bool     `json:"isCoherent"`
		CoherenceScore int      `json:"coherenceScore"`
		Violations     []string `json:"violations"`
		Strengths      []string `json:"strengths"`
		Feedback       string   `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("malformed validation payload: %w", err)
	}

	score := models.ClampScore(parsed.CoherenceScore)
	return &models.BrandValidationResult{
		CoherenceScore: score,
		IsCoherent:     parsed.IsCoherent,
		Violations:     parsed.Violations,
		Strengths:      parsed.Strengths,
		Feedback:       parsed.Feedback,
		Category:       models.CategoryForScore(score),
	}, nil
}

// countEmojis counts emoji runes in common Unicode emoji blocks.
func countEmojis(s string) int {
	count := 0
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
			count++
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
			count++
		case r == 0x2764: // heavy black heart
			count++
		}
	}
	return count
}
