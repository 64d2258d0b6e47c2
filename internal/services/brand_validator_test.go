package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"castor/internal/models"
)

func validatorProfile() *models.StyleProfile {
	profile := models.DefaultStyleProfile("user-1", 42)
	profile.AvgLength = 150
	profile.EmojiUsage = models.EmojiNone
	profile.CommonPhrases = []string{"ship it"}
	return profile
}

func TestValidate_HeuristicPerfectMatch(t *testing.T) {
	validator := NewBrandValidator(&fakeGenerator{}, testSettingsStore())

	text := strings.Repeat("a", 140) + " ship it." // close length, no emoji, familiar phrase
	result := validator.Validate(context.Background(), text, validatorProfile(), nil)

	if result.CoherenceScore != 100 {
		t.Errorf("Expected score 100, got %d", result.CoherenceScore)
	}
	if result.Category != models.CategoryPerfect {
		t.Errorf("Expected perfect category, got %s", result.Category)
	}
	if !result.IsCoherent {
		t.Error("Expected coherent result")
	}
	if len(result.Strengths) == 0 {
		t.Error("Expected strengths recorded")
	}
}

func TestValidate_HeuristicPenalties(t *testing.T) {
	tests := []struct {
		name             string
		text             string
		expectedScore    int
		expectedCategory string
	}{
		{
			// 145 chars, one emoji against an emoji-none profile: 100-15.
			name:             "emoji against none",
			text:             strings.Repeat("a", 143) + " 🚀",
			expectedScore:    85,
			expectedCategory: models.CategoryGood,
		},
		{
			// 40 chars vs avg 150 is a >0.5 deviation: 100-20.
			name:             "length far off",
			text:             strings.Repeat("a", 40),
			expectedScore:    80,
			expectedCategory: models.CategoryGood,
		},
		{
			// 100 chars is a ~0.33 deviation: 100-10.
			name:             "length drifting",
			text:             strings.Repeat("a", 100),
			expectedScore:    90,
			expectedCategory: models.CategoryPerfect,
		},
		{
			// Both penalties stack: 100-20-15.
			name:             "short and emoji",
			text:             "hi 🚀",
			expectedScore:    65,
			expectedCategory: models.CategoryAcceptable,
		},
	}

	validator := NewBrandValidator(&fakeGenerator{}, testSettingsStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.Validate(context.Background(), tt.text, validatorProfile(), nil)
			if result.CoherenceScore != tt.expectedScore {
				t.Errorf("Expected score %d, got %d", tt.expectedScore, result.CoherenceScore)
			}
			if result.Category != tt.expectedCategory {
				t.Errorf("Expected category %s, got %s", tt.expectedCategory, result.Category)
			}
		})
	}
}

func TestValidate_HeavyEmojiProfileWantsEmojis(t *testing.T) {
	profile := validatorProfile()
	profile.EmojiUsage = models.EmojiHeavy

	validator := NewBrandValidator(&fakeGenerator{}, testSettingsStore())
	result := validator.Validate(context.Background(), strings.Repeat("a", 150), profile, nil)

	if result.CoherenceScore != 90 {
		t.Errorf("Expected score 90 for missing emojis, got %d", result.CoherenceScore)
	}
}

func TestValidate_ModelPathWithBrandVoice(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{raw: `{"isCoherent": true, "coherenceScore": 82, "violations": [], "strengths": ["on message"], "feedback": "Solid."}`},
	}}
	validator := NewBrandValidator(gen, testSettingsStore())

	accountContext := &models.AccountContext{
		AccountID:  "acct-1",
		BrandVoice: "bold, direct, technical",
	}
	result := validator.Validate(context.Background(), "some post", validatorProfile(), accountContext)

	if gen.callCount() != 1 {
		t.Fatalf("Expected a model call with brand voice present, got %d", gen.callCount())
	}
	if result.CoherenceScore != 82 {
		t.Errorf("Expected model score 82, got %d", result.CoherenceScore)
	}
	if result.Category != models.CategoryGood {
		t.Errorf("Expected good category, got %s", result.Category)
	}
}

func TestValidate_ModelFailureFallsBackToHeuristic(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: errors.New("upstream down")},
	}}
	validator := NewBrandValidator(gen, testSettingsStore())

	accountContext := &models.AccountContext{
		AccountID:  "acct-1",
		BrandVoice: "bold",
	}
	text := strings.Repeat("a", 150)
	result := validator.Validate(context.Background(), text, validatorProfile(), accountContext)

	// Heuristic result: length match, no emojis against emoji-none profile.
	if result.CoherenceScore != 100 {
		t.Errorf("Expected heuristic fallback score 100, got %d", result.CoherenceScore)
	}
}

func TestValidate_NoBrandVoiceSkipsModel(t *testing.T) {
	gen := &fakeGenerator{}
	validator := NewBrandValidator(gen, testSettingsStore())

	accountContext := &models.AccountContext{AccountID: "acct-1"}
	validator.Validate(context.Background(), "post", validatorProfile(), accountContext)

	if gen.callCount() != 0 {
		t.Errorf("Expected no model call without brand voice, got %d", gen.callCount())
	}
}

func TestCountEmojis(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"no emojis here", 0},
		{"ship it 🚀", 1},
		{"🎉🎉 twice", 2},
		{"sun ☀ and heart ❤", 2},
	}
	for _, tt := range tests {
		if got := countEmojis(tt.input); got != tt.expected {
			t.Errorf("countEmojis(%q) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}
