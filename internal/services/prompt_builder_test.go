package services

import (
	"errors"
	"strings"
	"testing"

	"castor/internal/models"
)

func newTestPromptBuilder() *PromptBuilder {
	return NewPromptBuilder(NewLanguageRegistry())
}

func TestResolveWritingLanguage(t *testing.T) {
	builder := newTestPromptBuilder()

	tests := []struct {
		name       string
		requested  string
		preference string
		expected   string
		wantErr    bool
	}{
		{"explicit supported", "fr", "en", "fr", false},
		{"explicit beats preference", "de", "es", "de", false},
		{"explicit unsupported", "xx", "en", "", true},
		{"preference wins", "", "es", "es", false},
		{"mixed preference defaults to english", "", "mixed", "en", false},
		{"empty preference defaults to english", "", "", "en", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := builder.ResolveWritingLanguage(tt.requested, tt.preference)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedLanguage) {
					t.Fatalf("Expected ErrUnsupportedLanguage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestBuildSystemContext(t *testing.T) {
	builder := newTestPromptBuilder()

	profile := models.DefaultStyleProfile("user-1", 42)
	profile.Tone = models.ToneTechnical
	profile.CommonPhrases = []string{"ship it"}
	profile.SampleCasts = []string{"first sample", "second sample", "third sample"}
	profile.EngagementInsights = []models.TopicEngagement{
		{Topic: "devtools", Scores: []float64{10, 20}},
		{Topic: "coffee", Scores: []float64{90}},
		{Topic: "golang", Scores: []float64{40}},
		{Topic: "weather", Scores: []float64{1}},
	}

	got := builder.BuildSystemContext(profile, 320, nil)

	if !strings.Contains(got, "Tone: technical") {
		t.Error("Missing tone line")
	}
	if !strings.Contains(got, "Hard rule: maximum 320 characters per suggestion.") {
		t.Error("Missing hard character limit")
	}
	if !strings.Contains(got, "first sample") || !strings.Contains(got, "second sample") {
		t.Error("Expected the two most recent samples included")
	}
	if strings.Contains(got, "third sample") {
		t.Error("Expected at most two samples in the context")
	}
	if !strings.Contains(got, "coffee, golang, devtools") {
		t.Error("Expected top engagement topics ranked by mean score")
	}
	if strings.Contains(got, "weather") {
		t.Error("Expected only the top 3 engagement topics")
	}
	if strings.Contains(got, "BRAND CONTEXT") {
		t.Error("Brand context must not appear without an account context")
	}
}

func TestBuildSystemContext_BrandOverlay(t *testing.T) {
	builder := newTestPromptBuilder()
	profile := models.DefaultStyleProfile("user-1", 42)

	accountContext := &models.AccountContext{
		AccountID:  "acct-1",
		BrandVoice: "bold and direct",
		NeverDo:    []string{"mention competitors", "use hashtags"},
	}

	got := builder.BuildSystemContext(profile, 320, accountContext)

	if !strings.Contains(got, "BRAND CONTEXT:") {
		t.Fatal("Missing brand context block")
	}
	if !strings.Contains(got, "Brand voice: bold and direct") {
		t.Error("Missing brand voice line")
	}
	// The never-do list is stated twice, once inline and once as a
	// closing rule.
	if strings.Count(got, "mention competitors") != 2 {
		t.Error("Expected the never-do list repeated as a closing rule")
	}
}

func TestBuildUserPrompt_WriteVariants(t *testing.T) {
	builder := newTestPromptBuilder()

	tests := []struct {
		name     string
		sctx     *models.SuggestionContext
		expected string
	}{
		{"reply", &models.SuggestionContext{ReplyingTo: "original post"}, "Write a reply to this post"},
		{"quote", &models.SuggestionContext{QuotingCast: "quoted post"}, "Write a quote post commenting on"},
		{"fresh", &models.SuggestionContext{Topic: "launch"}, "Write a new post."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := builder.BuildUserPrompt(models.ModeWrite, tt.sctx, 320, "en", 3)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !strings.Contains(got, tt.expected) {
				t.Errorf("Expected %q in prompt:\n%s", tt.expected, got)
			}
			if !strings.Contains(got, "Generate exactly 3 options") {
				t.Error("Missing option count directive")
			}
			if !strings.Contains(got, "Write in English.") {
				t.Error("Missing language directive")
			}
		})
	}
}

func TestBuildUserPrompt_ImproveEmbedsMinTarget(t *testing.T) {
	builder := newTestPromptBuilder()

	sctx := &models.SuggestionContext{CurrentDraft: strings.Repeat("a", 50)}
	got, err := builder.BuildUserPrompt(models.ModeImprove, sctx, 320, "en", 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(got, "Target at least 90 characters per option") {
		t.Errorf("Missing improve length target:\n%s", got)
	}
	if !strings.Contains(got, "never exceed 320 characters") {
		t.Error("Missing ceiling directive")
	}
}

func TestBuildUserPrompt_DraftRequired(t *testing.T) {
	builder := newTestPromptBuilder()

	for _, mode := range []models.GenerationMode{models.ModeImprove, models.ModeHumanize, models.ModeTranslate} {
		_, err := builder.BuildUserPrompt(mode, &models.SuggestionContext{CurrentDraft: "   "}, 320, "en", 2)
		if !errors.Is(err, ErrMissingDraft) {
			t.Errorf("Mode %s: expected ErrMissingDraft, got %v", mode, err)
		}
	}
}

func TestBuildUserPrompt_TargetLanguage(t *testing.T) {
	builder := newTestPromptBuilder()

	sctx := &models.SuggestionContext{Topic: "launch", TargetLanguage: "es"}
	got, err := builder.BuildUserPrompt(models.ModeWrite, sctx, 320, "en", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(got, "Write in Spanish.") {
		t.Errorf("Expected Spanish directive:\n%s", got)
	}
}

func TestPlatformFraming(t *testing.T) {
	tests := []struct {
		platform string
		expected string
	}{
		{"x", "keep it concise and punchy"},
		{"Twitter", "keep it concise and punchy"},
		{"linkedin", "structured and professional"},
		{"", ""},
		{"mastodon", "native cadence"},
	}
	for _, tt := range tests {
		got := platformFraming(tt.platform)
		if tt.expected == "" {
			if got != "" {
				t.Errorf("platformFraming(%q) = %q, expected empty", tt.platform, got)
			}
			continue
		}
		if !strings.Contains(got, tt.expected) {
			t.Errorf("platformFraming(%q) = %q, expected to contain %q", tt.platform, got, tt.expected)
		}
	}
}

func TestTopEngagementTopics_EmptyAndSparse(t *testing.T) {
	if got := topEngagementTopics(nil, 3); len(got) != 0 {
		t.Errorf("Expected no topics for nil insights, got %v", got)
	}

	insights := []models.TopicEngagement{
		{Topic: "empty", Scores: nil},
		{Topic: "scored", Scores: []float64{5}},
	}
	got := topEngagementTopics(insights, 3)
	if len(got) != 1 || got[0] != "scored" {
		t.Errorf("Expected unscored topics skipped, got %v", got)
	}
}
