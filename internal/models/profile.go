package models

import (
	"time"

	"github.com/google/uuid"
)

// Tone constants for StyleProfile.Tone
const (
	ToneCasual    = "casual"
	ToneFormal    = "formal"
	ToneTechnical = "technical"
	ToneHumorous  = "humorous"
	ToneMixed     = "mixed"
)

// EmojiUsage constants
const (
	EmojiNone  = "none"
	EmojiLight = "light"
	EmojiHeavy = "heavy"
)

// LanguagePreference constants
const (
	LangEnglish = "en"
	LangSpanish = "es"
	LangMixed   = "mixed"
)

// MaxSampleCasts bounds the number of recent casts kept on a profile
const MaxSampleCasts = 20

// TopicEngagement pairs a topic with the engagement scores of casts about it.
// Used to bias topic selection toward historically high-engagement subjects.
type TopicEngagement struct {
	Topic  string    `bson:"topic" json:"topic"`
	Scores []float64 `bson:"scores" json:"scores"`
}

// StyleProfile is the derived writing fingerprint of one user.
// Exactly one profile exists per user (unique index on userId).
type StyleProfile struct {
	ID                 string            `bson:"_id" json:"id"`
	UserID             string            `bson:"userId" json:"user_id"`
	FID                int64             `bson:"fid" json:"fid"` // numeric social id
	Tone               string            `bson:"tone" json:"tone"`
	AvgLength          int               `bson:"avgLength" json:"avg_length"` // characters
	CommonPhrases      []string          `bson:"commonPhrases" json:"common_phrases"`
	Topics             []string          `bson:"topics" json:"topics"`
	EmojiUsage         string            `bson:"emojiUsage" json:"emoji_usage"`
	LanguagePreference string            `bson:"languagePreference" json:"language_preference"`
	SampleCasts        []string          `bson:"sampleCasts" json:"sample_casts"` // most-recent-first, <=20
	AnalyzedAt         time.Time         `bson:"analyzedAt" json:"analyzed_at"`
	EngagementInsights []TopicEngagement `bson:"engagementInsights,omitempty" json:"engagement_insights,omitempty"`
}

// DefaultStyleProfile synthesizes the profile returned to brand-new users
// before their first analysis completes.
func DefaultStyleProfile(userID string, fid int64) *StyleProfile {
	return &StyleProfile{
		ID:                 uuid.NewString(),
		UserID:             userID,
		FID:                fid,
		Tone:               ToneCasual,
		AvgLength:          150,
		CommonPhrases:      []string{},
		Topics:             []string{},
		EmojiUsage:         EmojiLight,
		LanguagePreference: LangEnglish,
		SampleCasts:        []string{},
		AnalyzedAt:         time.Now(),
	}
}

// IsStale reports whether the profile needs re-analysis.
func (p *StyleProfile) IsStale(maxAge time.Duration) bool {
	return time.Since(p.AnalyzedAt) > maxAge
}

// ProfileAnalysis is the structured output of the style-analysis model call.
// Every field is optional: the parse is best-effort and present fields are
// merged over the profile's defaults one by one, so a partially valid
// response still contributes what it can.
type ProfileAnalysis struct {
	Tone               *string  `json:"tone,omitempty"`
	AvgLength          *int     `json:"avgLength,omitempty"`
	CommonPhrases      []string `json:"commonPhrases,omitempty"`
	Topics             []string `json:"topics,omitempty"`
	EmojiUsage         *string  `json:"emojiUsage,omitempty"`
	LanguagePreference *string  `json:"languagePreference,omitempty"`

	// Advisory fields returned by the model but not persisted.
	PowerPhrases    []string `json:"powerPhrases,omitempty"`
	ContentPatterns string   `json:"contentPatterns,omitempty"`
}

// ApplyTo merges the analysis into the profile field by field, leaving any
// field the model omitted (or returned with an out-of-range value) untouched.
func (a *ProfileAnalysis) ApplyTo(p *StyleProfile) {
	if a.Tone != nil && validTone(*a.Tone) {
		p.Tone = *a.Tone
	}
	if a.AvgLength != nil && *a.AvgLength > 0 {
		p.AvgLength = *a.AvgLength
	}
	if len(a.CommonPhrases) > 0 {
		p.CommonPhrases = a.CommonPhrases
	}
	if len(a.Topics) > 0 {
		p.Topics = a.Topics
	}
	if a.EmojiUsage != nil && validEmojiUsage(*a.EmojiUsage) {
		p.EmojiUsage = *a.EmojiUsage
	}
	if a.LanguagePreference != nil && validLanguagePreference(*a.LanguagePreference) {
		p.LanguagePreference = *a.LanguagePreference
	}
}

func validTone(t string) bool {
	switch t {
	case ToneCasual, ToneFormal, ToneTechnical, ToneHumorous, ToneMixed:
		return true
	}
	return false
}

func validEmojiUsage(e string) bool {
	switch e {
	case EmojiNone, EmojiLight, EmojiHeavy:
		return true
	}
	return false
}

func validLanguagePreference(l string) bool {
	switch l {
	case LangEnglish, LangSpanish, LangMixed:
		return true
	}
	return false
}
