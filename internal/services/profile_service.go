package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"castor/internal/database"
	"castor/internal/models"
)

const (
	// refreshFetchLimit is how many recent casts (including recasts) one
	// refresh pulls from the social source.
	refreshFetchLimit = 25

	// minCastLength discards trivial casts before analysis.
	minCastLength = 10

	// minUsableCasts is the smallest batch worth a model call; below it the
	// default profile is persisted instead.
	minUsableCasts = 5

	// refreshTimeout bounds one background refresh end to end.
	refreshTimeout = 2 * time.Minute
)

// profileAnalysisSchema is the JSON-schema contract for the style-analysis
// model call. powerPhrases and contentPatterns are advisory and not persisted.
var profileAnalysisSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"tone": map[string]interface{}{
			"type": "string",
			"enum": []string{"casual", "formal", "technical", "humorous", "mixed"},
		},
		"avgLength": map[string]interface{}{"type": "integer"},
		"commonPhrases": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"topics": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"emojiUsage": map[string]interface{}{
			"type": "string",
			"enum": []string{"none", "light", "heavy"},
		},
		"languagePreference": map[string]interface{}{
			"type": "string",
			"enum": []string{"en", "es", "mixed"},
		},
		"powerPhrases": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"contentPatterns": map[string]interface{}{"type": "string"},
	},
	"required":             []string{"tone", "avgLength", "commonPhrases", "topics", "emojiUsage", "languagePreference"},
	"additionalProperties": false,
}

// ProfileService owns the lifecycle of style profiles: lazy creation,
// freshness checks and deduplicated background refresh. GetOrCreate never
// blocks on a model call.
type ProfileService struct {
	repo           database.ProfileRepository
	social         SocialClient
	generator      Generator
	settings       *ModelSettingsStore
	maxAge         time.Duration
	maxPromptChars int

	mu       sync.Mutex
	inflight map[string]struct{} // userID:fid -> refresh running
}

// NewProfileService creates the profile store.
func NewProfileService(
	repo database.ProfileRepository,
	social SocialClient,
	generator Generator,
	settings *ModelSettingsStore,
	maxAge time.Duration,
	maxPromptChars int,
) *ProfileService {
	return &ProfileService{
		repo:           repo,
		social:         social,
		generator:      generator,
		settings:       settings,
		maxAge:         maxAge,
		maxPromptChars: maxPromptChars,
		inflight:       make(map[string]struct{}),
	}
}

// GetOrCreate returns the user's profile immediately. A stale or missing
// profile additionally schedules a fire-and-forget background refresh; a
// brand-new user receives a synthetic default until the first analysis
// lands.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID string, fid int64) (*models.StyleProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load style profile: %w", err)
	}

	if profile != nil {
		if profile.IsStale(s.maxAge) {
			s.scheduleRefresh(userID, fid)
		}
		return profile, nil
	}

	s.scheduleRefresh(userID, fid)
	return models.DefaultStyleProfile(userID, fid), nil
}

// scheduleRefresh starts a background refresh unless one is already running
// for the same userID:fid key. The in-flight marker is cleared on every
// exit path; failures are logged, never surfaced to the caller that
// triggered them.
func (s *ProfileService) scheduleRefresh(userID string, fid int64) {
	key := fmt.Sprintf("%s:%d", userID, fid)

	s.mu.Lock()
	if _, running := s.inflight[key]; running {
		s.mu.Unlock()
		return
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inflight, key)
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := s.refresh(ctx, userID, fid); err != nil {
			recordProfileRefresh("failed")
			log.Printf("⚠️ [PROFILE] Background refresh failed for user %s: %v", userID, err)
		}
	}()
}

// RefreshStale schedules refreshes for up to limit profiles past the
// staleness threshold. Used by the nightly sweep job.
func (s *ProfileService) RefreshStale(ctx context.Context, limit int64) (int, error) {
	cutoff := time.Now().Add(-s.maxAge)
	stale, err := s.repo.FindStale(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale profiles: %w", err)
	}

	for _, profile := range stale {
		s.scheduleRefresh(profile.UserID, profile.FID)
	}
	return len(stale), nil
}

// refresh re-derives the profile from recent casts. A model-call failure
// leaves the previous profile untouched (it will be retried on the next
// stale read); an analysis parse failure persists the defaults with a fresh
// analyzedAt so the refresh does not spin indefinitely.
func (s *ProfileService) refresh(ctx context.Context, userID string, fid int64) error {
	casts, err := s.social.FetchRecentCasts(ctx, fid, refreshFetchLimit, true)
	if err != nil {
		return fmt.Errorf("failed to fetch casts: %w", err)
	}

	usable := make([]models.Cast, 0, len(casts))
	for _, cast := range casts {
		if utf8.RuneCountInString(strings.TrimSpace(cast.Text)) >= minCastLength {
			usable = append(usable, cast)
		}
	}

	profile := models.DefaultStyleProfile(userID, fid)
	profile.SampleCasts = sampleTexts(usable, models.MaxSampleCasts)

	if len(usable) < minUsableCasts {
		log.Printf("📭 [PROFILE] Only %d usable casts for user %s, persisting default profile", len(usable), userID)
		recordProfileRefresh("default")
		return s.repo.UpsertByUserID(ctx, userID, profile)
	}

	raw, err := s.generator.Generate(ctx, s.buildAnalysisPrompt(usable), GenerateOptions{
		Model:       s.settings.Get().Default,
		Schema:      profileAnalysisSchema,
		SchemaName:  "style_analysis",
		Temperature: 0.3,
	})
	if err != nil {
		return fmt.Errorf("style analysis call failed: %w", err)
	}

	var analysis models.ProfileAnalysis
	if jsonErr := json.Unmarshal([]byte(raw), &analysis); jsonErr != nil {
		// Best-effort pipeline: keep the defaults but still advance
		// analyzedAt and sampleCasts below.
		log.Printf("⚠️ [PROFILE] Analysis parse failed for user %s, keeping defaults (response length: %d bytes): %v", userID, len(raw), jsonErr)
	} else {
		analysis.ApplyTo(profile)
	}

	profile.EngagementInsights = engagementInsights(profile.Topics, usable)
	profile.AnalyzedAt = time.Now()

	if err := s.repo.UpsertByUserID(ctx, userID, profile); err != nil {
		return err
	}

	recordProfileRefresh("analyzed")
	log.Printf("🧠 [PROFILE] Refreshed profile for user %s from %d casts (tone=%s, avg=%d)", userID, len(usable), profile.Tone, profile.AvgLength)
	return nil
}

// buildAnalysisPrompt renders the numbered cast batch, stopping before the
// prompt exceeds the configured ceiling.
func (s *ProfileService) buildAnalysisPrompt(casts []models.Cast) string {
	var sb strings.Builder
	sb.WriteString("Analyze the writing style of these posts by one author. ")
	sb.WriteString("Derive the tone, average length in characters, common phrases, recurring topics, emoji usage and language preference.\n\nPOSTS:\n")

	total := utf8.RuneCountInString(sb.String())
	for i, cast := range casts {
		line := fmt.Sprintf("%d. %s\n", i+1, cast.Text)
		lineLen := utf8.RuneCountInString(line)
		if total+lineLen > s.maxPromptChars {
			break
		}
		sb.WriteString(line)
		total += lineLen
	}
	return sb.String()
}

// sampleTexts returns up to limit cast texts, most recent first.
func sampleTexts(casts []models.Cast, limit int) []string {
	texts := make([]string, 0, limit)
	for _, cast := range casts {
		if len(texts) == limit {
			break
		}
		texts = append(texts, cast.Text)
	}
	return texts
}

// engagementInsights collects per-topic engagement scores from the analyzed
// casts, giving the prompt builder its high-engagement bias signal.
func engagementInsights(topics []string, casts []models.Cast) []models.TopicEngagement {
	var insights []models.TopicEngagement
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		var scores []float64
		lowered := strings.ToLower(topic)
		for _, cast := range casts {
			if strings.Contains(strings.ToLower(cast.Text), lowered) {
				scores = append(scores, float64(cast.Likes+cast.Recasts*2+cast.Replies))
			}
		}
		if len(scores) > 0 {
			insights = append(insights, models.TopicEngagement{Topic: topic, Scores: scores})
		}
	}
	return insights
}
