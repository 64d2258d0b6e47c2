package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"castor/internal/models"
)

// PromptBuilder composes the system context and mode-specific user prompts
// from a style profile, an optional account context and the request-scoped
// suggestion context.
type PromptBuilder struct {
	registry *LanguageRegistry
}

// NewPromptBuilder creates a prompt builder backed by the language registry.
func NewPromptBuilder(registry *LanguageRegistry) *PromptBuilder {
	return &PromptBuilder{registry: registry}
}

// ResolveWritingLanguage picks the output language for a generation call.
// An explicit request must be a supported code — an unknown code is a hard
// error, never a silent fallback. Without a request the profile preference
// wins, except "mixed" which defaults to English.
func (b *PromptBuilder) ResolveWritingLanguage(requested, preference string) (string, error) {
	if requested != "" {
		if !b.registry.IsSupported(requested) {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, requested)
		}
		return requested, nil
	}
	if preference == "" || preference == models.LangMixed {
		return models.LangEnglish, nil
	}
	return preference, nil
}

// BuildSystemContext renders the persistent half of the prompt: the author's
// writing fingerprint plus the optional brand overlay.
func (b *PromptBuilder) BuildSystemContext(profile *models.StyleProfile, maxChars int, accountContext *models.AccountContext) string {
	var sb strings.Builder

	sb.WriteString("You are a ghostwriter for one specific author on a social network. ")
	sb.WriteString("Every suggestion must sound like the author wrote it themselves.\n\n")

	sb.WriteString("AUTHOR STYLE:\n")
	sb.WriteString(fmt.Sprintf("- Tone: %s\n", profile.Tone))
	sb.WriteString(fmt.Sprintf("- Typical post length: ~%d characters\n", profile.AvgLength))
	if len(profile.CommonPhrases) > 0 {
		sb.WriteString(fmt.Sprintf("- Common phrases: %s\n", strings.Join(profile.CommonPhrases, ", ")))
	}
	if len(profile.Topics) > 0 {
		sb.WriteString(fmt.Sprintf("- Usual topics: %s\n", strings.Join(profile.Topics, ", ")))
	}
	sb.WriteString(fmt.Sprintf("- Emoji usage: %s\n", profile.EmojiUsage))
	sb.WriteString(fmt.Sprintf("- Language preference: %s\n", profile.LanguagePreference))

	if len(profile.SampleCasts) > 0 {
		sb.WriteString("\nRECENT POSTS BY THE AUTHOR:\n")
		for i, sample := range profile.SampleCasts {
			if i >= 2 {
				break
			}
			sb.WriteString(fmt.Sprintf("%d. %q\n", i+1, sample))
		}
	}

	if topics := topEngagementTopics(profile.EngagementInsights, 3); len(topics) > 0 {
		sb.WriteString(fmt.Sprintf("\nTopics that historically get high engagement: %s. ", strings.Join(topics, ", ")))
		sb.WriteString("Lean toward these when choosing what to write about — a bias, not a requirement.\n")
	}

	sb.WriteString(fmt.Sprintf("\nHard rule: maximum %d characters per suggestion.\n", maxChars))

	if accountContext != nil {
		b.appendAccountContext(&sb, accountContext)
	}

	return sb.String()
}

// appendAccountContext writes the brand overlay in fixed order. The NEVER
// list is repeated as a closing rule; the duplication is intentional
// reinforcement.
func (b *PromptBuilder) appendAccountContext(sb *strings.Builder, accountContext *models.AccountContext) {
	sb.WriteString("\nBRAND CONTEXT:\n")
	if accountContext.BrandVoice != "" {
		sb.WriteString(fmt.Sprintf("- Brand voice: %s\n", accountContext.BrandVoice))
	}
	if accountContext.Bio != "" {
		sb.WriteString(fmt.Sprintf("- Bio: %s\n", accountContext.Bio))
	}
	if len(accountContext.Expertise) > 0 {
		sb.WriteString(fmt.Sprintf("- Expertise: %s\n", strings.Join(accountContext.Expertise, ", ")))
	}
	if len(accountContext.AlwaysDo) > 0 {
		sb.WriteString(fmt.Sprintf("- Always: %s\n", strings.Join(accountContext.AlwaysDo, "; ")))
	}
	if len(accountContext.NeverDo) > 0 {
		sb.WriteString(fmt.Sprintf("- Never: %s\n", strings.Join(accountContext.NeverDo, "; ")))
	}
	if len(accountContext.Hashtags) > 0 {
		sb.WriteString(fmt.Sprintf("- Preferred hashtags: %s\n", strings.Join(accountContext.Hashtags, " ")))
	}
	if len(accountContext.NeverDo) > 0 {
		sb.WriteString(fmt.Sprintf("\nIMPORTANT: never do the following: %s\n", strings.Join(accountContext.NeverDo, "; ")))
	}
}

// BuildUserPrompt renders the mode-specific half of the prompt.
func (b *PromptBuilder) BuildUserPrompt(mode models.GenerationMode, sctx *models.SuggestionContext, maxChars int, languagePreference string, count int) (string, error) {
	language, err := b.ResolveWritingLanguage(sctx.TargetLanguage, languagePreference)
	if err != nil {
		return "", err
	}
	languageName, err := b.registry.LanguageName(language)
	if err != nil {
		return "", err
	}

	switch mode {
	case models.ModeWrite:
		return b.buildWritePrompt(sctx, maxChars, languageName, count), nil
	case models.ModeImprove:
		return b.buildImprovePrompt(sctx, maxChars, languageName, count)
	case models.ModeHumanize:
		return b.buildHumanizePrompt(sctx, maxChars, languageName, count)
	case models.ModeTranslate:
		return b.buildTranslatePreviewPrompt(sctx, languageName)
	default:
		return "", fmt.Errorf("unknown generation mode %q", mode)
	}
}

func (b *PromptBuilder) buildWritePrompt(sctx *models.SuggestionContext, maxChars int, languageName string, count int) string {
	var sb strings.Builder

	if sctx.ReplyingTo != "" {
		sb.WriteString(fmt.Sprintf("Write a reply to this post:\n%q\n\n", sctx.ReplyingTo))
	} else if sctx.QuotingCast != "" {
		sb.WriteString(fmt.Sprintf("Write a quote post commenting on:\n%q\n\n", sctx.QuotingCast))
	} else {
		sb.WriteString("Write a new post.\n\n")
	}

	if sctx.Topic != "" {
		sb.WriteString(fmt.Sprintf("Topic: %s\n", sctx.Topic))
	}
	if sctx.TargetTone != "" {
		sb.WriteString(fmt.Sprintf("Desired tone: %s\n", sctx.TargetTone))
	}

	sb.WriteString(fmt.Sprintf("\nGenerate exactly %d options (max %d characters each). Write in %s.", count, maxChars, languageName))
	return sb.String()
}

func (b *PromptBuilder) buildImprovePrompt(sctx *models.SuggestionContext, maxChars int, languageName string, count int) (string, error) {
	if strings.TrimSpace(sctx.CurrentDraft) == "" {
		return "", fmt.Errorf("%w: improve", ErrMissingDraft)
	}

	draftLen := utf8.RuneCountInString(sctx.CurrentDraft)
	minChars := computeImproveMinChars(draftLen, maxChars)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Improve this draft:\n%q\n\n", sctx.CurrentDraft))

	if sctx.TargetTone != "" {
		sb.WriteString(fmt.Sprintf("Desired tone: %s\n", sctx.TargetTone))
	}
	sb.WriteString(platformFraming(sctx.TargetPlatform))

	sb.WriteString("Make it clearer, more engaging and more substantial. ")
	sb.WriteString("Improved versions may be LONGER than the draft — add substance, rhythm or a sharper hook where the draft is thin.\n")
	sb.WriteString(fmt.Sprintf("Target at least %d characters per option; never exceed %d characters.\n", minChars, maxChars))
	sb.WriteString(fmt.Sprintf("\nGenerate exactly %d options. Write in %s.", count, languageName))
	return sb.String(), nil
}

func (b *PromptBuilder) buildHumanizePrompt(sctx *models.SuggestionContext, maxChars int, languageName string, count int) (string, error) {
	if strings.TrimSpace(sctx.CurrentDraft) == "" {
		return "", fmt.Errorf("%w: humanize", ErrMissingDraft)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rewrite this text so it reads like a person, not a language model:\n%q\n\n", sctx.CurrentDraft))
	sb.WriteString(platformFraming(sctx.TargetPlatform))
	sb.WriteString("Preserve the meaning exactly and do not invent facts. ")
	sb.WriteString("Cut AI-sounding boilerplate (\"delve\", \"in today's fast-paced world\", symmetric clauses), vary sentence rhythm, and keep the author's voice.\n")
	sb.WriteString(fmt.Sprintf("Max %d characters per option.\n", maxChars))
	sb.WriteString(fmt.Sprintf("\nGenerate exactly %d options. Write in %s.", count, languageName))
	return sb.String(), nil
}

// buildTranslatePreviewPrompt covers only the short-text suggestion path.
// Bulk translation of long text goes through TranslationService and bypasses
// the suggestion schema entirely.
func (b *PromptBuilder) buildTranslatePreviewPrompt(sctx *models.SuggestionContext, languageName string) (string, error) {
	if strings.TrimSpace(sctx.CurrentDraft) == "" {
		return "", fmt.Errorf("%w: translate", ErrMissingDraft)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Translate this post to %s:\n%q\n\n", languageName, sctx.CurrentDraft))
	sb.WriteString("Return two options: first a literal translation, then a natural version a native speaker would post.")
	return sb.String(), nil
}

// platformFraming returns the per-platform style directive for improve and
// humanize prompts.
func platformFraming(platform string) string {
	switch strings.ToLower(platform) {
	case "x", "twitter":
		return "Platform: X — keep it concise and punchy.\n"
	case "linkedin":
		return "Platform: LinkedIn — structured and professional.\n"
	case "":
		return ""
	default:
		return fmt.Sprintf("Platform: %s — use the platform's native cadence.\n", platform)
	}
}

// topEngagementTopics returns up to n topics ranked by mean engagement
// score, descending.
func topEngagementTopics(insights []models.TopicEngagement, n int) []string {
	type ranked struct {
		topic string
		mean  float64
	}

	var rankings []ranked
	for _, insight := range insights {
		if len(insight.Scores) == 0 {
			continue
		}
		sum := 0.0
		for _, score := range insight.Scores {
			sum += score
		}
		rankings = append(rankings, ranked{topic: insight.Topic, mean: sum / float64(len(insight.Scores))})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].mean > rankings[j].mean
	})

	topics := make([]string, 0, n)
	for _, r := range rankings {
		if len(topics) >= n {
			break
		}
		topics = append(topics, r.topic)
	}
	return topics
}
