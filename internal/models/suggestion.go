package models

// GenerationMode selects the prompt template, suggestion count and retry
// policy for one assistant call.
type GenerationMode string

const (
	ModeWrite     GenerationMode = "write"
	ModeImprove   GenerationMode = "improve"
	ModeHumanize  GenerationMode = "humanize"
	ModeTranslate GenerationMode = "translate"
)

// Valid reports whether m is one of the known generation modes.
func (m GenerationMode) Valid() bool {
	switch m {
	case ModeWrite, ModeImprove, ModeHumanize, ModeTranslate:
		return true
	}
	return false
}

// SuggestionCount returns how many suggestions the mode asks the model for.
func (m GenerationMode) SuggestionCount() int {
	if m == ModeWrite {
		return 3
	}
	return 2
}

// SuggestionContext carries request-scoped inputs for one generation call.
// It is never persisted.
type SuggestionContext struct {
	ReplyingTo     string          `json:"replying_to,omitempty"`  // excerpt of the cast being replied to
	QuotingCast    string          `json:"quoting_cast,omitempty"` // excerpt of the cast being quoted
	CurrentDraft   string          `json:"current_draft,omitempty"`
	Topic          string          `json:"topic,omitempty"`
	TargetTone     string          `json:"target_tone,omitempty"`
	TargetLanguage string          `json:"target_language,omitempty"`
	TargetPlatform string          `json:"target_platform,omitempty"`
	AccountContext *AccountContext `json:"-"`
}
