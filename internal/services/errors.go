package services

import (
	"errors"
	"strings"
)

// Sentinel errors for the orchestration engine. Callers branch on these with
// errors.Is; everything else is wrapped context.
var (
	// ErrMissingAPIKey means the model service credentials are not configured.
	// Fatal at call time, never retried.
	ErrMissingAPIKey = errors.New("model API key is not configured")

	// ErrRateLimited marks rate-limit/quota failures from the model service
	// so callers can apply backoff. Chunked translation re-throws it as-is.
	ErrRateLimited = errors.New("model rate limit or quota exceeded")

	// ErrUnsupportedLanguage rejects target language codes outside the registry.
	ErrUnsupportedLanguage = errors.New("unsupported target language")

	// ErrMissingDraft rejects improve/humanize calls without a current draft.
	ErrMissingDraft = errors.New("current draft is required for this mode")

	// ErrNoSuggestions means the model returned nothing usable after filtering.
	ErrNoSuggestions = errors.New("model returned no usable suggestions")
)

// isRateLimitMessage reports whether an upstream error body or message
// indicates a rate-limit/quota condition.
func isRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit")
}
