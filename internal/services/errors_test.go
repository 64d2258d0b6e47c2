package services

import "testing"

func TestIsRateLimitMessage(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"HTTP 429 Too Many Requests", true},
		{"Quota exceeded for model", true},
		{"You hit the rate limit", true},
		{"RATE LIMIT reached", true},
		{"connection refused", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isRateLimitMessage(tt.msg); got != tt.expected {
			t.Errorf("isRateLimitMessage(%q) = %v, expected %v", tt.msg, got, tt.expected)
		}
	}
}
