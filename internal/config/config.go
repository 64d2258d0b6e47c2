package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string // "production" or "development"

	MongoURI    string
	MongoDBName string
	RedisURL    string

	JWTSecret string

	// Social source (Farcaster hub API)
	NeynarBaseURL string
	NeynarAPIKey  string

	// Model service (OpenAI-compatible endpoint)
	LLMBaseURL string
	LLMAPIKey  string

	// Path to the hot-reloadable model settings JSON
	ModelSettingsPath string

	// Engine tuning
	ProfileStalenessDays   int           // 7 in production, 30 in development
	ContextCacheTTL        time.Duration // account-context cache TTL
	AnalysisMaxPromptChars int           // ceiling for the style-analysis prompt
	DailySuggestionLimit   int           // per-user daily cap enforced at the handler layer
}

// fileOverlay mirrors the optional config.yaml. Env vars win over the file.
type fileOverlay struct {
	Port                   string `yaml:"port"`
	MongoDBName            string `yaml:"mongo_db_name"`
	ProfileStalenessDays   int    `yaml:"profile_staleness_days"`
	ContextCacheTTLMinutes int    `yaml:"context_cache_ttl_minutes"`
	AnalysisMaxPromptChars int    `yaml:"analysis_max_prompt_chars"`
	DailySuggestionLimit   int    `yaml:"daily_suggestion_limit"`
}

// Load loads configuration from environment variables with defaults,
// applying values from an optional config.yaml first.
func Load() *Config {
	overlay := loadOverlay(getEnv("CONFIG_FILE", "config.yaml"))

	env := strings.ToLower(getEnv("ENVIRONMENT", "development"))

	stalenessDefault := 30
	if env == "production" {
		stalenessDefault = 7
	}
	if overlay.ProfileStalenessDays > 0 {
		stalenessDefault = overlay.ProfileStalenessDays
	}

	cacheTTLMinutes := 5
	if overlay.ContextCacheTTLMinutes > 0 {
		cacheTTLMinutes = overlay.ContextCacheTTLMinutes
	}

	analysisMaxChars := 8000
	if overlay.AnalysisMaxPromptChars > 0 {
		analysisMaxChars = overlay.AnalysisMaxPromptChars
	}

	dailyLimit := 100
	if overlay.DailySuggestionLimit > 0 {
		dailyLimit = overlay.DailySuggestionLimit
	}

	return &Config{
		Port:        getEnv("PORT", firstNonEmpty(overlay.Port, "3001")),
		Environment: env,

		MongoURI:    getEnv("MONGODB_URI", ""),
		MongoDBName: getEnv("MONGODB_DB", firstNonEmpty(overlay.MongoDBName, "castor")),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		NeynarBaseURL: getEnv("NEYNAR_BASE_URL", "https://api.neynar.com"),
		NeynarAPIKey:  getEnv("NEYNAR_API_KEY", ""),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),

		ModelSettingsPath: getEnv("MODEL_SETTINGS_PATH", "models.json"),

		ProfileStalenessDays:   getIntEnv("PROFILE_STALENESS_DAYS", stalenessDefault),
		ContextCacheTTL:        time.Duration(getIntEnv("CONTEXT_CACHE_TTL_MINUTES", cacheTTLMinutes)) * time.Minute,
		AnalysisMaxPromptChars: getIntEnv("ANALYSIS_MAX_PROMPT_CHARS", analysisMaxChars),
		DailySuggestionLimit:   getIntEnv("DAILY_SUGGESTION_LIMIT", dailyLimit),
	}
}

// ProfileMaxAge returns the staleness threshold as a duration.
func (c *Config) ProfileMaxAge() time.Duration {
	return time.Duration(c.ProfileStalenessDays) * 24 * time.Hour
}

// ModelSettings selects the model id per tier. The file is watched with
// fsnotify in main so operators can swap models without a restart.
type ModelSettings struct {
	Default             string  `json:"default"`
	Pro                 string  `json:"pro"`
	Translation         string  `json:"translation"`
	TranslationFallback string  `json:"translationFallback"`
	Temperature         float64 `json:"temperature"`
	TopP                float64 `json:"topP"`
	MaxOutputTokens     int     `json:"maxOutputTokens"`
}

// DefaultModelSettings returns the settings used when no models.json exists.
func DefaultModelSettings() *ModelSettings {
	return &ModelSettings{
		Default:             "gemini-2.5-flash",
		Pro:                 "gemini-2.5-pro",
		Translation:         "gemini-2.5-flash",
		TranslationFallback: "gemini-2.0-flash",
		Temperature:         0.8,
		TopP:                0.95,
		MaxOutputTokens:     2048,
	}
}

// LoadModelSettings loads model settings from a JSON file, filling missing
// fields from the defaults.
func LoadModelSettings(filePath string) (*ModelSettings, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model settings file: %w", err)
	}

	settings := DefaultModelSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse model settings JSON: %w", err)
	}

	return settings, nil
}

func loadOverlay(filePath string) fileOverlay {
	var overlay fileOverlay
	data, err := os.ReadFile(filePath)
	if err != nil {
		return overlay // optional file
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fileOverlay{}
	}
	return overlay
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
