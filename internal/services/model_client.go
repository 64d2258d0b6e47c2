package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"castor/internal/config"
)

// GenerateOptions configures a single model call.
type GenerateOptions struct {
	Model             string         // model id; empty means the default tier
	SystemInstruction string         // optional system message
	Schema            map[string]any // JSON schema for constrained output; nil for plain text
	SchemaName        string         // name for the schema envelope
	Temperature       float64
	TopP              float64
	MaxOutputTokens   int
}

// Generator is the opaque text-completion service the engine orchestrates.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// ModelSettingsStore holds the current model tier settings. Writes come from
// the fsnotify watcher in main; reads happen on every model call.
type ModelSettingsStore struct {
	settings atomic.Pointer[config.ModelSettings]
}

// NewModelSettingsStore creates a store seeded with the given settings.
func NewModelSettingsStore(settings *config.ModelSettings) *ModelSettingsStore {
	store := &ModelSettingsStore{}
	store.Set(settings)
	return store
}

// Get returns the current settings.
func (s *ModelSettingsStore) Get() *config.ModelSettings {
	return s.settings.Load()
}

// Set swaps in new settings.
func (s *ModelSettingsStore) Set(settings *config.ModelSettings) {
	s.settings.Store(settings)
}

// LLMClient calls an OpenAI-compatible chat-completions endpoint, with
// strict JSON-schema response mode when a schema is supplied.
type LLMClient struct {
	baseURL    string
	apiKey     string
	settings   *ModelSettingsStore
	httpClient *http.Client
}

// NewLLMClient creates a model client for the given endpoint.
func NewLLMClient(baseURL, apiKey string, settings *ModelSettingsStore) *LLMClient {
	return &LLMClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		settings: settings,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate issues one completion call and returns the raw message content.
func (c *LLMClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	current := c.settings.Get()

	model := opts.Model
	if model == "" {
		model = current.Default
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = current.Temperature
	}
	topP := opts.TopP
	if topP == 0 {
		topP = current.TopP
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = current.MaxOutputTokens
	}

	messages := []map[string]string{
		{"role": "user", "content": prompt},
	}
	if opts.SystemInstruction != "" {
		messages = append([]map[string]string{
			{"role": "system", "content": opts.SystemInstruction},
		}, messages...)
	}

	requestBody := map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"stream":      false,
		"temperature": temperature,
		"top_p":       topP,
		"max_tokens":  maxTokens,
	}

	if opts.Schema != nil {
		schemaName := opts.SchemaName
		if schemaName == "" {
			schemaName = "response"
		}
		requestBody["response_format"] = map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   schemaName,
				"strict": true,
				"schema": opts.Schema,
			},
		}
	}

	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyStr := string(body)
		if resp.StatusCode == http.StatusTooManyRequests || isRateLimitMessage(bodyStr) {
			log.Printf("⚠️ [LLM] Rate limited by provider (model %s, status %d)", model, resp.StatusCode)
			return "", fmt.Errorf("model %s (status %d): %w", model, resp.StatusCode, ErrRateLimited)
		}
		return "", fmt.Errorf("model request failed with status %d: %s", resp.StatusCode, bodyStr)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}

	return apiResponse.Choices[0].Message.Content, nil
}
