package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"castor/internal/models"
	"castor/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SuggestionHandler handles the writing-assistant API endpoints.
type SuggestionHandler struct {
	profileService  *services.ProfileService
	generation      *services.GenerationService
	translation     *services.TranslationService
	validator       *services.BrandValidator
	accountContexts *services.AccountContextService
	usageLimiter    *services.UsageLimiterService
	defaultMaxChars int
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(
	profileService *services.ProfileService,
	generation *services.GenerationService,
	translation *services.TranslationService,
	validator *services.BrandValidator,
	accountContexts *services.AccountContextService,
	usageLimiter *services.UsageLimiterService,
	defaultMaxChars int,
) *SuggestionHandler {
	return &SuggestionHandler{
		profileService:  profileService,
		generation:      generation,
		translation:     translation,
		validator:       validator,
		accountContexts: accountContexts,
		usageLimiter:    usageLimiter,
		defaultMaxChars: defaultMaxChars,
	}
}

type suggestionRequest struct {
	Mode     string `json:"mode"`
	MaxChars int    `json:"maxChars"`
	Context  struct {
		ReplyingTo     string `json:"replyingTo"`
		QuotingCast    string `json:"quotingCast"`
		CurrentDraft   string `json:"currentDraft"`
		Topic          string `json:"topic"`
		TargetTone     string `json:"targetTone"`
		TargetLanguage string `json:"targetLanguage"`
		TargetPlatform string `json:"targetPlatform"`
		AccountID      string `json:"accountId"`
	} `json:"context"`
}

// GenerateSuggestions produces style-matched writing suggestions
// POST /api/v1/suggestions
func (h *SuggestionHandler) GenerateSuggestions(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	fid, _ := c.Locals("fid").(int64)
	isPro, _ := c.Locals("is_pro").(bool)

	var req suggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	mode := models.GenerationMode(req.Mode)
	if !mode.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown generation mode: " + req.Mode,
		})
	}

	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = h.defaultMaxChars
	}

	if err := h.usageLimiter.CheckAndIncrement(c.Context(), userID); err != nil {
		var limitErr *services.LimitExceededError
		if errors.As(err, &limitErr) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":    limitErr.Message,
				"limit":    limitErr.Limit,
				"used":     limitErr.Used,
				"reset_at": limitErr.ResetAt.Format(time.RFC3339),
			})
		}
		log.Printf("⚠️ [SUGGEST-API] Usage check failed, allowing request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	profile, err := h.profileService.GetOrCreate(ctx, userID, fid)
	if err != nil {
		log.Printf("❌ [SUGGEST-API] Failed to load profile: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load style profile",
		})
	}

	sctx := &models.SuggestionContext{
		ReplyingTo:     req.Context.ReplyingTo,
		QuotingCast:    req.Context.QuotingCast,
		CurrentDraft:   req.Context.CurrentDraft,
		Topic:          req.Context.Topic,
		TargetTone:     req.Context.TargetTone,
		TargetLanguage: req.Context.TargetLanguage,
		TargetPlatform: req.Context.TargetPlatform,
	}
	if req.Context.AccountID != "" {
		sctx.AccountContext = h.accountContexts.Get(ctx, req.Context.AccountID)
	}

	suggestions, err := h.generation.GenerateSuggestions(ctx, mode, profile, sctx, maxChars, isPro)
	if err != nil {
		return h.generationError(c, err)
	}

	return c.JSON(fiber.Map{
		"suggestions": suggestions,
		"mode":        string(mode),
		"profile": fiber.Map{
			"tone":       profile.Tone,
			"avgLength":  profile.AvgLength,
			"emojiUsage": profile.EmojiUsage,
			"language":   profile.LanguagePreference,
			"analyzedAt": profile.AnalyzedAt.Format(time.RFC3339),
		},
	})
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

// Translate converts final text into another supported language
// POST /api/v1/translate
func (h *SuggestionHandler) Translate(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	translated, err := h.translation.Translate(ctx, req.Text, req.TargetLanguage)
	if err != nil {
		return h.generationError(c, err)
	}

	return c.JSON(fiber.Map{
		"translatedText": translated,
		"targetLanguage": req.TargetLanguage,
	})
}

type validateRequest struct {
	Text      string `json:"text"`
	AccountID string `json:"accountId"`
}

// ValidateBrand scores a draft against the author's style and brand voice
// POST /api/v1/validate
func (h *SuggestionHandler) ValidateBrand(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	fid, _ := c.Locals("fid").(int64)

	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	profile, err := h.profileService.GetOrCreate(ctx, userID, fid)
	if err != nil {
		log.Printf("❌ [SUGGEST-API] Failed to load profile: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load style profile",
		})
	}

	var accountContext *models.AccountContext
	if req.AccountID != "" {
		accountContext = h.accountContexts.Get(ctx, req.AccountID)
	}

	result := h.validator.Validate(ctx, req.Text, profile, accountContext)

	return c.JSON(result)
}

// GetProfile returns the caller's current style profile
// GET /api/v1/profile
func (h *SuggestionHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	fid, _ := c.Locals("fid").(int64)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profile, err := h.profileService.GetOrCreate(ctx, userID, fid)
	if err != nil {
		log.Printf("❌ [SUGGEST-API] Failed to load profile: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load style profile",
		})
	}

	return c.JSON(fiber.Map{
		"profile": fiber.Map{
			"tone":               profile.Tone,
			"avgLength":          profile.AvgLength,
			"commonPhrases":      profile.CommonPhrases,
			"topics":             profile.Topics,
			"emojiUsage":         profile.EmojiUsage,
			"languagePreference": profile.LanguagePreference,
			"analyzedAt":         profile.AnalyzedAt.Format(time.RFC3339),
		},
	})
}

// generationError maps service errors onto HTTP responses.
func (h *SuggestionHandler) generationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Model provider rate limit reached, try again shortly",
		})
	case errors.Is(err, services.ErrUnsupportedLanguage),
		errors.Is(err, services.ErrMissingDraft):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrMissingAPIKey):
		log.Printf("❌ [SUGGEST-API] Model provider not configured: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Writing assistant is not configured",
		})
	default:
		log.Printf("❌ [SUGGEST-API] Generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate suggestions",
		})
	}
}
