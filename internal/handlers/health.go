package handlers

import (
	"context"
	"time"

	"castor/internal/database"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports service liveness and database connectivity.
type HealthHandler struct {
	db *database.MongoDB
}

func NewHealthHandler(db *database.MongoDB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check returns overall health
// GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "disconnected"
	}

	status := fiber.StatusOK
	if dbStatus != "connected" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   "ok",
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
