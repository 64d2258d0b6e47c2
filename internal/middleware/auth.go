package middleware

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims are the JWT claims the upstream web app issues for API calls.
type AuthClaims struct {
	FID  int64  `json:"fid"`
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// extractToken pulls the bearer token out of an Authorization header value.
func extractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("empty authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}

// JWTAuth verifies HS256 bearer tokens and stores the caller's identity in
// request locals. With no secret configured it allows a dev identity —
// production refuses to start without a secret (checked in main).
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			c.Locals("user_id", "dev-user")
			c.Locals("fid", int64(0))
			c.Locals("is_pro", true)
			return c.Next()
		}

		token, err := extractToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization token",
			})
		}

		claims := &AuthClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			log.Printf("❌ Auth failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("fid", claims.FID)
		c.Locals("is_pro", strings.EqualFold(claims.Tier, "pro"))
		return c.Next()
	}
}
