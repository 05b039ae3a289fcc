package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"lewa-type-backend/utils"
)

// AccessCookieName matches the cookie issued at login.
const AccessCookieName = "access_token_cookie"

// RequireAuth rejects requests without a valid access-token cookie and
// attaches user_id and the session CSRF token to the request context.
func RequireAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(AccessCookieName)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not_authenticated"})
		}

		userID, csrf, err := utils.ParseAccessToken(secret, raw)
		if err != nil {
			log.Printf("[AUTH] rejected token on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not_authenticated"})
		}

		c.Locals("user_id", userID)
		c.Locals("csrf_token", csrf)
		return c.Next()
	}
}

// OptionalAuth attaches user identity when a valid cookie is present and
// lets anonymous requests straight through.
func OptionalAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Cookies(AccessCookieName); raw != "" {
			if userID, csrf, err := utils.ParseAccessToken(secret, raw); err == nil {
				c.Locals("user_id", userID)
				c.Locals("csrf_token", csrf)
			}
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or 0 for anonymous.
func CurrentUserID(c *fiber.Ctx) uint {
	if v, ok := c.Locals("user_id").(uint); ok {
		return v
	}
	return 0
}
