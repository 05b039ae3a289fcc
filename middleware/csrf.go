package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// CSRFHeader is the double-submit header mutating requests must carry.
const CSRFHeader = "X-CSRF-TOKEN"

// RequireCSRF compares the X-CSRF-TOKEN header against the token embedded
// in the session's access token. Must run after RequireAuth.
func RequireCSRF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		want, _ := c.Locals("csrf_token").(string)
		got := c.Get(CSRFHeader)
		if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_csrf"})
		}
		return c.Next()
	}
}
