package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"blackkeyx_backend/pkg/utils/jwt"
)

const SessionCookie = "admin_session"

// AdminAuth requires a valid admin session, read from the session cookie
// or an Authorization bearer token.
func AdminAuth(issuer *jwt.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			auth := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals("admin", claims)
		return c.Next()
	}
}
