package middleware

import (
	"crypto/subtle"
	"strings"

	"license-auth-api/internal/stats"

	"github.com/gofiber/fiber/v2"
)

// AdminAuth guards the admin routes with the process-lifetime shared
// secret. The comparison is constant time. Failed attempts count as
// errors but never as admin requests.
func AdminAuth(adminKey string, st *stats.Stats) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			st.RecordError()
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization header",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			st.RecordError()
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization header",
			})
		}

		if subtle.ConstantTimeCompare([]byte(tokenParts[1]), []byte(adminKey)) != 1 {
			st.RecordError()
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid admin key",
			})
		}

		st.RecordRequest(stats.KindAdmin)
		return c.Next()
	}
}
