package security

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func APIKeyGuard(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !equal(c.Get("X-API-Key"), apiKey) {
			return c.Status(401).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}

func AdminGuard(admin string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !equal(c.Get("X-Admin-Token"), admin) {
			return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
