package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// HeaderName is the request header carrying the API key.
const HeaderName = "X-API-Key"

// New returns a middleware rejecting requests whose API key does not match apiKey.
// An empty apiKey rejects every request.
func New(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderName)
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
