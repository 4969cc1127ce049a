package api

import (
	"github.com/edjs-platform/edjs/internal/models"
	"github.com/gofiber/fiber/v2"
)

func currentAPIKey(c *fiber.Ctx) (*models.APIKey, bool) {
	key, ok := c.Locals(contextAPIKeyKey).(*models.APIKey)
	return key, ok
}

// Whoami lets machine clients check that their key is accepted.
func (handler *Handler) Whoami(c *fiber.Ctx) error {
	key, ok := currentAPIKey(c)
	if !ok {
		return handler.apiError(c, fiber.StatusUnauthorized, "api_key_invalid")
	}
	return c.JSON(fiber.Map{
		"id":         key.ID,
		"name":       key.Name,
		"key_prefix": key.KeyPrefix,
		"expires_at": key.ExpiresAt,
	})
}
