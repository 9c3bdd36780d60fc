package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"loomchat/internal/store"
)

// userID reads the authenticated caller id placed by the JWT middleware.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// storeError maps store sentinels onto HTTP statuses using the shared
// response shape.
func storeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, store.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, store.ErrValidation):
		status = fiber.StatusBadRequest
	default:
		slog.Error("Unhandled store error", "error", err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{
			"error":   true,
			"message": "Internal server error",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
