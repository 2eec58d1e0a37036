package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// parseUserID reads the authenticated user id the auth middleware left
// in request locals.
func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func parseRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("role").(string)
	return role, ok
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}
