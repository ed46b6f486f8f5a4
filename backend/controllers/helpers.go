package controllers

import (
	"errors"
	"strconv"

	"mentor/backend/middleware"
	"mentor/backend/services"

	"github.com/gofiber/fiber/v2"
)

func currentUserID(c *fiber.Ctx) uint {
	userID, _ := middleware.UserID(c)
	return userID
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// gatewayError maps AI gateway failures to the responses clients expect.
func gatewayError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Rate limit exceeded. Please try again later.",
		})
	case errors.Is(err, services.ErrPaymentRequired):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error": "AI usage limit reached. Please contact support.",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func gatewayNotConfigured(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": services.ErrGatewayNotConfigured.Error(),
	})
}

func utoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func errorJSON(c *fiber.Ctx, e *fiber.Error) error {
	return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
}
