package utils

import "github.com/gofiber/fiber/v2"

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// Message wraps a plain confirmation such as "asset removed" in the success envelope.
func Message(c *fiber.Ctx, status int, message string) error {
	return Success(c, status, fiber.Map{"message": message})
}
