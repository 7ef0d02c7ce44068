package mhttp

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Ping returns HTTP 200 with a plain-text liveness response.
func Ping(c *fiber.Ctx) error {
	return c.SendString("healthy")
}

// Version returns HTTP 200 with the given build version, for the staff
// portal's deploy verification.
func Version(version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version":     version,
			"buildNumber": os.Getenv("BUILD_NUMBER"),
			"requestDate": time.Now().UTC(),
		})
	}
}
