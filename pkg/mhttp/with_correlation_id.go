package mhttp

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const headerCorrelationID = "X-Correlation-Id"

// WithCorrelationID assigns a correlation id to every request that doesn't
// already carry one, echoing it back on the response and request headers
// so downstream logging and outbox events can be traced to the call.
func WithCorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cid := c.Get(headerCorrelationID)
		if cid == "" {
			cid = uuid.New().String()
		}

		c.Set(headerCorrelationID, cid)
		c.Request().Header.Set(headerCorrelationID, cid)

		return c.Next()
	}
}

// CorrelationID reads the correlation id off an in-flight request.
func CorrelationID(c *fiber.Ctx) string {
	return c.Get(headerCorrelationID)
}
