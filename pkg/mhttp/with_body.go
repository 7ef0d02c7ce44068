package mhttp

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// DecodeHandlerFunc receives the struct decoded from the request body by
// WithBody, alongside the fiber context.
type DecodeHandlerFunc func(payload any, c *fiber.Ctx) error

// WithBody decodes the request body JSON into a new instance of the type
// behind s, validates it with the `validate` struct tags, and calls h with
// the decoded, validated payload. A malformed body or a failed validation
// both short-circuit with a 400 before h is ever called.
func WithBody(s any, h DecodeHandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := reflect.New(reflect.TypeOf(s).Elem()).Interface()

		if err := c.BodyParser(payload); err != nil {
			return respond(c, fiber.StatusBadRequest, "0001", "Malformed Request Body", err.Error())
		}

		if err := validate.Struct(payload); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				return respond(c, fiber.StatusBadRequest, "0002", "Validation Failed", verrs.Error())
			}

			return respond(c, fiber.StatusBadRequest, "0002", "Validation Failed", err.Error())
		}

		return h(payload, c)
	}
}
