// Package mhttp collects the fiber-based HTTP plumbing shared by every
// handler: error-to-status mapping, request decoding, correlation ids and
// access logging, grounded on the teacher's common/net/http package but
// adapted to pkg/apperr's typed error kinds and validator v10.
package mhttp

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/apperr"
)

// ResponseError is the JSON body returned for every non-2xx response.
type ResponseError struct {
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// WithError maps an error from the command/domain layers to an HTTP status
// and a ResponseError body, switching on pkg/apperr's typed error kinds.
func WithError(c *fiber.Ctx, err error) error {
	mapped := apperr.ValidateBusinessError(err, "")

	switch e := mapped.(type) {
	case apperr.ValidationError:
		return respond(c, fiber.StatusBadRequest, e.Code, e.Title, e.Message)
	case apperr.AuthError:
		return respond(c, fiber.StatusForbidden, e.Code, e.Title, e.Message)
	case apperr.NotFoundError:
		return respond(c, fiber.StatusNotFound, e.Code, e.Title, e.Message)
	case apperr.ConflictError:
		return respond(c, fiber.StatusConflict, e.Code, e.Title, e.Message)
	case apperr.UnprocessableError:
		return respond(c, fiber.StatusUnprocessableEntity, e.Code, e.Title, e.Message)
	case apperr.RetryableError:
		return respond(c, fiber.StatusServiceUnavailable, e.Code, e.Title, e.Message)
	case apperr.InternalError:
		return respond(c, fiber.StatusInternalServerError, e.Code, e.Title, e.Message)
	default:
		wrapped := apperr.Wrap(err, "")
		ie, _ := wrapped.(apperr.InternalError)

		return respond(c, fiber.StatusInternalServerError, ie.Code, ie.Title, ie.Message)
	}
}

func respond(c *fiber.Ctx, status int, code, title, message string) error {
	return c.Status(status).JSON(ResponseError{Code: code, Title: title, Message: message})
}
