package serverutils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"insurance-intake-be/pkg/fault"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into
// the JSON envelope, mapping fault kinds to HTTP statuses. Unkinded
// errors become 500s with a generic message so internals never leak.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		switch fault.KindOf(err) {
		case fault.Validation:
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fault.MessageOf(err)))
		case fault.NotReady:
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse(fault.MessageOf(err)))
		case fault.NotFound:
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse(fault.MessageOf(err)))
		case fault.External:
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fault.MessageOf(err)))
		default:
			log.Printf("[ERROR] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
		}
	}
}
