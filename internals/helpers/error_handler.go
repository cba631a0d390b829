package helper

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ValidationErrors is a field → messages map returned from handlers as an
// error; ErrorHandler renders it as a 422 envelope.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string { return "validation failed" }

// ErrorHandler is the app-wide fiber error handler. Every error a handler
// returns ends up in the same JSON envelope as JsonError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return JsonValidationError(c, ve)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	log.Printf("[ERROR] unhandled %s %s: %v", c.Method(), c.OriginalURL(), err)
	return JsonError(c, fiber.StatusInternalServerError, "internal server error")
}
