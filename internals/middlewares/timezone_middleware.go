package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pointage_backend/internals/helpers/dbtime"
)

// DisplayTimezone sets the timezone responses are rendered in: ?tz= when
// given, the configured default otherwise.
func DisplayTimezone(defaultTZ string) fiber.Handler {
	defaultTZ = strings.TrimSpace(defaultTZ)
	return func(c *fiber.Ctx) error {
		tz := strings.TrimSpace(c.Query("tz"))
		if tz == "" {
			tz = defaultTZ
		}
		if tz != "" {
			c.Locals(dbtime.LocSiteTimezone, tz)
		}
		return c.Next()
	}
}
