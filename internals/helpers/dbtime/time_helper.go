// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Clock is the "now" source of the attendance services.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, always in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T; tests advance it by assigning T.
type FixedClock struct{ T time.Time }

func (c *FixedClock) Now() time.Time { return c.T }

// Locals set by middlewares.DisplayTimezone
const (
	LocSiteTimezone = "site_timezone" // string, e.g. "Africa/Douala"
	LocSiteLoc      = "site_loc"      // *time.Location
)

// GetSiteLocation resolves the display timezone of the request:
// 1) c.Locals("site_loc") if a middleware already set it
// 2) c.Locals("site_timezone") → LoadLocation (cached back into locals)
// 3) ?tz= query param
// 4) UTC
func GetSiteLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return time.UTC
	}

	if v := c.Locals(LocSiteLoc); v != nil {
		if loc, ok := v.(*time.Location); ok && loc != nil {
			return loc
		}
	}

	name := ""
	if v, ok := c.Locals(LocSiteTimezone).(string); ok {
		name = strings.TrimSpace(v)
	}
	if name == "" {
		name = strings.TrimSpace(c.Query("tz"))
	}
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			c.Locals(LocSiteLoc, loc)
			return loc
		}
	}
	return time.UTC
}

// ToSiteTime converts a stored (UTC) time to the request's site timezone.
// Zero stays zero.
func ToSiteTime(c *fiber.Ctx, t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(GetSiteLocation(c))
}

func ToSiteTimePtr(c *fiber.Ctx, t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := ToSiteTime(c, *t)
	return &v
}
