package route

import (
	"github.com/gofiber/fiber/v2"

	"pointage_backend/internals/features/attendance/time_entries/controller"
)

// TimeEntryUserRoutes are the worker-facing endpoints; the router already
// carries the auth middleware. syncLimiter guards the offline batch upload.
func TimeEntryUserRoutes(r fiber.Router, ctrl *controller.TimeEntryController, syncLimiter fiber.Handler) {
	g := r.Group("/time-entries")
	g.Post("/", ctrl.Create)
	g.Get("/", ctrl.ListMine)
	g.Get("/stats", ctrl.Stats)
	g.Post("/sync", syncLimiter, ctrl.Sync)
	g.Get("/:id", ctrl.Get)
	g.Patch("/:id", ctrl.Patch)
	g.Post("/:id/synced", ctrl.MarkSynced)
	g.Post("/:id/sync-attempts", ctrl.SyncAttempt)

	r.Get("/sessions/:session_id/time-entries", ctrl.Session)
}

// TimeEntryAdminRoutes are the supervisor endpoints: corrections, review
// and the anomaly checks.
func TimeEntryAdminRoutes(r fiber.Router, ctrl *controller.TimeEntryController) {
	g := r.Group("/time-entries")
	g.Get("/", ctrl.ListAll)
	g.Get("/stats", ctrl.Stats)
	g.Post("/:id/corrections", ctrl.Correct)
	g.Post("/:id/reject", ctrl.Reject)
	g.Post("/:id/approve", ctrl.Approve)
	g.Get("/:id/speed-check", ctrl.SpeedCheck)
	g.Get("/:id/geofence-check", ctrl.GeofenceCheck)

	r.Get("/sessions/:session_id/time-entries", ctrl.Session)
	r.Get("/users/:user_id/duplicates", ctrl.Duplicates)
	r.Get("/users/:user_id/suspicious", ctrl.Suspicious)
}
