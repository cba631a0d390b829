package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pointage_backend/internals/configs"
	siteRepo "pointage_backend/internals/features/attendance/sites/repository"
	TimeEntryController "pointage_backend/internals/features/attendance/time_entries/controller"
	TimeEntryRepo "pointage_backend/internals/features/attendance/time_entries/repository"
	TimeEntryRoute "pointage_backend/internals/features/attendance/time_entries/route"
	"pointage_backend/internals/features/attendance/time_entries/service"
	"pointage_backend/internals/middlewares"
)

// NewTimeEntryService wires the postgres-backed time entry service.
func NewTimeEntryService(db *gorm.DB, cfg configs.Config) *service.TimeEntryService {
	return service.NewTimeEntryService(service.Deps{
		Store: TimeEntryRepo.NewTimeEntryRepository(db),
		Sites: siteRepo.NewSiteRepository(db),
	}, cfg.Pointage.ServiceOptions())
}

func AttendanceUserRoutes(r fiber.Router, svc *service.TimeEntryService, cfg configs.Config) {
	ctrl := TimeEntryController.NewTimeEntryController(svc)
	TimeEntryRoute.TimeEntryUserRoutes(r, ctrl, middlewares.SyncRateLimiter(cfg.Pointage.SyncRatePerMinute))
}

func AttendanceAdminRoutes(r fiber.Router, svc *service.TimeEntryService) {
	ctrl := TimeEntryController.NewTimeEntryController(svc)
	TimeEntryRoute.TimeEntryAdminRoutes(r, ctrl)
}
