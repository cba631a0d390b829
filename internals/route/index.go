package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pointage_backend/internals/configs"
	"pointage_backend/internals/features/attendance/time_entries/service"
	helper "pointage_backend/internals/helpers"
	"pointage_backend/internals/middlewares/auth"
	routeDetails "pointage_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, svc *service.TimeEntryService, cfg configs.Config) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	jwt := auth.AuthJWT(auth.AuthJWTOpts{
		Secret:              cfg.JWT.Secret,
		AllowCookieFallback: cfg.JWT.AllowCookieFallback,
	})

	// ===================== PRIVATE (USER) =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api/u", jwt)

	// ===================== ADMIN =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a", jwt, auth.OnlyRoles("admins only", helper.RoleAdmin))

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Attendance routes...")
	routeDetails.AttendanceUserRoutes(private, svc, cfg)
	routeDetails.AttendanceAdminRoutes(admin, svc)
}
