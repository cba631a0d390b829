package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"pointage_backend/internals/configs"
	database "pointage_backend/internals/databases"
	"pointage_backend/internals/features/attendance/time_entries/scheduler"
	helper "pointage_backend/internals/helpers"
	middlewares "pointage_backend/internals/middlewares"
	routes "pointage_backend/internals/route"
	routeDetails "pointage_backend/internals/route/details"
	"pointage_backend/internals/seeds"
)

func main() {
	cfg, err := configs.LoadEnv()
	if err != nil {
		log.Fatalf("[FATAL] config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		ErrorHandler:            helper.ErrorHandler,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             90 * time.Second,
	})

	middlewares.SetupMiddlewares(app, cfg)

	// DB connect + pool + migrate + warm-up
	db, err := database.ConnectWithRetry(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	database.TunePool(db, cfg.DB)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.SeedDir != "" {
		if err := seeds.RunAllSeeds(db, cfg.SeedDir); err != nil {
			log.Fatalf("[FATAL] seed: %v", err)
		}
	}
	database.WarmUp(db)

	svc := routeDetails.NewTimeEntryService(db, cfg)

	// scheduler once the DB is ready
	if cfg.Scan.Enabled {
		scheduler.StartFraudScanScheduler(ctx, svc, scheduler.FraudScanConfig{
			Interval:    cfg.Scan.Interval,
			Window:      cfg.Pointage.ScanWindow,
			Concurrency: cfg.Scan.Concurrency,
		})
	}

	routes.SetupRoutes(app, db, svc, cfg)

	go func() {
		log.Printf("[INFO] listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown + close the DB pool
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("[INFO] shutdown complete")
}
