package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pointage_backend/internals/configs"
	siteModel "pointage_backend/internals/features/attendance/sites/model"
	entryModel "pointage_backend/internals/features/attendance/time_entries/model"
)

// ConnectWithRetry opens the pool and pings it, retrying while postgres is
// still starting.
func ConnectWithRetry(ctx context.Context, cfg configs.DBConfig) (*gorm.DB, error) {
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := open(cfg)
		if err == nil {
			if err = ping(ctx, db); err == nil {
				log.Printf("[DB] connected to %s:%s/%s", cfg.Host, cfg.Port, cfg.Name)
				return db, nil
			}
		}
		lastErr = err
		log.Printf("[DB] connect attempt %d/%d failed: %v", i, attempts, err)

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectDelay):
		}
	}
	return nil, fmt.Errorf("connect db after %d attempts: %w", attempts, lastErr)
}

func open(cfg configs.DBConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger:  configs.NewGormLogger(cfg.LogQueries),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
}

func TunePool(db *gorm.DB, cfg configs.DBConfig) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("[DB] pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// WarmUp fills the pool in the background once the server is up.
func WarmUp(db *gorm.DB) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := ping(ctx, db); err != nil {
			log.Printf("[DB] warm-up ping err: %v", err)
		}
	}()
}

// Migrate creates the sites and time_entries tables plus the partial
// indexes gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&siteModel.SiteModel{}, &entryModel.TimeEntryModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate index: %w", err)
		}
	}
	log.Println("[DB] migrations applied")
	return nil
}

var indexStatements = []string{
	// One entry per offline local id per user; replays hit this.
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_time_entries_user_local
		ON time_entries (time_entry_user_id, time_entry_local_id)
		WHERE time_entry_local_id IS NOT NULL`,
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
