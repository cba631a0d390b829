package configs

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"pointage_backend/internals/features/attendance/time_entries/service"
)

// Config is the whole process configuration, read once at startup.
type Config struct {
	Port        string   `env:"PORT" envDefault:"3000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	DisplayTZ   string   `env:"DISPLAY_TZ" envDefault:"Africa/Douala"`
	SeedDir     string   `env:"SEED_DIR"` // run the JSON seeds of this dir at startup when set

	DB  DBConfig
	JWT JWTConfig

	Pointage PointageConfig
	Scan     FraudScanConfig
}

type DBConfig struct {
	Host             string        `env:"DB_HOST" envDefault:"localhost"`
	Port             string        `env:"DB_PORT" envDefault:"5432"`
	User             string        `env:"DB_USER"`
	Password         string        `env:"DB_PASSWORD"`
	Name             string        `env:"DB_NAME" envDefault:"pointage"`
	SSLMode          string        `env:"DB_SSLMODE" envDefault:"require"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"3s"`
	ConnectAttempts  int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"10"`
	ConnectDelay     time.Duration `env:"DB_CONNECT_DELAY" envDefault:"2s"`
	MaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	LogQueries       bool          `env:"DB_LOG_QUERIES" envDefault:"false"`
}

// DSN builds the postgres URL with a statement_timeout so one slow query
// cannot hold a pool slot past the HTTP timeout. Credentials are escaped.
func (c DBConfig) DSN() string {
	query := fmt.Sprintf("sslmode=%s&application_name=pointage&options=-c%%20statement_timeout%%3D%d",
		url.QueryEscape(c.SSLMode), c.StatementTimeout.Milliseconds())
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: query,
	}
	return u.String()
}

type JWTConfig struct {
	Secret              string `env:"JWT_SECRET"`
	AllowCookieFallback bool   `env:"JWT_ALLOW_COOKIE" envDefault:"true"`
}

// PointageConfig carries the tunables of the time entry core.
type PointageConfig struct {
	DuplicateTolerance time.Duration `env:"DUPLICATE_TOLERANCE" envDefault:"15m"`
	MaxSpeedKmh        float64       `env:"MAX_SPEED_KMH" envDefault:"80"`
	ScanWindow         time.Duration `env:"SCAN_WINDOW" envDefault:"168h"`
	MaxSyncAttempts    int           `env:"MAX_SYNC_ATTEMPTS" envDefault:"10"`
	MaxSyncBatch       int           `env:"MAX_SYNC_BATCH" envDefault:"500"`
	SyncRatePerMinute  int           `env:"SYNC_RATE_PER_MINUTE" envDefault:"30"`
}

// ServiceOptions maps the pointage tunables onto the service; zero values
// fall back to the service defaults.
func (c PointageConfig) ServiceOptions() service.Options {
	return service.Options{
		DuplicateTolerance: c.DuplicateTolerance,
		MaxSpeedKmh:        c.MaxSpeedKmh,
		ScanWindow:         c.ScanWindow,
		MaxSyncAttempts:    c.MaxSyncAttempts,
		MaxSyncBatch:       c.MaxSyncBatch,
	}
}

type FraudScanConfig struct {
	Enabled     bool          `env:"FRAUD_SCAN_ENABLED" envDefault:"true"`
	Interval    time.Duration `env:"FRAUD_SCAN_INTERVAL" envDefault:"6h"`
	Concurrency int           `env:"FRAUD_SCAN_CONCURRENCY" envDefault:"4"`
}

// LoadEnv reads .env outside managed environments, then parses Config.
func LoadEnv() (Config, error) {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[INFO] no .env file, using process environment")
		} else {
			log.Println("[INFO] .env loaded")
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWT.Secret == "" {
		log.Println("[WARN] JWT_SECRET is not set")
	}
	return cfg, nil
}

// =======================
// GORM LOGGER
// =======================

type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

// NewGormLogger logs errors and slow statements; every query too when
// verbose is set.
func NewGormLogger(verbose bool) gormLogger.Interface {
	level := gormLogger.Warn
	if verbose {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
