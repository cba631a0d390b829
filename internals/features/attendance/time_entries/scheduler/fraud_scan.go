package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/features/attendance/time_entries/service"
)

// Scanner is the part of the time entry service the fraud scan drives.
type Scanner interface {
	ActiveUsers(ctx context.Context, window time.Duration) ([]uuid.UUID, error)
	ScanSuspiciousPatterns(ctx context.Context, userID uuid.UUID, window time.Duration) ([]service.SpeedAnomalyResult, error)
}

type FraudScanConfig struct {
	Interval    time.Duration
	Window      time.Duration
	Concurrency int
}

// Finding is one user's flagged pairs from a scan run.
type Finding struct {
	UserID  uuid.UUID
	Flagged []service.SpeedAnomalyResult
}

// RunFraudScan scans every user active in the window, at most
// cfg.Concurrency at a time. A failing user is logged and skipped.
func RunFraudScan(ctx context.Context, s Scanner, cfg FraudScanConfig) ([]Finding, error) {
	users, err := s.ActiveUsers(ctx, cfg.Window)
	if err != nil {
		return nil, err
	}

	results := make([][]service.SpeedAnomalyResult, len(users))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i, uid := range users {
		g.Go(func() error {
			flagged, err := s.ScanSuspiciousPatterns(gctx, uid, cfg.Window)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("[FRAUD-SCAN ERROR] user=%s: %v", uid, err)
				return nil
			}
			results[i] = flagged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var findings []Finding
	for i, flagged := range results {
		if len(flagged) > 0 {
			findings = append(findings, Finding{UserID: users[i], Flagged: flagged})
		}
	}
	return findings, nil
}

// StartFraudScanScheduler runs RunFraudScan every cfg.Interval until ctx is
// done. Findings are logged for review; nothing is modified.
func StartFraudScanScheduler(ctx context.Context, s Scanner, cfg FraudScanConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			log.Println("[FRAUD-SCAN] scanning active users...")
			findings, err := RunFraudScan(ctx, s, cfg)
			switch {
			case err != nil:
				log.Printf("[FRAUD-SCAN ERROR] %v", err)
			case len(findings) == 0:
				log.Println("[FRAUD-SCAN] no suspicious movement")
			default:
				for _, f := range findings {
					for _, r := range f.Flagged {
						log.Printf("[FRAUD-SCAN] user=%s entries %s -> %s: %.1f km in %.1f min (%.0f km/h, %s)",
							f.UserID, entryID(r.PreviousEntry), entryID(r.Entry),
							r.DistanceKm, r.ElapsedMinutes, r.CalculatedSpeed, r.Reason)
					}
				}
			}

			select {
			case <-ctx.Done():
				log.Println("[FRAUD-SCAN] stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

func entryID(m *model.TimeEntryModel) string {
	if m == nil {
		return "-"
	}
	return m.TimeEntryID.String()
}
