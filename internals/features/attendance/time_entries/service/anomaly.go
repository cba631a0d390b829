package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/helpers/geo"
)

const (
	ReasonSpeed       = "speed"
	ReasonZeroElapsed = "zero_elapsed"
)

// SpeedAnomalyResult is the evidence of one speed check.
type SpeedAnomalyResult struct {
	HasAnomaly      bool                  `json:"has_anomaly"`
	Reason          string                `json:"reason,omitempty"`
	Entry           *model.TimeEntryModel `json:"entry,omitempty"`
	PreviousEntry   *model.TimeEntryModel `json:"previous_entry,omitempty"`
	CalculatedSpeed float64               `json:"calculated_speed_kmh"`
	DistanceKm      float64               `json:"distance_km"`
	ElapsedMinutes  float64               `json:"elapsed_minutes"`
	MaxSpeedKmh     float64               `json:"max_speed_kmh"`
}

// GeofenceResult tells whether an entry was punched outside its site.
type GeofenceResult struct {
	HasViolation bool      `json:"has_violation"`
	SiteID       uuid.UUID `json:"site_id"`
	DistanceM    float64   `json:"distance_m"`
	Checked      bool      `json:"checked"` // false when the site has no geofence
}

// EvaluateSpeed compares two punches of one user, prev before cur.
func EvaluateSpeed(prev, cur *model.TimeEntryModel, maxSpeedKmh float64) SpeedAnomalyResult {
	res := SpeedAnomalyResult{Entry: cur, PreviousEntry: prev, MaxSpeedKmh: maxSpeedKmh}
	if !prev.HasPosition() || !cur.HasPosition() {
		return res
	}

	from := geo.Point{Lat: *prev.TimeEntryLatitude, Lng: *prev.TimeEntryLongitude}
	to := geo.Point{Lat: *cur.TimeEntryLatitude, Lng: *cur.TimeEntryLongitude}
	res.DistanceKm = geo.HaversineKm(from, to)

	elapsed := cur.TimeEntryClockedAt.Sub(prev.TimeEntryClockedAt)
	res.ElapsedMinutes = elapsed.Minutes()

	if elapsed < MinSpeedElapsed {
		res.CalculatedSpeed = res.DistanceKm / MinSpeedElapsed.Hours()
		if res.DistanceKm > GPSJitterKm {
			res.HasAnomaly = true
			res.Reason = ReasonZeroElapsed
		}
		return res
	}

	res.CalculatedSpeed = res.DistanceKm / elapsed.Hours()
	if res.CalculatedSpeed > maxSpeedKmh {
		res.HasAnomaly = true
		res.Reason = ReasonSpeed
	}
	return res
}

// DetectDuplicates returns the user's non-rejected entries clocked within
// ±tolerance of clockedAt. A non-positive tolerance uses the configured one.
func (s *TimeEntryService) DetectDuplicates(ctx context.Context, userID uuid.UUID, clockedAt time.Time, tolerance time.Duration) ([]model.TimeEntryModel, error) {
	if tolerance <= 0 {
		tolerance = s.opts.DuplicateTolerance
	}
	from, to := clockedAt.Add(-tolerance), clockedAt.Add(tolerance)
	rows, err := s.store.Find(ctx, EntryFilter{
		UserID:      &userID,
		ClockedFrom: &from,
		ClockedTo:   &to,
		StatusNotIn: excludeRejected,
	})
	if err != nil {
		return nil, infra("detect duplicates", err)
	}
	return rows, nil
}

// DetectSpeedAnomaly compares entry with the user's latest non-rejected
// punch strictly before it. No previous punch means no anomaly.
func (s *TimeEntryService) DetectSpeedAnomaly(ctx context.Context, entry *model.TimeEntryModel, maxSpeedKmh float64) (SpeedAnomalyResult, error) {
	if maxSpeedKmh <= 0 {
		maxSpeedKmh = s.opts.MaxSpeedKmh
	}
	res := SpeedAnomalyResult{Entry: entry, MaxSpeedKmh: maxSpeedKmh}
	if entry == nil {
		return res, ErrEntryNotFound
	}

	before := entry.TimeEntryClockedAt
	rows, err := s.store.Find(ctx, EntryFilter{
		UserID:        &entry.TimeEntryUserID,
		ClockedBefore: &before,
		StatusNotIn:   excludeRejected,
		Desc:          true,
		Limit:         1,
	})
	if err != nil {
		return res, infra("detect speed anomaly", err)
	}
	if len(rows) == 0 {
		return res, nil
	}
	return EvaluateSpeed(&rows[0], entry, maxSpeedKmh), nil
}

// DetectSpeedAnomalyByID loads the entry first; a missing entry yields
// HasAnomaly=false with ErrEntryNotFound.
func (s *TimeEntryService) DetectSpeedAnomalyByID(ctx context.Context, id uuid.UUID, maxSpeedKmh float64) (SpeedAnomalyResult, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return SpeedAnomalyResult{MaxSpeedKmh: maxSpeedKmh}, err
	}
	return s.DetectSpeedAnomaly(ctx, entry, maxSpeedKmh)
}

// DetectGeofenceViolation checks the entry position against the site's
// registered geofence.
func (s *TimeEntryService) DetectGeofenceViolation(ctx context.Context, entry *model.TimeEntryModel) (GeofenceResult, error) {
	if entry == nil {
		return GeofenceResult{}, ErrEntryNotFound
	}
	res := GeofenceResult{SiteID: entry.TimeEntrySiteID}
	if s.sites == nil || !entry.HasPosition() {
		return res, nil
	}

	fence, err := s.sites.Geofence(ctx, entry.TimeEntrySiteID)
	if err != nil {
		return res, infra("load site geofence", err)
	}
	if fence == nil {
		return res, nil
	}

	inside, dist := fence.Check(geo.Point{Lat: *entry.TimeEntryLatitude, Lng: *entry.TimeEntryLongitude})
	res.Checked = true
	res.HasViolation = !inside
	res.DistanceM = dist
	return res, nil
}

// ScanSuspiciousPatterns walks the user's punches of the trailing window in
// chronological order and returns every consecutive pair flagged by the
// speed check. It does not raise alerts itself.
func (s *TimeEntryService) ScanSuspiciousPatterns(ctx context.Context, userID uuid.UUID, window time.Duration) ([]SpeedAnomalyResult, error) {
	if window <= 0 {
		window = s.opts.ScanWindow
	}
	to := s.clock.Now()
	from := to.Add(-window)
	rows, err := s.store.Find(ctx, EntryFilter{
		UserID:      &userID,
		ClockedFrom: &from,
		ClockedTo:   &to,
		StatusNotIn: excludeRejected,
	})
	if err != nil {
		return nil, infra("scan suspicious patterns", err)
	}

	var flagged []SpeedAnomalyResult
	for i := 1; i < len(rows); i++ {
		res := EvaluateSpeed(&rows[i-1], &rows[i], s.opts.MaxSpeedKmh)
		if res.HasAnomaly {
			flagged = append(flagged, res)
		}
	}
	return flagged, nil
}

// Signals are the anomaly checks run synchronously at submission time.
type Signals struct {
	Duplicates []uuid.UUID         `json:"duplicates,omitempty"`
	Speed      *SpeedAnomalyResult `json:"speed,omitempty"`
	Geofence   *GeofenceResult     `json:"geofence,omitempty"`
	Errors     []string            `json:"errors,omitempty"`
}

// Suspicious reports whether any check raised a flag.
func (sg *Signals) Suspicious() bool {
	return len(sg.Duplicates) > 0 ||
		(sg.Speed != nil && sg.Speed.HasAnomaly) ||
		(sg.Geofence != nil && sg.Geofence.HasViolation)
}

// collectSignals never fails the caller: lookup errors are logged and
// listed in Signals.Errors.
func (s *TimeEntryService) collectSignals(ctx context.Context, entry *model.TimeEntryModel) Signals {
	var sg Signals
	note := func(check string, err error) {
		log.Printf("[WARN] signal %s for entry %s: %v", check, entry.TimeEntryID, err)
		sg.Errors = append(sg.Errors, check+": "+err.Error())
	}

	if dups, err := s.DetectDuplicates(ctx, entry.TimeEntryUserID, entry.TimeEntryClockedAt, 0); err != nil {
		note("duplicates", err)
	} else {
		for _, d := range dups {
			if d.TimeEntryID != entry.TimeEntryID {
				sg.Duplicates = append(sg.Duplicates, d.TimeEntryID)
			}
		}
	}

	if sp, err := s.DetectSpeedAnomaly(ctx, entry, 0); err != nil {
		note("speed", err)
	} else if sp.PreviousEntry != nil {
		sg.Speed = &sp
	}

	if gf, err := s.DetectGeofenceViolation(ctx, entry); err != nil && !errors.Is(err, ErrEntryNotFound) {
		note("geofence", err)
	} else if err == nil && gf.Checked {
		sg.Geofence = &gf
	}
	return sg
}
