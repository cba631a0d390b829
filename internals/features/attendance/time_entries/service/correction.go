package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/audit"
	"pointage_backend/internals/features/attendance/time_entries/model"
)

// Correction lists the administrator overrides. Nil fields stay untouched.
// ClockedAt is written to real_clocked_at; the worker's claimed time is
// never replaced.
type Correction struct {
	ClockedAt    *time.Time
	PointageType *model.PointageType
	SiteID       *uuid.UUID
	Latitude     *float64
	Longitude    *float64
	GPSAccuracy  *float64
	MemoID       *uuid.UUID
	Reason       string
}

// ApplyCorrection moves an entry to CORRECTED with the given overrides.
func (s *TimeEntryService) ApplyCorrection(ctx context.Context, id uuid.UUID, c Correction, correctedBy uuid.UUID) (*model.TimeEntryModel, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsRejected() {
		return nil, singleViolation("pointage_status", "final", "rejected entries cannot be corrected")
	}

	before := *entry
	next := *entry
	reason := strings.TrimSpace(c.Reason)
	fields := map[string]any{
		model.ColPointageStatus:   model.StatusCorrected,
		model.ColCorrectionReason: reason,
		model.ColCorrectedBy:      correctedBy,
	}
	next.TimeEntryPointageStatus = model.StatusCorrected
	next.TimeEntryCorrectionReason = &reason
	next.TimeEntryCorrectedBy = &correctedBy

	if c.ClockedAt != nil {
		t := c.ClockedAt.UTC()
		next.TimeEntryRealClockedAt = &t
		fields[model.ColRealClockedAt] = t
	}
	if c.PointageType != nil {
		next.TimeEntryPointageType = *c.PointageType
		fields[model.ColPointageType] = *c.PointageType
	}
	if c.SiteID != nil {
		next.TimeEntrySiteID = *c.SiteID
		fields[model.ColSiteID] = *c.SiteID
	}
	if c.Latitude != nil {
		next.TimeEntryLatitude = c.Latitude
		fields[model.ColLatitude] = *c.Latitude
	}
	if c.Longitude != nil {
		next.TimeEntryLongitude = c.Longitude
		fields[model.ColLongitude] = *c.Longitude
	}
	if c.GPSAccuracy != nil {
		next.TimeEntryGPSAccuracy = c.GPSAccuracy
		fields[model.ColGPSAccuracy] = *c.GPSAccuracy
	}
	if c.MemoID != nil {
		next.TimeEntryMemoID = c.MemoID
		fields[model.ColMemoID] = *c.MemoID
	}

	if err := s.validator.Validate(&next); err != nil {
		return nil, err
	}

	write := func(st Store) error {
		return infra("apply correction", st.Update(ctx, id, fields))
	}
	if c.PointageType != nil && *c.PointageType != before.TimeEntryPointageType {
		// a new type must still fit between the entry's neighbours
		err = s.store.WithSessionLock(ctx, entry.TimeEntrySessionID, func(tx Store) error {
			prior, err := sessionEntries(ctx, tx, entry.TimeEntrySessionID)
			if err != nil {
				return err
			}
			others := make([]model.TimeEntryModel, 0, len(prior))
			for _, m := range prior {
				if m.TimeEntryID != id {
					others = append(others, m)
				}
			}
			if err := checkPlacement(others, *c.PointageType, entry.TimeEntryClockedAt); err != nil {
				return err
			}
			return write(tx)
		})
	} else {
		err = write(s.store)
	}
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.ActionCorrected, &correctedBy, &before, &next)
	return &next, nil
}

// RejectEntry marks an entry REJECTED. It stays stored but is ignored by
// later duplicate, speed and sequence checks.
func (s *TimeEntryService) RejectEntry(ctx context.Context, id uuid.UUID, reason string, rejectedBy uuid.UUID) (*model.TimeEntryModel, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	before := *entry
	next := *entry
	reason = strings.TrimSpace(reason)
	next.TimeEntryPointageStatus = model.StatusRejected
	next.TimeEntryCorrectionReason = &reason
	next.TimeEntryCorrectedBy = &rejectedBy
	if err := s.validator.Validate(&next); err != nil {
		return nil, err
	}
	if before.IsRejected() {
		return entry, nil
	}

	if err := s.store.Update(ctx, id, map[string]any{
		model.ColPointageStatus:   model.StatusRejected,
		model.ColCorrectionReason: reason,
		model.ColCorrectedBy:      rejectedBy,
	}); err != nil {
		return nil, infra("reject entry", err)
	}
	s.emit(ctx, audit.ActionRejected, &rejectedBy, &before, &next)
	return &next, nil
}

// ApproveEntry validates a PENDING or CORRECTED entry.
func (s *TimeEntryService) ApproveEntry(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID) (*model.TimeEntryModel, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch entry.TimeEntryPointageStatus {
	case model.StatusValidated:
		return entry, nil
	case model.StatusPending, model.StatusCorrected:
	default:
		return nil, singleViolation("pointage_status", "transition",
			"only PENDING or CORRECTED entries can be validated, got "+string(entry.TimeEntryPointageStatus))
	}

	before := *entry
	entry.TimeEntryPointageStatus = model.StatusValidated
	if err := s.store.Update(ctx, id, map[string]any{
		model.ColPointageStatus: model.StatusValidated,
	}); err != nil {
		return nil, infra("approve entry", err)
	}
	s.emit(ctx, audit.ActionValidated, &approvedBy, &before, entry)
	return entry, nil
}
