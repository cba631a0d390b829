package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"pointage_backend/internals/features/attendance/audit"
	"pointage_backend/internals/features/attendance/time_entries/model"
)

// CreateResult is a stored online entry plus the anomaly signals raised at
// submission time. Signals never block the write.
type CreateResult struct {
	Entry   *model.TimeEntryModel `json:"entry"`
	Signals Signals               `json:"signals"`
}

// CreateEntry stores an online punch. The sequence check and the insert
// run under the session lock, so two concurrent punches of one session
// cannot both pass against the same last entry. A back-dated punch is
// checked against the entries on both sides of its clocked_at.
func (s *TimeEntryService) CreateEntry(ctx context.Context, m *model.TimeEntryModel) (*CreateResult, error) {
	now := s.clock.Now()
	m.TimeEntryID = uuid.New()
	m.TimeEntryGUID = uuid.New()
	m.TimeEntryLocalID = nil
	m.TimeEntryCreatedOffline = false
	m.TimeEntrySyncAttempts = 0
	m.TimeEntryLastSyncAttempt = nil
	m.TimeEntryPointageStatus = model.StatusPending
	m.TimeEntryServerReceivedAt = now
	m.TimeEntryRealClockedAt = nil
	m.TimeEntryCorrectionReason = nil
	m.TimeEntryCorrectedBy = nil

	if err := s.validator.Validate(m); err != nil {
		return nil, err
	}

	err := s.store.WithSessionLock(ctx, m.TimeEntrySessionID, func(tx Store) error {
		prior, err := sessionEntries(ctx, tx, m.TimeEntrySessionID)
		if err != nil {
			return err
		}
		if err := checkPlacement(prior, m.TimeEntryPointageType, m.TimeEntryClockedAt); err != nil {
			return err
		}
		return infra("insert time entry", tx.Insert(ctx, m))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.ActionCreated, &m.TimeEntryUserID, nil, m)
	return &CreateResult{Entry: m, Signals: s.collectSignals(ctx, m)}, nil
}

// EntryPatch holds the annotation fields a worker may change after the
// fact. Type, times, status and position are not patchable.
type EntryPatch struct {
	MemoID      *uuid.UUID
	GPSAccuracy *float64
	DeviceInfo  datatypes.JSONMap
	UserAgent   *string
}

// UpdateEntry applies a patch to a non-rejected entry.
func (s *TimeEntryService) UpdateEntry(ctx context.Context, id uuid.UUID, p EntryPatch, actor uuid.UUID) (*model.TimeEntryModel, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsRejected() {
		return nil, singleViolation("pointage_status", "final", "rejected entries cannot be updated")
	}

	before := *entry
	fields := map[string]any{}
	if p.MemoID != nil {
		entry.TimeEntryMemoID = p.MemoID
		fields[model.ColMemoID] = *p.MemoID
	}
	if p.GPSAccuracy != nil {
		entry.TimeEntryGPSAccuracy = p.GPSAccuracy
		fields[model.ColGPSAccuracy] = *p.GPSAccuracy
	}
	if p.DeviceInfo != nil {
		entry.TimeEntryDeviceInfo = p.DeviceInfo
		fields[model.ColDeviceInfo] = p.DeviceInfo
	}
	if p.UserAgent != nil {
		entry.TimeEntryUserAgent = p.UserAgent
		fields[model.ColUserAgent] = *p.UserAgent
	}
	if len(fields) == 0 {
		return entry, nil
	}

	if err := s.validator.Validate(entry); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, id, fields); err != nil {
		return nil, infra("update time entry", err)
	}
	s.emit(ctx, audit.ActionUpdated, &actor, &before, entry)
	return entry, nil
}

func (s *TimeEntryService) GetEntry(ctx context.Context, id uuid.UUID) (*model.TimeEntryModel, error) {
	return s.get(ctx, id)
}

// ListEntries returns one page of entries and the total matching count.
func (s *TimeEntryService) ListEntries(ctx context.Context, f EntryFilter) ([]model.TimeEntryModel, int64, error) {
	total, err := s.store.Count(ctx, EntryFilter{
		UserID:      f.UserID,
		SessionID:   f.SessionID,
		ClockedFrom: f.ClockedFrom,
		ClockedTo:   f.ClockedTo,
		StatusIn:    f.StatusIn,
		StatusNotIn: f.StatusNotIn,
		TypeIn:      f.TypeIn,
	})
	if err != nil {
		return nil, 0, infra("count time entries", err)
	}
	rows, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, 0, infra("list time entries", err)
	}
	return rows, total, nil
}

// SessionView is a session's entries with its sequence position.
type SessionView struct {
	SessionID   uuid.UUID              `json:"session_id"`
	Entries     []model.TimeEntryModel `json:"entries"`
	CanClockOut bool                   `json:"can_clock_out"`
	NextTypes   []model.PointageType   `json:"next_types"`
}

func (s *TimeEntryService) Session(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	rows, err := sessionEntries(ctx, s.store, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		SessionID:   sessionID,
		Entries:     rows,
		CanClockOut: CanClockOut(rows),
		NextTypes:   NextTypes(rows),
	}, nil
}

type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByType   map[string]int64 `json:"by_type"`
}

// Stats counts a user's entries in [from, to] by status and by type.
func (s *TimeEntryService) Stats(ctx context.Context, userID uuid.UUID, from, to time.Time) (*Stats, error) {
	f := EntryFilter{UserID: &userID, ClockedFrom: &from, ClockedTo: &to}

	byStatus, err := s.store.GroupCount(ctx, f, model.ColPointageStatus)
	if err != nil {
		return nil, infra("stats by status", err)
	}
	byType, err := s.store.GroupCount(ctx, f, model.ColPointageType)
	if err != nil {
		return nil, infra("stats by type", err)
	}

	out := &Stats{ByStatus: byStatus, ByType: byType}
	for _, n := range byStatus {
		out.Total += n
	}
	return out, nil
}

// ActiveUsers lists users with punches inside the scan window.
func (s *TimeEntryService) ActiveUsers(ctx context.Context, window time.Duration) ([]uuid.UUID, error) {
	if window <= 0 {
		window = s.opts.ScanWindow
	}
	ids, err := s.store.ActiveUsers(ctx, s.clock.Now().Add(-window))
	if err != nil {
		return nil, infra("list active users", err)
	}
	return ids, nil
}
