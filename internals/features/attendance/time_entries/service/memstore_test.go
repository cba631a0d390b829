package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	siteModel "pointage_backend/internals/features/attendance/sites/model"
	"pointage_backend/internals/features/attendance/time_entries/model"
)

// memStore is an in-memory Store with the same filter and ordering rules
// as the gorm repository.
type memStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.TimeEntryModel
	seq     int
	updates int

	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex

	failFind error
}

func newMemStore() *memStore {
	return &memStore{
		rows:  map[uuid.UUID]*model.TimeEntryModel{},
		locks: map[uuid.UUID]*sync.Mutex{},
	}
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*model.TimeEntryModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) FindByLocalID(_ context.Context, userID uuid.UUID, localID string) (*model.TimeEntryModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.rows {
		if m.TimeEntryUserID == userID && m.TimeEntryLocalID != nil && *m.TimeEntryLocalID == localID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func statusIn(s model.PointageStatus, set []model.PointageStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func typeIn(t model.PointageType, set []model.PointageType) bool {
	for _, v := range set {
		if v == t {
			return true
		}
	}
	return false
}

func (s *memStore) match(m *model.TimeEntryModel, f EntryFilter) bool {
	switch {
	case f.UserID != nil && m.TimeEntryUserID != *f.UserID:
		return false
	case f.SessionID != nil && m.TimeEntrySessionID != *f.SessionID:
		return false
	case f.ClockedFrom != nil && m.TimeEntryClockedAt.Before(*f.ClockedFrom):
		return false
	case f.ClockedTo != nil && m.TimeEntryClockedAt.After(*f.ClockedTo):
		return false
	case f.ClockedBefore != nil && !m.TimeEntryClockedAt.Before(*f.ClockedBefore):
		return false
	case len(f.StatusIn) > 0 && !statusIn(m.TimeEntryPointageStatus, f.StatusIn):
		return false
	case len(f.StatusNotIn) > 0 && statusIn(m.TimeEntryPointageStatus, f.StatusNotIn):
		return false
	case len(f.TypeIn) > 0 && !typeIn(m.TimeEntryPointageType, f.TypeIn):
		return false
	}
	return true
}

func (s *memStore) filtered(f EntryFilter) []model.TimeEntryModel {
	var out []model.TimeEntryModel
	for _, m := range s.rows {
		if s.match(m, f) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.TimeEntryClockedAt.Equal(b.TimeEntryClockedAt) {
			if f.Desc {
				return a.TimeEntryClockedAt.After(b.TimeEntryClockedAt)
			}
			return a.TimeEntryClockedAt.Before(b.TimeEntryClockedAt)
		}
		if f.Desc {
			return a.TimeEntryCreatedAt.After(b.TimeEntryCreatedAt)
		}
		return a.TimeEntryCreatedAt.Before(b.TimeEntryCreatedAt)
	})
	return out
}

func (s *memStore) Find(_ context.Context, f EntryFilter) ([]model.TimeEntryModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind != nil {
		return nil, s.failFind
	}
	out := s.filtered(f)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context, f EntryFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filtered(f))), nil
}

func (s *memStore) GroupCount(_ context.Context, f EntryFilter, column string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int64{}
	for _, m := range s.filtered(f) {
		switch column {
		case model.ColPointageStatus:
			out[string(m.TimeEntryPointageStatus)]++
		case model.ColPointageType:
			out[string(m.TimeEntryPointageType)]++
		default:
			return nil, errors.New("unsupported group column " + column)
		}
	}
	return out, nil
}

func (s *memStore) Insert(_ context.Context, m *model.TimeEntryModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.TimeEntryLocalID != nil {
		for _, r := range s.rows {
			if r.TimeEntryUserID == m.TimeEntryUserID && r.TimeEntryLocalID != nil && *r.TimeEntryLocalID == *m.TimeEntryLocalID {
				return ErrLocalIDConflict
			}
		}
	}
	if m.TimeEntryID == uuid.Nil {
		m.TimeEntryID = uuid.New()
	}
	s.seq++
	m.TimeEntryCreatedAt = time.Unix(int64(s.seq), 0).UTC()
	m.TimeEntryUpdatedAt = m.TimeEntryCreatedAt
	cp := *m
	s.rows[m.TimeEntryID] = &cp
	return nil
}

func (s *memStore) Update(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return ErrEntryNotFound
	}
	for col, v := range fields {
		switch col {
		case model.ColPointageStatus:
			m.TimeEntryPointageStatus = v.(model.PointageStatus)
		case model.ColPointageType:
			m.TimeEntryPointageType = v.(model.PointageType)
		case model.ColSiteID:
			m.TimeEntrySiteID = v.(uuid.UUID)
		case model.ColRealClockedAt:
			t := v.(time.Time)
			m.TimeEntryRealClockedAt = &t
		case model.ColLatitude:
			f := v.(float64)
			m.TimeEntryLatitude = &f
		case model.ColLongitude:
			f := v.(float64)
			m.TimeEntryLongitude = &f
		case model.ColGPSAccuracy:
			f := v.(float64)
			m.TimeEntryGPSAccuracy = &f
		case model.ColDeviceInfo:
			m.TimeEntryDeviceInfo = v.(datatypes.JSONMap)
		case model.ColUserAgent:
			str := v.(string)
			m.TimeEntryUserAgent = &str
		case model.ColCreatedOffline:
			m.TimeEntryCreatedOffline = v.(bool)
		case model.ColSyncAttempts:
			m.TimeEntrySyncAttempts = v.(int)
		case model.ColLastSyncAttempt:
			t := v.(time.Time)
			m.TimeEntryLastSyncAttempt = &t
		case model.ColMemoID:
			u := v.(uuid.UUID)
			m.TimeEntryMemoID = &u
		case model.ColCorrectionReason:
			str := v.(string)
			m.TimeEntryCorrectionReason = &str
		case model.ColCorrectedBy:
			u := v.(uuid.UUID)
			m.TimeEntryCorrectedBy = &u
		default:
			return errors.New("unsupported update column " + col)
		}
	}
	s.updates++
	return nil
}

func (s *memStore) WithSessionLock(_ context.Context, sessionID uuid.UUID, fn func(Store) error) error {
	s.lockMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.lockMu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(s)
}

func (s *memStore) ActiveUsers(_ context.Context, since time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, m := range s.rows {
		if m.TimeEntryClockedAt.Before(since) || seen[m.TimeEntryUserID] {
			continue
		}
		seen[m.TimeEntryUserID] = true
		out = append(out, m.TimeEntryUserID)
	}
	return out, nil
}

func (s *memStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

type fenceRegistry map[uuid.UUID]*siteModel.Geofence

func (r fenceRegistry) Geofence(_ context.Context, siteID uuid.UUID) (*siteModel.Geofence, error) {
	return r[siteID], nil
}
