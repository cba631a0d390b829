package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	siteModel "pointage_backend/internals/features/attendance/sites/model"
	"pointage_backend/internals/features/attendance/time_entries/model"
)

// EntryFilter selects time entries. Empty fields do not filter; all set
// fields are combined with AND.
type EntryFilter struct {
	UserID    *uuid.UUID
	SessionID *uuid.UUID

	// ClockedFrom/ClockedTo form an inclusive BETWEEN; ClockedBefore is strict.
	ClockedFrom   *time.Time
	ClockedTo     *time.Time
	ClockedBefore *time.Time

	StatusIn    []model.PointageStatus
	StatusNotIn []model.PointageStatus
	TypeIn      []model.PointageType

	// Newest first when true; otherwise chronological (clocked_at, created_at).
	Desc   bool
	Limit  int
	Offset int
}

// Store is the persistence the core needs over the time_entries collection.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*model.TimeEntryModel, error)
	// FindByLocalID returns (nil, nil) when no entry matches.
	FindByLocalID(ctx context.Context, userID uuid.UUID, localID string) (*model.TimeEntryModel, error)
	Find(ctx context.Context, f EntryFilter) ([]model.TimeEntryModel, error)
	Count(ctx context.Context, f EntryFilter) (int64, error)
	// GroupCount counts matching rows grouped by one column.
	GroupCount(ctx context.Context, f EntryFilter, column string) (map[string]int64, error)

	// Insert must return ErrLocalIDConflict when (user, local id) is taken.
	Insert(ctx context.Context, m *model.TimeEntryModel) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error

	// WithSessionLock runs fn with reads and writes serialized against every
	// other caller holding the same session lock.
	WithSessionLock(ctx context.Context, sessionID uuid.UUID, fn func(Store) error) error

	// ActiveUsers lists users with at least one entry clocked since the given time.
	ActiveUsers(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// SiteRegistry resolves a site's geofence. (nil, nil) means no boundary.
type SiteRegistry interface {
	Geofence(ctx context.Context, siteID uuid.UUID) (*siteModel.Geofence, error)
}

var excludeRejected = []model.PointageStatus{model.StatusRejected}
