package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/features/attendance/time_entries/service"
	helper "pointage_backend/internals/helpers"
)

// TimeEntryRepository is the Postgres Store of the time entry service.
type TimeEntryRepository struct {
	db *gorm.DB
}

var _ service.Store = (*TimeEntryRepository)(nil)

func NewTimeEntryRepository(db *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

func (r *TimeEntryRepository) Get(ctx context.Context, id uuid.UUID) (*model.TimeEntryModel, error) {
	var m model.TimeEntryModel
	err := r.db.WithContext(ctx).
		Where("time_entry_id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, service.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *TimeEntryRepository) FindByLocalID(ctx context.Context, userID uuid.UUID, localID string) (*model.TimeEntryModel, error) {
	var m model.TimeEntryModel
	err := r.db.WithContext(ctx).
		Where(model.ColUserID+" = ? AND "+model.ColLocalID+" = ?", userID, localID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// where applies the selection part of f; ordering and paging are left out
// so the same scope serves Count and GroupCount.
func where(f service.EntryFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if f.UserID != nil {
			tx = tx.Where(model.ColUserID+" = ?", *f.UserID)
		}
		if f.SessionID != nil {
			tx = tx.Where(model.ColSessionID+" = ?", *f.SessionID)
		}
		if f.ClockedFrom != nil {
			tx = tx.Where(model.ColClockedAt+" >= ?", *f.ClockedFrom)
		}
		if f.ClockedTo != nil {
			tx = tx.Where(model.ColClockedAt+" <= ?", *f.ClockedTo)
		}
		if f.ClockedBefore != nil {
			tx = tx.Where(model.ColClockedAt+" < ?", *f.ClockedBefore)
		}
		if len(f.StatusIn) > 0 {
			tx = tx.Where(model.ColPointageStatus+" IN ?", f.StatusIn)
		}
		if len(f.StatusNotIn) > 0 {
			tx = tx.Where(model.ColPointageStatus+" NOT IN ?", f.StatusNotIn)
		}
		if len(f.TypeIn) > 0 {
			tx = tx.Where(model.ColPointageType+" IN ?", f.TypeIn)
		}
		return tx
	}
}

func (r *TimeEntryRepository) Find(ctx context.Context, f service.EntryFilter) ([]model.TimeEntryModel, error) {
	order := "time_entry_clocked_at ASC, time_entry_created_at ASC"
	if f.Desc {
		order = "time_entry_clocked_at DESC, time_entry_created_at DESC"
	}
	tx := r.db.WithContext(ctx).
		Model(&model.TimeEntryModel{}).
		Scopes(where(f)).
		Order(order)
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}

	var rows []model.TimeEntryModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TimeEntryRepository) Count(ctx context.Context, f service.EntryFilter) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.TimeEntryModel{}).
		Scopes(where(f)).
		Count(&total).Error
	return total, err
}

var groupable = map[string]bool{
	model.ColPointageStatus: true,
	model.ColPointageType:   true,
	model.ColSiteID:         true,
}

func (r *TimeEntryRepository) GroupCount(ctx context.Context, f service.EntryFilter, column string) (map[string]int64, error) {
	if !groupable[column] {
		return nil, fmt.Errorf("group by %q not allowed", column)
	}
	var rows []struct {
		Key string
		N   int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.TimeEntryModel{}).
		Scopes(where(f)).
		Select(column + "::text AS key, COUNT(*) AS n").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.N
	}
	return out, nil
}

// Insert relies on the partial unique index over (user, local id) to turn
// a concurrent duplicate sync into ErrLocalIDConflict.
func (r *TimeEntryRepository) Insert(ctx context.Context, m *model.TimeEntryModel) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if helper.IsUniqueViolation(err) && m.TimeEntryLocalID != nil {
		return service.ErrLocalIDConflict
	}
	return err
}

func (r *TimeEntryRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.TimeEntryModel{}).
		Where("time_entry_id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return service.ErrEntryNotFound
	}
	return nil
}

// WithSessionLock runs fn inside a transaction holding a session-scoped
// advisory lock; the lock is released on commit or rollback.
func (r *TimeEntryRepository) WithSessionLock(ctx context.Context, sessionID uuid.UUID, fn func(service.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "time_entries:"+sessionID.String()).Error; err != nil {
			return err
		}
		return fn(&TimeEntryRepository{db: tx})
	})
}

func (r *TimeEntryRepository) ActiveUsers(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.TimeEntryModel{}).
		Where(model.ColClockedAt+" >= ?", since).
		Distinct(model.ColUserID).
		Pluck(model.ColUserID, &ids).Error
	return ids, err
}
