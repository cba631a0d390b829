package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/audit"
	"pointage_backend/internals/features/attendance/time_entries/model"
)

type SyncStatus string

const (
	SyncSuccess  SyncStatus = "success"
	SyncConflict SyncStatus = "conflict"
	SyncError    SyncStatus = "error"
)

// SyncItemResult is the terminal outcome of one offline item.
type SyncItemResult struct {
	LocalID    string      `json:"local_id"`
	Status     SyncStatus  `json:"status"`
	Detail     string      `json:"detail,omitempty"`
	EntryID    *uuid.UUID  `json:"entry_id,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
}

type SyncReport struct {
	Processed int              `json:"processed"`
	Success   int              `json:"success"`
	Errors    int              `json:"errors"`
	Conflicts int              `json:"conflicts"`
	Results   []SyncItemResult `json:"results"`
}

func (r *SyncReport) add(res SyncItemResult) {
	r.Processed++
	switch res.Status {
	case SyncSuccess:
		r.Success++
	case SyncConflict:
		r.Conflicts++
	default:
		r.Errors++
	}
	r.Results = append(r.Results, res)
}

// Sync reconciles a batch of offline-created entries for one user. Items
// run strictly in order, so later items see the session state left by
// earlier ones. An existing (user, local id) is a conflict and is never
// overwritten; one item's failure never stops the batch. Replaying an
// applied batch therefore yields only conflicts.
func (s *TimeEntryService) Sync(ctx context.Context, userID uuid.UUID, items []model.TimeEntryModel) (*SyncReport, error) {
	if userID == uuid.Nil {
		return nil, singleViolation("user", "required", "is required")
	}
	if len(items) > s.opts.MaxSyncBatch {
		return nil, singleViolation("items", "max", "must not exceed "+strconv.Itoa(s.opts.MaxSyncBatch))
	}

	report := &SyncReport{Results: make([]SyncItemResult, 0, len(items))}
	for i := range items {
		res := s.syncItem(ctx, userID, items[i])
		report.add(res)
	}
	log.Printf("[SYNC] user=%s processed=%d success=%d conflicts=%d errors=%d",
		userID, report.Processed, report.Success, report.Conflicts, report.Errors)
	return report, nil
}

func (s *TimeEntryService) syncItem(ctx context.Context, userID uuid.UUID, item model.TimeEntryModel) SyncItemResult {
	localID := ""
	if item.TimeEntryLocalID != nil {
		localID = strings.TrimSpace(*item.TimeEntryLocalID)
		item.TimeEntryLocalID = &localID
	}
	res := SyncItemResult{LocalID: localID}

	if localID != "" {
		existing, err := s.store.FindByLocalID(ctx, userID, localID)
		if err != nil {
			return failItem(res, infra("lookup local id", err))
		}
		if existing != nil {
			res.Status = SyncConflict
			res.Detail = "already synced"
			res.EntryID = &existing.TimeEntryID
			return res
		}
	}

	now := s.clock.Now()
	item.TimeEntryID = uuid.New()
	item.TimeEntryGUID = uuid.New()
	item.TimeEntryUserID = userID
	item.TimeEntryCreatedOffline = true
	item.TimeEntryPointageStatus = model.StatusDraft
	item.TimeEntryServerReceivedAt = now
	item.TimeEntryRealClockedAt = nil
	item.TimeEntryCorrectionReason = nil
	item.TimeEntryCorrectedBy = nil
	item.TimeEntryLastSyncAttempt = &now

	if err := s.validator.Validate(&item); err != nil {
		return failItem(res, err)
	}

	err := s.store.WithSessionLock(ctx, item.TimeEntrySessionID, func(tx Store) error {
		prior, err := sessionEntries(ctx, tx, item.TimeEntrySessionID)
		if err != nil {
			return err
		}
		if err := checkPlacement(prior, item.TimeEntryPointageType, item.TimeEntryClockedAt); err != nil {
			return err
		}
		return infra("insert offline entry", tx.Insert(ctx, &item))
	})
	switch {
	case errors.Is(err, ErrLocalIDConflict):
		// lost a race with a concurrent submission of the same item
		res.Status = SyncConflict
		res.Detail = "already synced"
		if existing, lerr := s.store.FindByLocalID(ctx, userID, localID); lerr == nil && existing != nil {
			res.EntryID = &existing.TimeEntryID
		}
		return res
	case err != nil:
		return failItem(res, err)
	}

	s.emit(ctx, audit.ActionSyncCreated, &userID, nil, &item)
	res.Status = SyncSuccess
	res.EntryID = &item.TimeEntryID
	return res
}

func failItem(res SyncItemResult, err error) SyncItemResult {
	res.Status = SyncError
	res.Detail = err.Error()
	var ve *ValidationError
	if errors.As(err, &ve) {
		res.Violations = ve.Violations
	}
	return res
}

// MarkEntryAsSynced closes the offline bookkeeping of an entry: it clears
// created_offline, resets the attempt counter and moves DRAFT to PENDING.
// Calling it again is a no-op.
func (s *TimeEntryService) MarkEntryAsSynced(ctx context.Context, id uuid.UUID) (*model.TimeEntryModel, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.TimeEntryCreatedOffline && entry.TimeEntrySyncAttempts == 0 &&
		entry.TimeEntryPointageStatus != model.StatusDraft {
		return entry, nil
	}

	before := *entry
	fields := map[string]any{
		model.ColCreatedOffline: false,
		model.ColSyncAttempts:   0,
	}
	entry.TimeEntryCreatedOffline = false
	entry.TimeEntrySyncAttempts = 0
	if entry.TimeEntryPointageStatus == model.StatusDraft {
		fields[model.ColPointageStatus] = model.StatusPending
		entry.TimeEntryPointageStatus = model.StatusPending
	}

	if err := s.store.Update(ctx, id, fields); err != nil {
		return nil, infra("mark entry synced", err)
	}
	s.emit(ctx, audit.ActionSynced, nil, &before, entry)
	return entry, nil
}

// UpdateSyncStatus records one more delivery attempt. attempts is the
// count the client has seen so far; the stored counter only moves
// forward. Past the configured ceiling it fails with a ValidationError
// and writes nothing, which is the caller's signal to abandon the entry.
func (s *TimeEntryService) UpdateSyncStatus(ctx context.Context, id uuid.UUID, attempts int) (*model.TimeEntryModel, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var before model.TimeEntryModel
	// read, bump and write under the session lock so concurrent attempts
	// cannot both write the same count
	err = s.store.WithSessionLock(ctx, entry.TimeEntrySessionID, func(tx Store) error {
		cur, err := tx.Get(ctx, id)
		if err != nil {
			return infra("reload time entry", err)
		}
		before = *cur

		next := cur.TimeEntrySyncAttempts
		if attempts > next {
			next = attempts
		}
		next++

		now := s.clock.Now()
		cur.TimeEntrySyncAttempts = next
		cur.TimeEntryLastSyncAttempt = &now
		if err := s.validator.Validate(cur); err != nil {
			return err
		}
		entry = cur
		return infra("update sync status", tx.Update(ctx, id, map[string]any{
			model.ColSyncAttempts:    next,
			model.ColLastSyncAttempt: now,
		}))
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.ActionSyncAttempt, nil, &before, entry)
	return entry, nil
}
