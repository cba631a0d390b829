package service

import (
	"context"

	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/audit"
	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/helpers/dbtime"
)

// TimeEntryService validates and reconciles punch events. It holds no
// per-user state; every method is safe for concurrent use as long as the
// Store is.
type TimeEntryService struct {
	store     Store
	sites     SiteRegistry
	audit     audit.Sink
	clock     dbtime.Clock
	validator *FieldValidator
	opts      Options
}

type Deps struct {
	Store Store
	Sites SiteRegistry // optional; without it no geofence is ever violated
	Audit audit.Sink   // optional; defaults to audit.LogSink
	Clock dbtime.Clock // optional; defaults to dbtime.SystemClock
}

func NewTimeEntryService(d Deps, opts Options) *TimeEntryService {
	opts = opts.withDefaults()
	if d.Audit == nil {
		d.Audit = audit.LogSink{}
	}
	if d.Clock == nil {
		d.Clock = dbtime.SystemClock{}
	}
	return &TimeEntryService{
		store:     d.Store,
		sites:     d.Sites,
		audit:     d.Audit,
		clock:     d.Clock,
		validator: NewFieldValidator(opts.MaxSyncAttempts),
		opts:      opts,
	}
}

func (s *TimeEntryService) Options() Options { return s.opts }

func (s *TimeEntryService) Validator() *FieldValidator { return s.validator }

func (s *TimeEntryService) emit(ctx context.Context, action audit.Action, actor *uuid.UUID, before *model.TimeEntryModel, after *model.TimeEntryModel) {
	ev := audit.Event{
		EntryID: after.TimeEntryID,
		Action:  action,
		ActorID: actor,
		After:   *after,
		At:      s.clock.Now(),
	}
	if before != nil {
		ev.Before = *before
	}
	s.audit.Emit(ctx, ev)
}

func (s *TimeEntryService) get(ctx context.Context, id uuid.UUID) (*model.TimeEntryModel, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, infra("load time entry", err)
	}
	return m, nil
}

// sessionEntries loads the session's non-rejected entries in session order.
func sessionEntries(ctx context.Context, st Store, sessionID uuid.UUID) ([]model.TimeEntryModel, error) {
	rows, err := st.Find(ctx, EntryFilter{
		SessionID:   &sessionID,
		StatusNotIn: excludeRejected,
	})
	if err != nil {
		return nil, infra("load session entries", err)
	}
	return rows, nil
}
