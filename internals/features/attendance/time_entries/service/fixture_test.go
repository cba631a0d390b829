package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/audit"
	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/helpers/dbtime"
)

var workday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return workday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }

type fixture struct {
	store   *memStore
	rec     *audit.Recorder
	clock   *dbtime.FixedClock
	sites   fenceRegistry
	svc     *TimeEntryService
	session uuid.UUID
	user    uuid.UUID
	site    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		store:   newMemStore(),
		rec:     &audit.Recorder{},
		clock:   &dbtime.FixedClock{T: at(18, 0)},
		sites:   fenceRegistry{},
		session: uuid.New(),
		user:    uuid.New(),
		site:    uuid.New(),
	}
	fx.svc = NewTimeEntryService(Deps{
		Store: fx.store,
		Sites: fx.sites,
		Audit: fx.rec,
		Clock: fx.clock,
	}, Options{})
	return fx
}

// punch builds an unsaved entry of the fixture's session, user and site.
func (fx *fixture) punch(typ model.PointageType, clockedAt time.Time, lat, lng float64) *model.TimeEntryModel {
	return &model.TimeEntryModel{
		TimeEntrySessionID:    fx.session,
		TimeEntryUserID:       fx.user,
		TimeEntrySiteID:       fx.site,
		TimeEntryPointageType: typ,
		TimeEntryClockedAt:    clockedAt,
		TimeEntryLatitude:     f64(lat),
		TimeEntryLongitude:    f64(lng),
	}
}

// create submits an online punch and fails the test on error.
func (fx *fixture) create(t *testing.T, typ model.PointageType, clockedAt time.Time, lat, lng float64) *CreateResult {
	t.Helper()
	res, err := fx.svc.CreateEntry(t.Context(), fx.punch(typ, clockedAt, lat, lng))
	if err != nil {
		t.Fatalf("CreateEntry(%s @ %s): %v", typ, clockedAt.Format("15:04"), err)
	}
	return res
}

// offline builds a sync item with a local id.
func (fx *fixture) offline(localID string, typ model.PointageType, clockedAt time.Time, lat, lng float64) model.TimeEntryModel {
	m := fx.punch(typ, clockedAt, lat, lng)
	m.TimeEntryLocalID = str(localID)
	return *m
}
