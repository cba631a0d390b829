package service

import (
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/audit"
	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/helpers/geo"
)

func TestWorkdayScenario(t *testing.T) {
	fx := newFixture(t)
	ctx := t.Context()

	fx.create(t, model.PointageClockIn, at(8, 0), 4.05, 9.70)
	pause := fx.create(t, model.PointagePauseStart, at(12, 0), 4.05, 9.70)

	_, err := fx.svc.CreateEntry(ctx, fx.punch(model.PointagePauseStart, at(12, 1), 4.05, 9.70))
	if !IsSequenceViolation(err) {
		t.Fatalf("second PAUSE_START: %v", err)
	}
	if len(fx.store.rows) != 2 {
		t.Fatalf("refused punch was stored, rows=%d", len(fx.store.rows))
	}

	out := fx.punch(model.PointageClockOut, at(17, 0), 4.50, 9.90)
	speed := EvaluateSpeed(pause.Entry, out, DefaultMaxSpeedKmh)
	want := geo.HaversineKm(geo.Point{Lat: 4.05, Lng: 9.70}, geo.Point{Lat: 4.50, Lng: 9.90}) / 5
	if speed.HasAnomaly || math.Abs(speed.CalculatedSpeed-want) > 1e-6 {
		t.Errorf("12:00 to 17:00: speed=%v want=%v anomaly=%v", speed.CalculatedSpeed, want, speed.HasAnomaly)
	}

	if _, err := fx.svc.CreateEntry(ctx, out); !IsSequenceViolation(err) {
		t.Fatalf("CLOCK_OUT during a pause: %v", err)
	}

	view, err := fx.svc.Session(ctx, fx.session)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if view.CanClockOut {
		t.Error("open pause must block clock out")
	}

	fx.create(t, model.PointagePauseEnd, at(16, 50), 4.49, 9.89)
	res := fx.create(t, model.PointageClockOut, at(17, 0), 4.50, 9.90)
	if res.Signals.Speed == nil || res.Signals.Speed.HasAnomaly {
		t.Errorf("CLOCK_OUT speed signal = %+v", res.Signals.Speed)
	}

	view, _ = fx.svc.Session(ctx, fx.session)
	if len(view.Entries) != 4 || view.CanClockOut || len(view.NextTypes) != 0 {
		t.Errorf("closed session view = %+v", view)
	}

	acts := fx.rec.Actions()
	if len(acts) != 4 {
		t.Fatalf("audit actions = %v", acts)
	}
	for _, a := range acts {
		if a != audit.ActionCreated {
			t.Errorf("unexpected action %s", a)
		}
	}
}

func TestCreateEntryForcesServerFields(t *testing.T) {
	fx := newFixture(t)
	m := fx.punch(model.PointageClockIn, at(8, 0), 4.05, 9.70)
	m.TimeEntryPointageStatus = model.StatusValidated
	m.TimeEntryCreatedOffline = true
	m.TimeEntryLocalID = str("client-7")

	res, err := fx.svc.CreateEntry(t.Context(), m)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	got := res.Entry
	if got.TimeEntryPointageStatus != model.StatusPending || got.TimeEntryCreatedOffline || got.TimeEntryLocalID != nil {
		t.Errorf("client-controlled fields leaked: %+v", got)
	}
	if got.TimeEntryID == uuid.Nil || got.TimeEntryGUID == uuid.Nil {
		t.Error("ids not assigned")
	}
	if !got.TimeEntryServerReceivedAt.Equal(fx.clock.T) {
		t.Errorf("server_received_at = %s", got.TimeEntryServerReceivedAt)
	}
}

func TestCreateEntryInvalidWritesNothing(t *testing.T) {
	fx := newFixture(t)
	m := fx.punch(model.PointageClockIn, at(8, 0), 4.05, 9.70)
	m.TimeEntryLongitude = nil

	if _, err := fx.svc.CreateEntry(t.Context(), m); !IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
	if len(fx.store.rows) != 0 || len(fx.rec.Actions()) != 0 {
		t.Error("invalid entry left traces")
	}
}

func TestCreateEntryConcurrentClockIn(t *testing.T) {
	fx := newFixture(t)
	ctx := t.Context()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.CreateEntry(ctx, fx.punch(model.PointageClockIn, at(8, 0), 4.05, 9.70))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !IsSequenceViolation(err):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("%d concurrent CLOCK_IN accepted, want 1", ok)
	}
}

func TestCreateEntryRejectsBackdatedPunch(t *testing.T) {
	fx := newFixture(t)
	ctx := t.Context()
	fx.create(t, model.PointageClockIn, at(8, 0), 4.05, 9.70)

	_, err := fx.svc.CreateEntry(ctx, fx.punch(model.PointagePauseStart, at(7, 0), 4.05, 9.70))
	if !IsSequenceViolation(err) {
		t.Fatalf("PAUSE_START before CLOCK_IN: err = %v", err)
	}
	_, err = fx.svc.CreateEntry(ctx, fx.punch(model.PointageClockIn, at(7, 30), 4.05, 9.70))
	if !IsSequenceViolation(err) {
		t.Fatalf("second CLOCK_IN before the first: err = %v", err)
	}
	fx.create(t, model.PointagePauseStart, at(12, 0), 4.05, 9.70)
	_, err = fx.svc.CreateEntry(ctx, fx.punch(model.PointagePauseStart, at(12, 30), 4.05, 9.70))
	if !IsSequenceViolation(err) {
		t.Fatalf("second PAUSE_START: err = %v", err)
	}

	rows, _ := fx.store.Find(ctx, EntryFilter{SessionID: &fx.session})
	for i := range rows {
		if !CanTransition(rows[:i], rows[i].TimeEntryPointageType) {
			t.Errorf("stored session is illegal at %d: %s", i, rows[i].TimeEntryPointageType)
		}
	}
	if len(rows) != 2 {
		t.Errorf("stored %d entries, want 2", len(rows))
	}
}

func TestCreateEntryReportsDuplicates(t *testing.T) {
	fx := newFixture(t)
	first := fx.create(t, model.PointageClockIn, at(8, 0), 4.05, 9.70)

	m := fx.punch(model.PointageClockIn, at(8, 5), 4.05, 9.70)
	m.TimeEntrySessionID = uuid.New()
	res, err := fx.svc.CreateEntry(t.Context(), m)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if len(res.Signals.Duplicates) != 1 || res.Signals.Duplicates[0] != first.Entry.TimeEntryID {
		t.Errorf("duplicates = %v", res.Signals.Duplicates)
	}
}

func TestListAndStats(t *testing.T) {
	fx := newFixture(t)
	ctx := t.Context()
	in := fx.create(t, model.PointageClockIn, at(8, 0), 4.05, 9.70)
	fx.create(t, model.PointagePauseStart, at(12, 0), 4.05, 9.70)
	fx.create(t, model.PointagePauseEnd, at(13, 0), 4.05, 9.70)
	if _, err := fx.svc.ApproveEntry(ctx, in.Entry.TimeEntryID, uuid.New()); err != nil {
		t.Fatal(err)
	}

	rows, total, err := fx.svc.ListEntries(ctx, EntryFilter{UserID: &fx.user, Limit: 2, Desc: true})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("total=%d page=%d", total, len(rows))
	}
	if rows[0].TimeEntryPointageType != model.PointagePauseEnd {
		t.Errorf("newest first broken: %s", rows[0].TimeEntryPointageType)
	}

	st, err := fx.svc.Stats(ctx, fx.user, at(0, 0), at(23, 59))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 3 || st.ByStatus[string(model.StatusValidated)] != 1 || st.ByStatus[string(model.StatusPending)] != 2 {
		t.Errorf("stats = %+v", st)
	}
	if st.ByType[string(model.PointageClockIn)] != 1 {
		t.Errorf("by type = %v", st.ByType)
	}

	users, err := fx.svc.ActiveUsers(ctx, 0)
	if err != nil || len(users) != 1 || users[0] != fx.user {
		t.Errorf("ActiveUsers = %v, %v", users, err)
	}
}
