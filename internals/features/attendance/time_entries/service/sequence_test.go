package service

import (
	"errors"
	"testing"
	"time"

	"pointage_backend/internals/features/attendance/time_entries/model"
)

func history(types ...model.PointageType) []model.TimeEntryModel {
	out := make([]model.TimeEntryModel, 0, len(types))
	for _, typ := range types {
		out = append(out, model.TimeEntryModel{TimeEntryPointageType: typ, TimeEntryPointageStatus: model.StatusPending})
	}
	return out
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		prior    []model.TimeEntryModel
		proposed model.PointageType
		want     bool
	}{
		{"empty accepts clock in", nil, model.PointageClockIn, true},
		{"empty refuses clock out", nil, model.PointageClockOut, false},
		{"empty refuses pause", nil, model.PointagePauseStart, false},
		{"clock in then pause", history(model.PointageClockIn), model.PointagePauseStart, true},
		{"clock in then mission", history(model.PointageClockIn), model.PointageExternalMission, true},
		{"clock in then clock out", history(model.PointageClockIn), model.PointageClockOut, true},
		{"clock in twice", history(model.PointageClockIn), model.PointageClockIn, false},
		{"double pause start", history(model.PointageClockIn, model.PointagePauseStart), model.PointagePauseStart, false},
		{"pause start then clock out", history(model.PointageClockIn, model.PointagePauseStart), model.PointageClockOut, false},
		{"pause start then end", history(model.PointageClockIn, model.PointagePauseStart), model.PointagePauseEnd, true},
		{"pause end then pause again", history(model.PointageClockIn, model.PointagePauseStart, model.PointagePauseEnd), model.PointagePauseStart, true},
		{"pause end without start", history(model.PointageClockIn), model.PointagePauseEnd, false},
		{"mission then clock out", history(model.PointageClockIn, model.PointageExternalMission), model.PointageClockOut, true},
		{"mission then pause", history(model.PointageClockIn, model.PointageExternalMission), model.PointagePauseStart, false},
		{"closed session", history(model.PointageClockIn, model.PointageClockOut), model.PointageClockIn, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.prior, tt.proposed); got != tt.want {
				t.Errorf("CanTransition(%v) = %v, want %v", tt.proposed, got, tt.want)
			}
		})
	}
}

func TestTransitionsCoverEveryType(t *testing.T) {
	for _, typ := range model.PointageTypes {
		if _, ok := model.Transitions[model.StateOf(typ)]; !ok {
			t.Errorf("no transition row for state %s", typ)
		}
	}
	if _, ok := model.Transitions[model.SessionEmpty]; !ok {
		t.Error("no transition row for the empty session")
	}
	for state, next := range model.Transitions {
		for _, typ := range next {
			if !typ.Valid() {
				t.Errorf("state %q lists unknown type %q", state, typ)
			}
		}
	}
}

func TestSequenceIgnoresRejectedEntries(t *testing.T) {
	prior := history(model.PointageClockIn, model.PointagePauseStart)
	prior[1].TimeEntryPointageStatus = model.StatusRejected

	if !CanTransition(prior, model.PointagePauseStart) {
		t.Error("a rejected PAUSE_START must not block a new one")
	}
	if !CanClockOut(prior) {
		t.Error("session with only CLOCK_IN effective should allow clock out")
	}
}

func TestCanClockOut(t *testing.T) {
	tests := []struct {
		name  string
		prior []model.TimeEntryModel
		want  bool
	}{
		{"empty", nil, false},
		{"clocked in", history(model.PointageClockIn), true},
		{"open pause", history(model.PointageClockIn, model.PointagePauseStart), false},
		{"pause closed", history(model.PointageClockIn, model.PointagePauseStart, model.PointagePauseEnd), true},
		{"on mission", history(model.PointageClockIn, model.PointageExternalMission), true},
		{"already out", history(model.PointageClockIn, model.PointageClockOut), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanClockOut(tt.prior); got != tt.want {
				t.Errorf("CanClockOut = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckSequenceError(t *testing.T) {
	err := checkSequence(history(model.PointageClockIn, model.PointagePauseStart), model.PointagePauseStart)
	var se *SequenceViolationError
	if !errors.As(err, &se) {
		t.Fatalf("want SequenceViolationError, got %v", err)
	}
	if se.Last != model.StateOf(model.PointagePauseStart) {
		t.Errorf("Last = %q", se.Last)
	}
	if len(se.Allowed) != 1 || se.Allowed[0] != model.PointagePauseEnd {
		t.Errorf("Allowed = %v, want [PAUSE_END]", se.Allowed)
	}
	if !IsSequenceViolation(err) || IsValidation(err) {
		t.Error("error classification is wrong")
	}
}

// timed builds a session history with one entry per hour from 08:00.
func timed(types ...model.PointageType) []model.TimeEntryModel {
	out := history(types...)
	for i := range out {
		out[i].TimeEntryClockedAt = at(8+i, 0)
	}
	return out
}

func TestCheckPlacement(t *testing.T) {
	tests := []struct {
		name     string
		prior    []model.TimeEntryModel
		proposed model.PointageType
		at       time.Time
		wantErr  bool
		wantNext bool
	}{
		{"append after last", timed(model.PointageClockIn), model.PointagePauseStart, at(12, 0), false, false},
		{"same time as last sorts after it", timed(model.PointageClockIn), model.PointagePauseStart, at(8, 0), false, false},
		{"before clock in of empty prefix", timed(model.PointageClockIn), model.PointagePauseStart, at(7, 0), true, false},
		{"second clock in before first", timed(model.PointageClockIn), model.PointageClockIn, at(7, 0), true, true},
		{"pause start inside a pause", timed(model.PointageClockIn, model.PointagePauseStart, model.PointagePauseEnd), model.PointagePauseStart, at(9, 30), true, false},
		{"back-dated clock out before a pause", timed(model.PointageClockIn, model.PointagePauseStart), model.PointageClockOut, at(8, 30), true, true},
		{"pause start before a clock out", timed(model.PointageClockIn, model.PointageClockOut), model.PointagePauseStart, at(8, 30), true, true},
		{"into an empty session", nil, model.PointageClockIn, at(8, 0), false, false},
		{"back-dated mission that fits", timed(model.PointageClockIn, model.PointageClockOut), model.PointageExternalMission, at(8, 30), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPlacement(tt.prior, tt.proposed, tt.at)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var se *SequenceViolationError
			if !errors.As(err, &se) {
				t.Fatalf("want SequenceViolationError, got %T", err)
			}
			if (se.Next != nil) != tt.wantNext {
				t.Errorf("Next = %v, wantNext %v", se.Next, tt.wantNext)
			}
		})
	}
}

func TestCheckPlacementSkipsRejectedSuccessor(t *testing.T) {
	prior := timed(model.PointageClockIn, model.PointageClockOut)
	prior[1].TimeEntryPointageStatus = model.StatusRejected
	if err := checkPlacement(prior, model.PointagePauseStart, at(8, 30)); err != nil {
		t.Errorf("rejected successor must not block: %v", err)
	}
}
