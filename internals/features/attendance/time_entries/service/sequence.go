package service

import (
	"time"

	"pointage_backend/internals/features/attendance/time_entries/model"
)

// sessionState reads the state off the last non-rejected entry; prior must be
// in session order.
func sessionState(prior []model.TimeEntryModel) model.SessionState {
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].IsRejected() {
			continue
		}
		return model.StateOf(prior[i].TimeEntryPointageType)
	}
	return model.SessionEmpty
}

// NextTypes lists the punch types the session accepts next.
func NextTypes(prior []model.TimeEntryModel) []model.PointageType {
	return model.Transitions[sessionState(prior)]
}

// CanTransition reports whether proposed may follow the session's prior
// entries.
func CanTransition(prior []model.TimeEntryModel, proposed model.PointageType) bool {
	for _, t := range NextTypes(prior) {
		if t == proposed {
			return true
		}
	}
	return false
}

// CanClockOut is false for an empty session and for an open pause.
func CanClockOut(prior []model.TimeEntryModel) bool {
	state := sessionState(prior)
	if state == model.SessionEmpty || state == model.StateOf(model.PointagePauseStart) {
		return false
	}
	return CanTransition(prior, model.PointageClockOut)
}

func checkSequence(prior []model.TimeEntryModel, proposed model.PointageType) error {
	if CanTransition(prior, proposed) {
		return nil
	}
	return &SequenceViolationError{
		Last:     sessionState(prior),
		Proposed: proposed,
		Allowed:  NextTypes(prior),
	}
}

// follows reports whether next is a legal successor of prev.
func follows(prev, next model.PointageType) bool {
	for _, t := range model.Transitions[model.StateOf(prev)] {
		if t == next {
			return true
		}
	}
	return false
}

// checkPlacement checks proposed where clockedAt puts it in the session,
// not only against the last entry: it must follow the entries at or
// before clockedAt, and the first later entry must still follow it.
// Entries with the same clockedAt sort before the new one.
func checkPlacement(prior []model.TimeEntryModel, proposed model.PointageType, clockedAt time.Time) error {
	cut := len(prior)
	for i := range prior {
		if prior[i].TimeEntryClockedAt.After(clockedAt) {
			cut = i
			break
		}
	}
	if err := checkSequence(prior[:cut], proposed); err != nil {
		return err
	}
	for _, later := range prior[cut:] {
		if later.IsRejected() {
			continue
		}
		if !follows(proposed, later.TimeEntryPointageType) {
			next := later.TimeEntryPointageType
			return &SequenceViolationError{
				Last:     sessionState(prior[:cut]),
				Proposed: proposed,
				Allowed:  NextTypes(prior[:cut]),
				Next:     &next,
			}
		}
		break
	}
	return nil
}
