package model

// SessionState is the sequence position of a work session: the type of its
// last entry, or SessionEmpty before the first punch.
type SessionState string

const SessionEmpty SessionState = ""

// StateOf maps the last entry type of a session to its state.
func StateOf(last PointageType) SessionState { return SessionState(last) }

// Transitions is the legal-successor table of the punch sequence.
// CLOCK_OUT has no successors; once a session is closed nothing else fits.
var Transitions = map[SessionState][]PointageType{
	SessionEmpty:                     {PointageClockIn},
	StateOf(PointageClockIn):         {PointagePauseStart, PointageClockOut, PointageExternalMission},
	StateOf(PointagePauseStart):      {PointagePauseEnd},
	StateOf(PointagePauseEnd):        {PointagePauseStart, PointageClockOut, PointageExternalMission},
	StateOf(PointageExternalMission): {PointageClockOut},
	StateOf(PointageClockOut):        {},
}
