// Package audit carries time-entry state changes to whoever keeps the audit
// trail. Persisting the trail is not done here; LogSink only writes them to
// the process log.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreated     Action = "created"
	ActionSyncCreated Action = "sync_created"
	ActionSynced      Action = "synced"
	ActionSyncAttempt Action = "sync_attempt"
	ActionUpdated     Action = "updated"
	ActionCorrected   Action = "corrected"
	ActionRejected    Action = "rejected"
	ActionValidated   Action = "validated"
)

// Event is one state transition of a time entry. Before is nil on creation.
type Event struct {
	EntryID uuid.UUID  `json:"entry_id"`
	Action  Action     `json:"action"`
	ActorID *uuid.UUID `json:"actor_id,omitempty"`
	Before  any        `json:"before,omitempty"`
	After   any        `json:"after"`
	At      time.Time  `json:"at"`
}

// Sink receives audit events. Implementations must not block the caller
// for long; a failing sink never undoes the state change.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// LogSink writes a one-line summary of every event.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, ev Event) {
	actor := "-"
	if ev.ActorID != nil {
		actor = ev.ActorID.String()
	}
	log.Printf("[AUDIT] entry=%s action=%s actor=%s at=%s", ev.EntryID, ev.Action, actor, ev.At.Format(time.RFC3339))
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
}

// Actions returns the recorded actions in order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Action)
	}
	return out
}
