package service

import (
	"errors"
	"fmt"
	"strings"

	"pointage_backend/internals/features/attendance/time_entries/model"
)

var (
	// ErrLocalIDConflict means an entry with the same (user, local id)
	// already exists. For offline sync this is an expected outcome.
	ErrLocalIDConflict = errors.New("time entry already exists for this local id")

	ErrEntryNotFound = errors.New("time entry not found")
)

// Violation is one failed field rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a single pass.
// Nothing is written when it is returned.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields groups messages by field, the shape helper.JsonValidationError wants.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v.Message)
	}
	return out
}

// SequenceViolationError rejects a punch type that cannot follow the
// session entry before it, or that the session entry after it cannot
// follow (Next set). The entry is not persisted.
type SequenceViolationError struct {
	Last     model.SessionState
	Proposed model.PointageType
	Allowed  []model.PointageType
	Next     *model.PointageType
}

func (e *SequenceViolationError) Error() string {
	if e.Next != nil {
		return fmt.Sprintf("%s cannot precede %s", e.Proposed, *e.Next)
	}
	last := string(e.Last)
	if e.Last == model.SessionEmpty {
		last = "<empty session>"
	}
	return fmt.Sprintf("%s cannot follow %s", e.Proposed, last)
}

// InfrastructureError wraps a persistence or lookup failure so callers can
// tell it apart from business errors and decide whether to retry.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *InfrastructureError) Unwrap() error { return e.Err }

func infra(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrLocalIDConflict) {
		return err
	}
	var ie *InfrastructureError
	if errors.As(err, &ie) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsSequenceViolation(err error) bool {
	var se *SequenceViolationError
	return errors.As(err, &se)
}

func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}
