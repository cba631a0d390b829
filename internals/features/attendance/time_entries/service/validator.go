package service

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/time_entries/model"
)

// entryFields is the validation view of a time entry. Tags hold the static
// rules; the struct-level rule covers the ones that depend on other fields
// or on configuration.
type entryFields struct {
	Session          uuid.UUID `json:"session" validate:"required"`
	User             uuid.UUID `json:"user" validate:"required"`
	Site             uuid.UUID `json:"site" validate:"required"`
	PointageType     string    `json:"pointage_type" validate:"required,pointage_type"`
	PointageStatus   string    `json:"pointage_status" validate:"required,pointage_status"`
	ClockedAt        time.Time `json:"clocked_at" validate:"required"`
	Latitude         *float64  `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude        *float64  `json:"longitude" validate:"required,gte=-180,lte=180"`
	GPSAccuracy      *float64  `json:"gps_accuracy" validate:"omitempty,gte=0"`
	SyncAttempts     int       `json:"sync_attempts" validate:"gte=0"`
	LocalID          *string   `json:"local_id" validate:"omitempty,max=100"`
	CreatedOffline   bool      `json:"created_offline"`
	CorrectionReason *string   `json:"correction_reason" validate:"omitempty,max=2000"`
}

func fieldsOf(m *model.TimeEntryModel) entryFields {
	return entryFields{
		Session:          m.TimeEntrySessionID,
		User:             m.TimeEntryUserID,
		Site:             m.TimeEntrySiteID,
		PointageType:     string(m.TimeEntryPointageType),
		PointageStatus:   string(m.TimeEntryPointageStatus),
		ClockedAt:        m.TimeEntryClockedAt,
		Latitude:         m.TimeEntryLatitude,
		Longitude:        m.TimeEntryLongitude,
		GPSAccuracy:      m.TimeEntryGPSAccuracy,
		SyncAttempts:     m.TimeEntrySyncAttempts,
		LocalID:          m.TimeEntryLocalID,
		CreatedOffline:   m.TimeEntryCreatedOffline,
		CorrectionReason: m.TimeEntryCorrectionReason,
	}
}

// FieldValidator runs the required/range/format checks every write path
// goes through. One pass reports every violation.
type FieldValidator struct {
	v               *validator.Validate
	maxSyncAttempts int
}

func NewFieldValidator(maxSyncAttempts int) *FieldValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("pointage_type", func(fl validator.FieldLevel) bool {
		return model.PointageType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("pointage_status", func(fl validator.FieldLevel) bool {
		return model.PointageStatus(fl.Field().String()).Valid()
	})

	fv := &FieldValidator{v: v, maxSyncAttempts: maxSyncAttempts}
	v.RegisterStructValidation(fv.entryRules, entryFields{})
	return fv
}

func (fv *FieldValidator) entryRules(sl validator.StructLevel) {
	e := sl.Current().Interface().(entryFields)

	if model.PointageStatus(e.PointageStatus).RequiresReason() &&
		(e.CorrectionReason == nil || strings.TrimSpace(*e.CorrectionReason) == "") {
		sl.ReportError(e.CorrectionReason, "correction_reason", "CorrectionReason", "required_for_status", e.PointageStatus)
	}
	if fv.maxSyncAttempts > 0 && e.SyncAttempts > fv.maxSyncAttempts {
		sl.ReportError(e.SyncAttempts, "sync_attempts", "SyncAttempts", "max", strconv.Itoa(fv.maxSyncAttempts))
	}
	if e.CreatedOffline && (e.LocalID == nil || strings.TrimSpace(*e.LocalID) == "") {
		sl.ReportError(e.LocalID, "local_id", "LocalID", "required_offline", "")
	}
}

// Validate checks m and returns a *ValidationError listing every
// violation, or nil.
func (fv *FieldValidator) Validate(m *model.TimeEntryModel) error {
	err := fv.v.Struct(fieldsOf(m))
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Violations: []Violation{{Field: "entry", Rule: "invalid", Message: err.Error()}}}
	}
	out := &ValidationError{Violations: make([]Violation, 0, len(verrs))}
	for _, fe := range verrs {
		out.Violations = append(out.Violations, Violation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: violationMessage(fe),
		})
	}
	return out
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "max":
		return "must not exceed " + fe.Param()
	case "pointage_type":
		return fmt.Sprintf("must be one of %v", model.PointageTypes)
	case "pointage_status":
		return fmt.Sprintf("must be one of %v", model.PointageStatuses)
	case "required_for_status":
		return "is required when status is " + fe.Param()
	case "required_offline":
		return "is required for offline entries"
	default:
		return "failed rule " + fe.Tag()
	}
}

func singleViolation(field, rule, msg string) error {
	return &ValidationError{Violations: []Violation{{Field: field, Rule: rule, Message: msg}}}
}
