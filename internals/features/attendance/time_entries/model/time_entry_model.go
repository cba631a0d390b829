package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================
   Enums (selaras dgn DB)
========================= */

type PointageType string

const (
	PointageClockIn         PointageType = "CLOCK_IN"
	PointagePauseStart      PointageType = "PAUSE_START"
	PointagePauseEnd        PointageType = "PAUSE_END"
	PointageClockOut        PointageType = "CLOCK_OUT"
	PointageExternalMission PointageType = "EXTERNAL_MISSION"
)

// PointageTypes lists every accepted punch type.
var PointageTypes = []PointageType{
	PointageClockIn,
	PointagePauseStart,
	PointagePauseEnd,
	PointageClockOut,
	PointageExternalMission,
}

func (t PointageType) Valid() bool {
	for _, v := range PointageTypes {
		if v == t {
			return true
		}
	}
	return false
}

type PointageStatus string

const (
	StatusDraft     PointageStatus = "DRAFT"
	StatusPending   PointageStatus = "PENDING"
	StatusValidated PointageStatus = "VALIDATED"
	StatusCorrected PointageStatus = "CORRECTED"
	StatusRejected  PointageStatus = "REJECTED"
)

var PointageStatuses = []PointageStatus{
	StatusDraft,
	StatusPending,
	StatusValidated,
	StatusCorrected,
	StatusRejected,
}

func (s PointageStatus) Valid() bool {
	for _, v := range PointageStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// RequiresReason reports whether moving into s needs a correction reason.
func (s PointageStatus) RequiresReason() bool {
	return s == StatusCorrected || s == StatusRejected
}

/* =========================================
   Model: time_entries
========================================= */

type TimeEntryModel struct {
	// PK + public token
	TimeEntryID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:time_entry_id" json:"time_entry_id"`
	TimeEntryGUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:time_entry_guid" json:"time_entry_guid"`

	// Client-side id, only meaningful for offline entries.
	// Unique per user through a partial index (see databases.Migrate).
	TimeEntryLocalID *string `gorm:"type:varchar(100);column:time_entry_local_id" json:"time_entry_local_id,omitempty"`

	// Relasi
	TimeEntrySessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_time_entries_session_clocked,priority:1;column:time_entry_session_id" json:"time_entry_session_id"`
	TimeEntryUserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_time_entries_user_clocked,priority:1;column:time_entry_user_id" json:"time_entry_user_id"`
	TimeEntrySiteID    uuid.UUID `gorm:"type:uuid;not null;index;column:time_entry_site_id" json:"time_entry_site_id"`

	// Klasifikasi
	TimeEntryPointageType   PointageType   `gorm:"type:varchar(32);not null;column:time_entry_pointage_type" json:"time_entry_pointage_type"`
	TimeEntryPointageStatus PointageStatus `gorm:"type:varchar(32);not null;default:'PENDING';index;column:time_entry_pointage_status" json:"time_entry_pointage_status"`

	// Temporal
	TimeEntryClockedAt        time.Time  `gorm:"type:timestamptz;not null;index:idx_time_entries_session_clocked,priority:2;index:idx_time_entries_user_clocked,priority:2;column:time_entry_clocked_at" json:"time_entry_clocked_at"`
	TimeEntryRealClockedAt    *time.Time `gorm:"type:timestamptz;column:time_entry_real_clocked_at" json:"time_entry_real_clocked_at,omitempty"`
	TimeEntryServerReceivedAt time.Time  `gorm:"type:timestamptz;not null;column:time_entry_server_received_at" json:"time_entry_server_received_at"`

	// Lokasi
	TimeEntryLatitude    *float64 `gorm:"column:time_entry_latitude" json:"time_entry_latitude"`
	TimeEntryLongitude   *float64 `gorm:"column:time_entry_longitude" json:"time_entry_longitude"`
	TimeEntryGPSAccuracy *float64 `gorm:"column:time_entry_gps_accuracy" json:"time_entry_gps_accuracy,omitempty"`

	// Provenance
	TimeEntryDeviceInfo datatypes.JSONMap `gorm:"type:jsonb;column:time_entry_device_info" json:"time_entry_device_info,omitempty"`
	TimeEntryIPAddress  *string           `gorm:"type:varchar(64);column:time_entry_ip_address" json:"time_entry_ip_address,omitempty"`
	TimeEntryUserAgent  *string           `gorm:"type:text;column:time_entry_user_agent" json:"time_entry_user_agent,omitempty"`

	// Offline bookkeeping
	TimeEntryCreatedOffline  bool       `gorm:"not null;default:false;column:time_entry_created_offline" json:"time_entry_created_offline"`
	TimeEntrySyncAttempts    int        `gorm:"not null;default:0;column:time_entry_sync_attempts" json:"time_entry_sync_attempts"`
	TimeEntryLastSyncAttempt *time.Time `gorm:"type:timestamptz;column:time_entry_last_sync_attempt" json:"time_entry_last_sync_attempt,omitempty"`

	// Anotasi
	TimeEntryMemoID           *uuid.UUID `gorm:"type:uuid;column:time_entry_memo_id" json:"time_entry_memo_id,omitempty"`
	TimeEntryCorrectionReason *string    `gorm:"type:text;column:time_entry_correction_reason" json:"time_entry_correction_reason,omitempty"`
	TimeEntryCorrectedBy      *uuid.UUID `gorm:"type:uuid;column:time_entry_corrected_by" json:"time_entry_corrected_by,omitempty"`

	// Audit
	TimeEntryCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:time_entry_created_at" json:"time_entry_created_at"`
	TimeEntryUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:time_entry_updated_at" json:"time_entry_updated_at"`
	TimeEntryDeletedAt gorm.DeletedAt `gorm:"column:time_entry_deleted_at;index" json:"time_entry_deleted_at,omitempty"`
}

func (TimeEntryModel) TableName() string { return "time_entries" }

// EffectiveClockedAt is the administrator-corrected time when there is one,
// otherwise the worker's claim.
func (m *TimeEntryModel) EffectiveClockedAt() time.Time {
	if m.TimeEntryRealClockedAt != nil {
		return *m.TimeEntryRealClockedAt
	}
	return m.TimeEntryClockedAt
}

// HasPosition reports whether both coordinates are present.
func (m *TimeEntryModel) HasPosition() bool {
	return m.TimeEntryLatitude != nil && m.TimeEntryLongitude != nil
}

func (m *TimeEntryModel) IsRejected() bool {
	return m.TimeEntryPointageStatus == StatusRejected
}
