package dto

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/features/attendance/time_entries/service"
	"pointage_backend/internals/helpers/dbtime"
)

/* =========================
   Requests
========================= */

// CreateTimeEntryRequest is an online punch. The user comes from the token.
type CreateTimeEntryRequest struct {
	SessionID    uuid.UUID      `json:"session_id" validate:"required"`
	SiteID       uuid.UUID      `json:"site_id" validate:"required"`
	PointageType string         `json:"pointage_type" validate:"required"`
	ClockedAt    time.Time      `json:"clocked_at" validate:"required"`
	Latitude     *float64       `json:"latitude" validate:"required"`
	Longitude    *float64       `json:"longitude" validate:"required"`
	GPSAccuracy  *float64       `json:"gps_accuracy,omitempty"`
	DeviceInfo   map[string]any `json:"device_info,omitempty"`
	MemoID       *uuid.UUID     `json:"memo_id,omitempty"`
}

// RequestMeta is what the transport knows about the caller.
type RequestMeta struct {
	UserID    uuid.UUID
	IP        string
	UserAgent string
}

func MetaFrom(c *fiber.Ctx, userID uuid.UUID) RequestMeta {
	return RequestMeta{UserID: userID, IP: c.IP(), UserAgent: string(c.Request().Header.UserAgent())}
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (r *CreateTimeEntryRequest) ToModel(meta RequestMeta) *model.TimeEntryModel {
	m := &model.TimeEntryModel{
		TimeEntrySessionID:    r.SessionID,
		TimeEntryUserID:       meta.UserID,
		TimeEntrySiteID:       r.SiteID,
		TimeEntryPointageType: model.PointageType(strings.ToUpper(strings.TrimSpace(r.PointageType))),
		TimeEntryClockedAt:    r.ClockedAt.UTC(),
		TimeEntryLatitude:     r.Latitude,
		TimeEntryLongitude:    r.Longitude,
		TimeEntryGPSAccuracy:  r.GPSAccuracy,
		TimeEntryMemoID:       r.MemoID,
		TimeEntryIPAddress:    optString(meta.IP),
		TimeEntryUserAgent:    optString(meta.UserAgent),
	}
	if len(r.DeviceInfo) > 0 {
		m.TimeEntryDeviceInfo = datatypes.JSONMap(r.DeviceInfo)
	}
	return m
}

// SyncItemRequest is one punch recorded while the device was offline.
type SyncItemRequest struct {
	CreateTimeEntryRequest
	LocalID      string `json:"local_id"`
	SyncAttempts int    `json:"sync_attempts"`
}

type SyncBatchRequest struct {
	Items []SyncItemRequest `json:"items" validate:"required"`
}

// ToModels keeps the submitted order; field checks happen per item in the
// service so one bad item does not reject the batch.
func (r *SyncBatchRequest) ToModels(meta RequestMeta) []model.TimeEntryModel {
	out := make([]model.TimeEntryModel, 0, len(r.Items))
	for i := range r.Items {
		it := &r.Items[i]
		m := it.CreateTimeEntryRequest.ToModel(meta)
		m.TimeEntryLocalID = optString(it.LocalID)
		m.TimeEntrySyncAttempts = it.SyncAttempts
		out = append(out, *m)
	}
	return out
}

type CorrectionRequest struct {
	ClockedAt    *time.Time `json:"clocked_at,omitempty"`
	PointageType *string    `json:"pointage_type,omitempty"`
	SiteID       *uuid.UUID `json:"site_id,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	GPSAccuracy  *float64   `json:"gps_accuracy,omitempty"`
	MemoID       *uuid.UUID `json:"memo_id,omitempty"`
	Reason       string     `json:"reason"`
}

func (r *CorrectionRequest) ToCorrection() service.Correction {
	c := service.Correction{
		ClockedAt:   r.ClockedAt,
		SiteID:      r.SiteID,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		GPSAccuracy: r.GPSAccuracy,
		MemoID:      r.MemoID,
		Reason:      r.Reason,
	}
	if r.PointageType != nil {
		t := model.PointageType(strings.ToUpper(strings.TrimSpace(*r.PointageType)))
		c.PointageType = &t
	}
	return c
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type SyncStatusRequest struct {
	Attempts int `json:"attempts" validate:"gte=0"`
}

type PatchTimeEntryRequest struct {
	MemoID      *uuid.UUID     `json:"memo_id,omitempty"`
	GPSAccuracy *float64       `json:"gps_accuracy,omitempty"`
	DeviceInfo  map[string]any `json:"device_info,omitempty"`
	UserAgent   *string        `json:"user_agent,omitempty" validate:"omitempty,max=512"`
}

func (r *PatchTimeEntryRequest) ToPatch() service.EntryPatch {
	p := service.EntryPatch{
		MemoID:      r.MemoID,
		GPSAccuracy: r.GPSAccuracy,
		UserAgent:   r.UserAgent,
	}
	if r.DeviceInfo != nil {
		p.DeviceInfo = datatypes.JSONMap(r.DeviceInfo)
	}
	return p
}

/* =========================
   Responses
========================= */

type TimeEntryResponse struct {
	TimeEntryID        uuid.UUID            `json:"time_entry_id"`
	TimeEntryGUID      uuid.UUID            `json:"time_entry_guid"`
	LocalID            *string              `json:"local_id,omitempty"`
	SessionID          uuid.UUID            `json:"session_id"`
	UserID             uuid.UUID            `json:"user_id"`
	SiteID             uuid.UUID            `json:"site_id"`
	PointageType       model.PointageType   `json:"pointage_type"`
	PointageStatus     model.PointageStatus `json:"pointage_status"`
	ClockedAt          time.Time            `json:"clocked_at"`
	RealClockedAt      *time.Time           `json:"real_clocked_at,omitempty"`
	EffectiveClockedAt time.Time            `json:"effective_clocked_at"`
	ServerReceivedAt   time.Time            `json:"server_received_at"`
	Latitude           *float64             `json:"latitude,omitempty"`
	Longitude          *float64             `json:"longitude,omitempty"`
	GPSAccuracy        *float64             `json:"gps_accuracy,omitempty"`
	DeviceInfo         datatypes.JSONMap    `json:"device_info,omitempty"`
	CreatedOffline     bool                 `json:"created_offline"`
	SyncAttempts       int                  `json:"sync_attempts"`
	LastSyncAttempt    *time.Time           `json:"last_sync_attempt,omitempty"`
	MemoID             *uuid.UUID           `json:"memo_id,omitempty"`
	CorrectionReason   *string              `json:"correction_reason,omitempty"`
	CorrectedBy        *uuid.UUID           `json:"corrected_by,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// FromModel renders times in the request's site timezone.
func FromModel(c *fiber.Ctx, m *model.TimeEntryModel) TimeEntryResponse {
	return TimeEntryResponse{
		TimeEntryID:        m.TimeEntryID,
		TimeEntryGUID:      m.TimeEntryGUID,
		LocalID:            m.TimeEntryLocalID,
		SessionID:          m.TimeEntrySessionID,
		UserID:             m.TimeEntryUserID,
		SiteID:             m.TimeEntrySiteID,
		PointageType:       m.TimeEntryPointageType,
		PointageStatus:     m.TimeEntryPointageStatus,
		ClockedAt:          dbtime.ToSiteTime(c, m.TimeEntryClockedAt),
		RealClockedAt:      dbtime.ToSiteTimePtr(c, m.TimeEntryRealClockedAt),
		EffectiveClockedAt: dbtime.ToSiteTime(c, m.EffectiveClockedAt()),
		ServerReceivedAt:   dbtime.ToSiteTime(c, m.TimeEntryServerReceivedAt),
		Latitude:           m.TimeEntryLatitude,
		Longitude:          m.TimeEntryLongitude,
		GPSAccuracy:        m.TimeEntryGPSAccuracy,
		DeviceInfo:         m.TimeEntryDeviceInfo,
		CreatedOffline:     m.TimeEntryCreatedOffline,
		SyncAttempts:       m.TimeEntrySyncAttempts,
		LastSyncAttempt:    dbtime.ToSiteTimePtr(c, m.TimeEntryLastSyncAttempt),
		MemoID:             m.TimeEntryMemoID,
		CorrectionReason:   m.TimeEntryCorrectionReason,
		CorrectedBy:        m.TimeEntryCorrectedBy,
		CreatedAt:          dbtime.ToSiteTime(c, m.TimeEntryCreatedAt),
		UpdatedAt:          dbtime.ToSiteTime(c, m.TimeEntryUpdatedAt),
	}
}

func FromModels(c *fiber.Ctx, rows []model.TimeEntryModel) []TimeEntryResponse {
	out := make([]TimeEntryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(c, &rows[i]))
	}
	return out
}

type CreateTimeEntryResponse struct {
	Entry      TimeEntryResponse `json:"entry"`
	Signals    service.Signals   `json:"signals"`
	Suspicious bool              `json:"suspicious"`
}

type SessionResponse struct {
	SessionID   uuid.UUID            `json:"session_id"`
	Entries     []TimeEntryResponse  `json:"entries"`
	CanClockOut bool                 `json:"can_clock_out"`
	NextTypes   []model.PointageType `json:"next_types"`
}

func FromSessionView(c *fiber.Ctx, v *service.SessionView) SessionResponse {
	next := v.NextTypes
	if next == nil {
		next = []model.PointageType{}
	}
	return SessionResponse{
		SessionID:   v.SessionID,
		Entries:     FromModels(c, v.Entries),
		CanClockOut: v.CanClockOut,
		NextTypes:   next,
	}
}
