package model

// Column names used by field-scoped updates and filters.
const (
	ColLocalID          = "time_entry_local_id"
	ColSessionID        = "time_entry_session_id"
	ColUserID           = "time_entry_user_id"
	ColSiteID           = "time_entry_site_id"
	ColPointageType     = "time_entry_pointage_type"
	ColPointageStatus   = "time_entry_pointage_status"
	ColClockedAt        = "time_entry_clocked_at"
	ColRealClockedAt    = "time_entry_real_clocked_at"
	ColLatitude         = "time_entry_latitude"
	ColLongitude        = "time_entry_longitude"
	ColGPSAccuracy      = "time_entry_gps_accuracy"
	ColDeviceInfo       = "time_entry_device_info"
	ColUserAgent        = "time_entry_user_agent"
	ColCreatedOffline   = "time_entry_created_offline"
	ColSyncAttempts     = "time_entry_sync_attempts"
	ColLastSyncAttempt  = "time_entry_last_sync_attempt"
	ColMemoID           = "time_entry_memo_id"
	ColCorrectionReason = "time_entry_correction_reason"
	ColCorrectedBy      = "time_entry_corrected_by"
)
