package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pointage_backend/internals/helpers/geo"
)

/* =========================================
   Model: sites (registry owned elsewhere;
   this service only reads the geofence)
========================================= */

type SiteModel struct {
	SiteID   uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:site_id" json:"site_id"`
	SiteName string         `gorm:"type:varchar(160);not null;column:site_name" json:"site_name"`
	SiteTags pq.StringArray `gorm:"type:text[];column:site_tags" json:"site_tags,omitempty"`

	// Geofence: a center + radius, an optional polygon ring, and a tolerance
	// band added around both.
	SiteCenterLat          *float64                       `gorm:"column:site_center_lat" json:"site_center_lat,omitempty"`
	SiteCenterLng          *float64                       `gorm:"column:site_center_lng" json:"site_center_lng,omitempty"`
	SiteRadiusM            *float64                       `gorm:"column:site_radius_m" json:"site_radius_m,omitempty"`
	SitePolygon            datatypes.JSONSlice[geo.Point] `gorm:"type:jsonb;column:site_polygon" json:"site_polygon,omitempty"`
	SiteGeofenceToleranceM float64                        `gorm:"not null;default:0;column:site_geofence_tolerance_m" json:"site_geofence_tolerance_m"`
	SiteTimezone           string                         `gorm:"type:varchar(64);not null;default:'UTC';column:site_timezone" json:"site_timezone"`

	SiteCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:site_created_at" json:"site_created_at"`
	SiteUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:site_updated_at" json:"site_updated_at"`
	SiteDeletedAt gorm.DeletedAt `gorm:"column:site_deleted_at;index" json:"site_deleted_at,omitempty"`
}

func (SiteModel) TableName() string { return "sites" }

// Geofence extracts the registered boundary. Nil when the site has none.
func (m *SiteModel) Geofence() *Geofence {
	g := &Geofence{
		SiteID:     m.SiteID,
		Polygon:    []geo.Point(m.SitePolygon),
		ToleranceM: m.SiteGeofenceToleranceM,
	}
	if m.SiteCenterLat != nil && m.SiteCenterLng != nil && m.SiteRadiusM != nil {
		g.Center = &geo.Point{Lat: *m.SiteCenterLat, Lng: *m.SiteCenterLng}
		g.RadiusM = *m.SiteRadiusM
	}
	if g.Center == nil && len(g.Polygon) < 3 {
		return nil
	}
	return g
}

// Geofence is the permitted boundary around a site.
type Geofence struct {
	SiteID     uuid.UUID   `json:"site_id"`
	Center     *geo.Point  `json:"center,omitempty"`
	RadiusM    float64     `json:"radius_m,omitempty"`
	Polygon    []geo.Point `json:"polygon,omitempty"`
	ToleranceM float64     `json:"tolerance_m"`
}

// Check reports whether p is inside the fence (radius or polygon, plus
// tolerance) and the distance in meters to the nearest accepted area
// (0 when inside).
func (g *Geofence) Check(p geo.Point) (inside bool, distanceM float64) {
	distanceM = -1

	if g.Center != nil {
		d := geo.HaversineKm(*g.Center, p)*1000 - g.RadiusM
		if d <= g.ToleranceM {
			return true, 0
		}
		distanceM = d
	}
	if len(g.Polygon) >= 3 {
		if geo.InPolygon(p, g.Polygon) {
			return true, 0
		}
		d := geo.DistanceToPolygonM(p, g.Polygon)
		if d <= g.ToleranceM {
			return true, 0
		}
		if distanceM < 0 || d < distanceM {
			distanceM = d
		}
	}
	if distanceM < 0 {
		return true, 0
	}
	return false, distanceM
}
