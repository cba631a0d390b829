package sites

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"pointage_backend/internals/features/attendance/sites/model"
	"pointage_backend/internals/helpers/geo"
)

// SiteSeed is one entry of the sites JSON file.
type SiteSeed struct {
	Name       string      `json:"site_name"`
	Tags       []string    `json:"site_tags"`
	CenterLat  *float64    `json:"site_center_lat"`
	CenterLng  *float64    `json:"site_center_lng"`
	RadiusM    *float64    `json:"site_radius_m"`
	Polygon    []geo.Point `json:"site_polygon"`
	ToleranceM float64     `json:"site_geofence_tolerance_m"`
	Timezone   string      `json:"site_timezone"`
}

func (s SiteSeed) toModel() model.SiteModel {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	return model.SiteModel{
		SiteName:               strings.TrimSpace(s.Name),
		SiteTags:               s.Tags,
		SiteCenterLat:          s.CenterLat,
		SiteCenterLng:          s.CenterLng,
		SiteRadiusM:            s.RadiusM,
		SitePolygon:            s.Polygon,
		SiteGeofenceToleranceM: s.ToleranceM,
		SiteTimezone:           tz,
	}
}

// LoadSiteSeeds reads and checks the seed file without touching the DB.
func LoadSiteSeeds(filePath string) ([]SiteSeed, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	var seeds []SiteSeed
	if err := sonic.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	for i, s := range seeds {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("site #%d: site_name is required", i)
		}
		if (s.CenterLat == nil) != (s.CenterLng == nil) {
			return nil, fmt.Errorf("site %q: center needs both lat and lng", s.Name)
		}
		if len(s.Polygon) > 0 && len(s.Polygon) < 3 {
			return nil, fmt.Errorf("site %q: polygon needs at least 3 points", s.Name)
		}
	}
	return seeds, nil
}

// SeedSitesFromJSON inserts the sites of filePath, skipping names that
// already exist.
func SeedSitesFromJSON(db *gorm.DB, filePath string) error {
	log.Println("[SEED] reading", filePath)
	seeds, err := LoadSiteSeeds(filePath)
	if err != nil {
		return err
	}

	for _, s := range seeds {
		var n int64
		if err := db.Model(&model.SiteModel{}).Where("site_name = ?", strings.TrimSpace(s.Name)).Count(&n).Error; err != nil {
			return fmt.Errorf("lookup site %q: %w", s.Name, err)
		}
		if n > 0 {
			log.Printf("[SEED] site %q exists, skipping", s.Name)
			continue
		}
		m := s.toModel()
		if err := db.Create(&m).Error; err != nil {
			return fmt.Errorf("insert site %q: %w", s.Name, err)
		}
		log.Printf("[SEED] site %q inserted (%s)", m.SiteName, m.SiteID)
	}
	return nil
}
