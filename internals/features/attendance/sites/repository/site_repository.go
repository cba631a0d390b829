package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	siteModel "pointage_backend/internals/features/attendance/sites/model"
)

var ErrSiteNotFound = errors.New("site not found")

type SiteRepository struct {
	db *gorm.DB
}

func NewSiteRepository(db *gorm.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Geofence loads the site's boundary. A site without a boundary yields
// (nil, nil); an unknown site yields ErrSiteNotFound.
func (r *SiteRepository) Geofence(ctx context.Context, siteID uuid.UUID) (*siteModel.Geofence, error) {
	var site siteModel.SiteModel
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return site.Geofence(), nil
}
