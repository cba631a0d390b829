package seeds

import (
	"path/filepath"

	"gorm.io/gorm"

	"pointage_backend/internals/seeds/sites"
)

// RunAllSeeds loads every seed file found under dir.
func RunAllSeeds(db *gorm.DB, dir string) error {
	return sites.SeedSitesFromJSON(db, filepath.Join(dir, "sites", "data_sites.json"))
}
