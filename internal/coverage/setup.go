package coverage

import (
	"log"

	"github.com/girubato/broadband-data-explorer/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "coverage"); err != nil {
		log.Fatal("Failed to ensure schema coverage: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		log.Fatal("Failed to enable postgis extension: ", err)
	}

	if err := db.DB.AutoMigrate(
		&Provider{},
		&CensusBlock{},
		&BroadbandRecord{},
	); err != nil {
		log.Fatal("Failed to auto-migrate coverage tables: ", err)
	}

	// Spatial index for centroid/containment queries over block geometry.
	if err := db.DB.Exec(`
		CREATE INDEX IF NOT EXISTS census_blocks_geometry_idx
		ON coverage.census_blocks USING GIST (geometry);
	`).Error; err != nil {
		log.Fatal("Failed to create census_blocks_geometry_idx: ", err)
	}

	log.Println("Coverage module initialized")
}
