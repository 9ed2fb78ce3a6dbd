package ingest

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds everything an ingest run needs. Values come from an optional
// YAML file with environment variables taking precedence.
type Config struct {
	DatabaseURL     string `yaml:"database_url"`
	FCCDataDir      string `yaml:"fcc_data_dir"`
	CensusDataDir   string `yaml:"census_data_dir"`
	ArchivePassword string `yaml:"archive_password"`
}

// LoadConfig reads the YAML file at path (skipped when path is empty) and
// applies environment overrides:
//   - DATABASE_URL
//   - FCC_DATA_DIR
//   - CENSUS_DATA_DIR
//   - ARCHIVE_PASSWORD
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("FCC_DATA_DIR"); v != "" {
		cfg.FCCDataDir = v
	}
	if v := os.Getenv("CENSUS_DATA_DIR"); v != "" {
		cfg.CensusDataDir = v
	}
	if v := os.Getenv("ARCHIVE_PASSWORD"); v != "" {
		cfg.ArchivePassword = v
	}
	return cfg, nil
}
