package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DATABASE_URL", "FCC_DATA_DIR", "CENSUS_DATA_DIR", "ARCHIVE_PASSWORD"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigYAML(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "ingest.yaml")
	body := "database_url: postgres://localhost/coverage\n" +
		"fcc_data_dir: /data/fcc\n" +
		"census_data_dir: /data/census\n" +
		"archive_password: hunter2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/coverage" ||
		cfg.FCCDataDir != "/data/fcc" ||
		cfg.CensusDataDir != "/data/census" ||
		cfg.ArchivePassword != "hunter2" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("FCC_DATA_DIR", "/override/fcc")

	path := filepath.Join(t.TempDir(), "ingest.yaml")
	if err := os.WriteFile(path, []byte("fcc_data_dir: /data/fcc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FCCDataDir != "/override/fcc" {
		t.Errorf("env should win over file, got %q", cfg.FCCDataDir)
	}
}

func TestLoadConfigNoFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env/only")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env/only" {
		t.Errorf("env-only config wrong: %+v", cfg)
	}
}

func TestLoadConfigBadPath(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for unreadable config path")
	}
}
