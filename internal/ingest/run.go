package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileFailure records one source file that could not be ingested, with the
// first underlying cause.
type FileFailure struct {
	File string
	Err  error
}

// Summary is the user-visible outcome of one ingest run. Partial success is
// always distinguishable from full success: skips and failures are counted
// and named.
type Summary struct {
	RunID           uuid.UUID
	BlocksLoaded    int
	BlocksDropped   int
	ProvidersMerged int64
	RecordsMerged   int64
	RowsSkipped     int
	FilesSkipped    []string
	Failures        []FileFailure
}

type fileResult struct {
	Providers int64
	Records   int64
	Skipped   int
}

// Run ingests the census blocks archive (if configured) and every recognized
// coverage file, one transaction per file. A file's failure aborts only that
// file; an unreachable store aborts the whole run.
func Run(db *gorm.DB, cfg Config) (Summary, error) {
	sum := Summary{RunID: uuid.New()}

	sqlDB, err := db.DB()
	if err != nil {
		return sum, fmt.Errorf("store handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return sum, fmt.Errorf("store unreachable: %w", err)
	}

	log.Printf("[ingest] run %s starting", sum.RunID)

	if cfg.CensusDataDir != "" {
		archive, err := FindBlocksArchive(cfg.CensusDataDir)
		if err != nil {
			sum.Failures = append(sum.Failures, FileFailure{File: cfg.CensusDataDir, Err: err})
			log.Printf("[ingest] census blocks: %v", err)
		} else {
			report, err := ImportBlocks(db, archive, cfg.ArchivePassword)
			if err != nil {
				sum.Failures = append(sum.Failures, FileFailure{File: filepath.Base(archive), Err: err})
				log.Printf("[ingest] %s failed: %v", filepath.Base(archive), err)
			} else {
				sum.BlocksLoaded = report.Loaded
				sum.BlocksDropped = report.Dropped
				log.Printf("[ingest] loaded %d census blocks (%d dropped)", report.Loaded, report.Dropped)
			}
		}
	}

	files, err := DiscoverCoverageFiles(cfg.FCCDataDir)
	if err != nil {
		return sum, err
	}

	for _, path := range files {
		name := filepath.Base(path)

		tech, ok := Classify(name)
		if !ok {
			sum.FilesSkipped = append(sum.FilesSkipped, name)
			log.Printf("[ingest] %s: unrecognized technology, skipped", name)
			continue
		}

		res, err := importCoverageFile(db, path, tech, cfg.ArchivePassword)
		if err != nil {
			sum.Failures = append(sum.Failures, FileFailure{File: name, Err: err})
			log.Printf("[ingest] %s failed: %v", name, err)
			// A dead connection fails every remaining file the same way;
			// bail out of the run instead of reporting it N times.
			if pingErr := sqlDB.Ping(); pingErr != nil {
				return sum, fmt.Errorf("store unreachable after %s: %w", name, pingErr)
			}
			continue
		}

		sum.ProvidersMerged += res.Providers
		sum.RecordsMerged += res.Records
		sum.RowsSkipped += res.Skipped
		log.Printf("[ingest] %s (%s): merged %d records, %d providers, %d rows skipped",
			name, tech.Name, res.Records, res.Providers, res.Skipped)
	}

	log.Printf("[ingest] run %s done: %d records, %d providers, %d blocks, %d rows skipped, %d files failed",
		sum.RunID, sum.RecordsMerged, sum.ProvidersMerged, sum.BlocksLoaded, sum.RowsSkipped, len(sum.Failures))
	return sum, nil
}

// DiscoverCoverageFiles lists the coverage archives under dir, sorted by name.
// Discovery is separated from classification so the pipeline logic stays
// testable without a filesystem.
func DiscoverCoverageFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read coverage dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "bdc_") && strings.EqualFold(filepath.Ext(name), ".zip") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// FindBlocksArchive locates the single census blocks zip under dir.
func FindBlocksArchive(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read census dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no census blocks archive in %s", dir)
}

// importCoverageFile stages and merges one coverage archive inside a single
// transaction: providers first (so every coverage row resolves to a provider),
// then the coverage facts.
func importCoverageFile(db *gorm.DB, path string, tech Technology, password string) (fileResult, error) {
	a, err := OpenArchive(path, password)
	if err != nil {
		return fileResult{}, err
	}
	defer a.Close()

	entry, err := a.FindByExt(".csv")
	if err != nil {
		return fileResult{}, err
	}
	r, err := a.Open(entry)
	if err != nil {
		return fileResult{}, err
	}
	defer r.Close()

	n, err := Normalize(r, tech)
	if err != nil {
		return fileResult{}, fmt.Errorf("normalize %s: %w", entry, err)
	}

	res := fileResult{Skipped: n.Skipped}
	err = db.Transaction(func(tx *gorm.DB) error {
		providers, err := StageAndMerge(tx, providerProjection(n.Providers), ConflictUpdate)
		if err != nil {
			return err
		}
		records, err := StageAndMerge(tx, coverageProjection(n.Coverage), ConflictIgnore)
		if err != nil {
			return err
		}
		res.Providers = providers
		res.Records = records
		return nil
	})
	if err != nil {
		if IsIntegrityViolation(err) {
			return fileResult{}, fmt.Errorf("integrity violation: %w", err)
		}
		return fileResult{}, err
	}
	return res, nil
}

func providerProjection(rows []ProviderRow) Projection {
	p := Projection{
		Table:         "coverage.providers",
		Columns:       []string{"provider_id", "brand_name"},
		ColumnTypes:   []string{"BIGINT", "TEXT"},
		KeyColumns:    []string{"provider_id"},
		UpdateColumns: []string{"brand_name"},
	}
	for _, r := range rows {
		// The brand column is nullable; an absent name stages as NULL, not ''.
		var brand interface{}
		if r.BrandName != "" {
			brand = r.BrandName
		}
		p.Rows = append(p.Rows, []interface{}{r.ProviderID, brand})
	}
	return p
}

func coverageProjection(rows []CoverageRow) Projection {
	p := Projection{
		Table: "coverage.broadband_data",
		Columns: []string{
			"frn", "provider_id", "location_id", "technology",
			"max_download_mbps", "max_upload_mbps", "low_latency",
			"service_class", "state_code", "block_id", "h3_cell",
		},
		ColumnTypes: []string{
			"BIGINT", "BIGINT", "BIGINT", "INT",
			"INT", "INT", "BOOLEAN",
			"TEXT", "VARCHAR(2)", "BIGINT", "TEXT",
		},
		KeyColumns: []string{"provider_id", "location_id", "block_id"},
	}
	for _, r := range rows {
		p.Rows = append(p.Rows, []interface{}{
			r.FRN, r.ProviderID, r.LocationID, r.Technology,
			r.MaxDownloadMbps, r.MaxUploadMbps, r.LowLatency,
			r.ServiceClass, r.StateCode, r.BlockID, r.H3Cell,
		})
	}
	return p
}
