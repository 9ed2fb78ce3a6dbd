package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"gorm.io/gorm"
)

// blockIDField is the shapefile attribute carrying the census block identifier.
const blockIDField = "GEOID20"

// BlocksReport summarizes a census block import: Loaded rows made it into the
// canonical table, Dropped features failed identifier coercion or had an
// unusable geometry.
type BlocksReport struct {
	Loaded  int
	Dropped int
}

// ImportBlocks extracts the polygon shapefile from the census blocks archive
// and atomically replaces the canonical block set. Visibility is
// all-or-nothing: a failure partway through leaves the prior blocks intact.
func ImportBlocks(db *gorm.DB, archivePath, password string) (BlocksReport, error) {
	a, err := OpenArchive(archivePath, password)
	if err != nil {
		return BlocksReport{}, err
	}
	defer a.Close()

	shpName, err := a.FindByExt(".shp")
	if err != nil {
		return BlocksReport{}, err
	}

	dir, err := os.MkdirTemp("", "census-blocks-")
	if err != nil {
		return BlocksReport{}, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	// go-shp reads attributes from the sidecar .dbf, so the whole shapefile
	// family has to land next to the .shp on disk.
	base := strings.TrimSuffix(shpName, filepath.Ext(shpName))
	var shpPath string
	for _, name := range a.Entries() {
		if strings.TrimSuffix(name, filepath.Ext(name)) != base {
			continue
		}
		dest, err := a.ExtractTo(name, dir)
		if err != nil {
			return BlocksReport{}, err
		}
		if strings.EqualFold(filepath.Ext(name), ".shp") {
			shpPath = dest
		}
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return BlocksReport{}, &ArchiveError{Path: archivePath, Err: fmt.Errorf("read shapefile: %w", err)}
	}
	defer reader.Close()

	idField := -1
	for i, f := range reader.Fields() {
		if strings.EqualFold(f.String(), blockIDField) {
			idField = i
			break
		}
	}
	if idField < 0 {
		return BlocksReport{}, &ArchiveError{Path: archivePath, Err: fmt.Errorf("shapefile has no %s attribute", blockIDField)}
	}

	var report BlocksReport
	var rows [][]interface{}
	for reader.Next() {
		n, shape := reader.Shape()

		raw := strings.TrimSpace(reader.ReadAttribute(n, idField))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			report.Dropped++
			if report.Dropped <= maxSkipLogs {
				log.Printf("[blocks] feature %d: non-numeric %s %q, dropped", n, blockIDField, raw)
			}
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			report.Dropped++
			if report.Dropped <= maxSkipLogs {
				log.Printf("[blocks] feature %d: unexpected shape type %T, dropped", n, shape)
			}
			continue
		}

		rows = append(rows, []interface{}{id, wkt.MarshalString(multiPolygon(poly))})
	}
	if report.Dropped > maxSkipLogs {
		log.Printf("[blocks] %d features dropped in total", report.Dropped)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// The block set is replaced wholesale. Coverage rows carry no FK on
		// block_id (the datasets import independently), so no dependents need
		// clearing first.
		if err := tx.Exec(`TRUNCATE TABLE coverage.census_blocks`).Error; err != nil {
			return fmt.Errorf("clear census_blocks: %w", err)
		}
		merged, err := StageAndMerge(tx, blocksProjection(rows), ConflictIgnore)
		if err != nil {
			return err
		}
		report.Loaded = int(merged)
		return nil
	})
	if err != nil {
		return BlocksReport{}, err
	}
	return report, nil
}

func blocksProjection(rows [][]interface{}) Projection {
	return Projection{
		Table:       "coverage.census_blocks",
		Columns:     []string{"block_id", "geometry"},
		ColumnTypes: []string{"BIGINT", "TEXT"},
		SelectExprs: []string{"", "ST_Multi(ST_GeomFromText(geometry, 4326))"},
		KeyColumns:  []string{"block_id"},
		Rows:        rows,
	}
}

// multiPolygon converts shapefile rings into an orb multipolygon. Shapefile
// outer rings wind clockwise; counter-clockwise rings are holes in the most
// recent outer ring.
func multiPolygon(p *shp.Polygon) orb.MultiPolygon {
	var mp orb.MultiPolygon
	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}

		if clockwise(ring) || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
		} else {
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
		}
	}
	return mp
}

// clockwise reports whether the ring winds clockwise, via the shoelace sum.
func clockwise(r orb.Ring) bool {
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		sum += (r[i+1][0] - r[i][0]) * (r[i+1][1] + r[i][1])
	}
	return sum > 0
}
