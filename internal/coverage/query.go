package coverage

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Filter narrows a coverage query. Nil fields impose no constraint; supplied
// fields combine with logical AND.
type Filter struct {
	ProviderID  *int64
	Technology  *int
	MinDownload *float64
}

// CoverageRow is the joined row shape handed to the external UI/map layer.
// Centroid coordinates are derived from the block geometry at query time.
type CoverageRow struct {
	BrandName       string  `json:"brand_name"`
	BlockID         int64   `json:"block_id"`
	Technology      int     `json:"technology"`
	MaxDownloadMbps int     `json:"max_download_mbps"`
	MaxUploadMbps   int     `json:"max_upload_mbps"`
	LowLatency      bool    `json:"low_latency"`
	ServiceClass    string  `json:"service_class"`
	StateCode       string  `json:"state_code"`
	CentroidLon     float64 `json:"centroid_lon"`
	CentroidLat     float64 `json:"centroid_lat"`
}

// buildCoverageQuery assembles the parameterized join for the given filter.
// Both joins are inner: records without a resolvable provider or block are
// excluded from the result.
func buildCoverageQuery(f Filter) (string, []interface{}) {
	query := `
		SELECT
			COALESCE(p.brand_name, '') AS brand_name,
			b.block_id,
			b.technology,
			b.max_download_mbps,
			b.max_upload_mbps,
			b.low_latency,
			b.service_class,
			b.state_code,
			ST_X(ST_Centroid(c.geometry)) AS centroid_lon,
			ST_Y(ST_Centroid(c.geometry)) AS centroid_lat
		FROM coverage.broadband_data b
		JOIN coverage.providers p ON b.provider_id = p.provider_id
		JOIN coverage.census_blocks c ON b.block_id = c.block_id
		WHERE 1=1`
	var args []interface{}
	argIdx := 1

	if f.ProviderID != nil {
		query += fmt.Sprintf(" AND b.provider_id = $%d", argIdx)
		args = append(args, *f.ProviderID)
		argIdx++
	}
	if f.Technology != nil {
		query += fmt.Sprintf(" AND b.technology = $%d", argIdx)
		args = append(args, *f.Technology)
		argIdx++
	}
	if f.MinDownload != nil {
		query += fmt.Sprintf(" AND b.max_download_mbps >= $%d", argIdx)
		args = append(args, *f.MinDownload)
		argIdx++
	}

	query += " ORDER BY b.block_id, b.provider_id"
	return query, args
}

// QueryCoverage runs the filtered join against the canonical tables.
// Read-only; safe to call concurrently with ingestion.
func QueryCoverage(ctx context.Context, g *gorm.DB, f Filter) ([]CoverageRow, error) {
	query, args := buildCoverageQuery(f)

	rows, err := g.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("coverage query failed: %w", err)
	}
	defer rows.Close()

	var out []CoverageRow
	for rows.Next() {
		var r CoverageRow
		if err := rows.Scan(
			&r.BrandName,
			&r.BlockID,
			&r.Technology,
			&r.MaxDownloadMbps,
			&r.MaxUploadMbps,
			&r.LowLatency,
			&r.ServiceClass,
			&r.StateCode,
			&r.CentroidLon,
			&r.CentroidLat,
		); err != nil {
			return nil, fmt.Errorf("scan coverage row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BlockGeometry pairs a block ID with its geometry as GeoJSON for the map layer.
type BlockGeometry struct {
	BlockID int64  `json:"block_id"`
	GeoJSON string `json:"geometry"`
}

// QueryBlocks returns block geometries as GeoJSON, optionally limited to the
// given block IDs.
func QueryBlocks(ctx context.Context, g *gorm.DB, blockIDs []int64) ([]BlockGeometry, error) {
	query := `SELECT block_id, ST_AsGeoJSON(geometry) FROM coverage.census_blocks`
	var args []interface{}
	if len(blockIDs) > 0 {
		query += ` WHERE block_id = ANY($1)`
		args = append(args, pq.Array(blockIDs))
	}
	query += ` ORDER BY block_id`

	rows, err := g.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("blocks query failed: %w", err)
	}
	defer rows.Close()

	var out []BlockGeometry
	for rows.Next() {
		var b BlockGeometry
		if err := rows.Scan(&b.BlockID, &b.GeoJSON); err != nil {
			return nil, fmt.Errorf("scan block row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
