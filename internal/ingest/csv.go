package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ProviderRow is one distinct (provider_id, brand_name) pair observed in a file.
type ProviderRow struct {
	ProviderID int64
	BrandName  string
}

// CoverageRow is one fully coerced coverage record ready for staging.
type CoverageRow struct {
	FRN             int64
	ProviderID      int64
	LocationID      int64
	Technology      int
	MaxDownloadMbps int
	MaxUploadMbps   int
	LowLatency      bool
	ServiceClass    string
	StateCode       string
	BlockID         int64
	H3Cell          string
}

// Normalized is the result of parsing one coverage CSV: the provider-dimension
// projection, the coverage-fact projection, and the count of rows dropped for
// failed coercion.
type Normalized struct {
	Providers []ProviderRow
	Coverage  []CoverageRow
	Skipped   int
}

// requiredColumns are the source columns every coverage extract must carry.
// A missing column is fatal for the file; a bad value in a row is not.
var requiredColumns = []string{
	"frn", "provider_id", "brand_name", "location_id",
	"max_advertised_download_speed", "max_advertised_upload_speed",
	"low_latency", "business_residential_code", "state_usps",
	"block_geoid", "h3_res8_id",
}

// serviceClasses translates the single-letter source codes. Unrecognized codes
// pass through verbatim so newer source files don't break older builds.
var serviceClasses = map[string]string{
	"R": "Residential",
	"B": "Business",
	"X": "Mixed",
}

// maxSkipLogs caps per-file skipped-row log lines; the total is always reported.
const maxSkipLogs = 20

// Normalize parses a coverage CSV into typed projections. One malformed row
// never aborts an otherwise-valid file: rows whose mandatory fields fail
// coercion are counted in Skipped and dropped.
func Normalize(r io.Reader, tech Technology) (Normalized, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Normalized{}, fmt.Errorf("read header: %w", err)
	}
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, k := range requiredColumns {
		if _, ok := col[k]; !ok {
			return Normalized{}, fmt.Errorf("missing required column: %s", k)
		}
	}

	var out Normalized
	seen := map[ProviderRow]struct{}{}
	line := 1

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// Structural damage (stray quote, etc.) is confined to the row,
			// same as a failed coercion; the reader resumes on the next line.
			line++
			out.Skipped++
			if out.Skipped <= maxSkipLogs {
				log.Printf("[normalize] malformed row skipped: %v", err)
			}
			continue
		}
		if err != nil {
			return Normalized{}, fmt.Errorf("csv read: %w", err)
		}
		line++

		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		row, cerr := coerceRow(get, tech)
		if cerr != nil {
			out.Skipped++
			if out.Skipped <= maxSkipLogs {
				log.Printf("[normalize] line %d skipped: %v", line, cerr)
			}
			continue
		}
		out.Coverage = append(out.Coverage, row)

		// Brand names in these extracts mix composed and decomposed unicode
		// for the same brand; normalize before the pair dedup.
		p := ProviderRow{
			ProviderID: row.ProviderID,
			BrandName:  norm.NFC.String(get("brand_name")),
		}
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			out.Providers = append(out.Providers, p)
		}
	}

	return out, nil
}

func coerceRow(get func(string) string, tech Technology) (CoverageRow, *CoercionError) {
	frn, cerr := coerceInt64("frn", get("frn"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}
	providerID, cerr := coerceInt64("provider_id", get("provider_id"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}
	locationID, cerr := coerceInt64("location_id", get("location_id"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}
	blockID, cerr := coerceInt64("block_geoid", get("block_geoid"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}
	down, cerr := coerceSpeed("max_advertised_download_speed", get("max_advertised_download_speed"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}
	up, cerr := coerceSpeed("max_advertised_upload_speed", get("max_advertised_upload_speed"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}
	lowLatency, cerr := coerceBool("low_latency", get("low_latency"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}
	state, cerr := coerceStateCode("state_usps", get("state_usps"))
	if cerr != nil {
		return CoverageRow{}, cerr
	}

	return CoverageRow{
		FRN:             frn,
		ProviderID:      providerID,
		LocationID:      locationID,
		Technology:      tech.Code,
		MaxDownloadMbps: down,
		MaxUploadMbps:   up,
		LowLatency:      lowLatency,
		ServiceClass:    translateServiceClass(get("business_residential_code")),
		StateCode:       state,
		BlockID:         blockID,
		H3Cell:          get("h3_res8_id"),
	}, nil
}

func coerceInt64(field, v string) (int64, *CoercionError) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &CoercionError{Field: field, Value: v}
	}
	return n, nil
}

// coerceSpeed accepts integer or decimal Mbps values; decimals truncate.
func coerceSpeed(field, v string) (int, *CoercionError) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, &CoercionError{Field: field, Value: v}
	}
	return int(f), nil
}

// coerceBool decodes the source's 0/1 encoding.
func coerceBool(field, v string) (bool, *CoercionError) {
	switch v {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, &CoercionError{Field: field, Value: v}
}

func coerceStateCode(field, v string) (string, *CoercionError) {
	if len(v) != 2 {
		return "", &CoercionError{Field: field, Value: v}
	}
	for _, r := range v {
		if !unicode.IsLetter(r) {
			return "", &CoercionError{Field: field, Value: v}
		}
	}
	return strings.ToUpper(v), nil
}

func translateServiceClass(code string) string {
	if name, ok := serviceClasses[code]; ok {
		return name
	}
	return code
}
