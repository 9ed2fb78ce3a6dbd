package ingest

import (
	"strings"
	"testing"
)

const csvHeader = "frn,provider_id,brand_name,location_id,max_advertised_download_speed,max_advertised_upload_speed,low_latency,business_residential_code,state_usps,block_geoid,h3_res8_id"

func normalizeString(t *testing.T, csv string, tech Technology) Normalized {
	t.Helper()
	n, err := Normalize(strings.NewReader(csv), tech)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return n
}

func TestNormalizeTypedRow(t *testing.T) {
	csv := csvHeader + "\n" +
		"123456789,7,Acme Fiber,111000222,940,35.5,1,R,ri,440070101011000,8928308280fffff\n"

	n := normalizeString(t, csv, TechFiber)

	if len(n.Coverage) != 1 {
		t.Fatalf("expected 1 coverage row, got %d", len(n.Coverage))
	}
	row := n.Coverage[0]
	if row.FRN != 123456789 || row.ProviderID != 7 || row.LocationID != 111000222 {
		t.Errorf("identifier coercion wrong: %+v", row)
	}
	if row.BlockID != 440070101011000 {
		t.Errorf("block id = %d, want 440070101011000", row.BlockID)
	}
	if row.Technology != TechFiber.Code {
		t.Errorf("technology = %d, want %d", row.Technology, TechFiber.Code)
	}
	if row.MaxDownloadMbps != 940 || row.MaxUploadMbps != 35 {
		t.Errorf("speeds = %d/%d, want 940/35", row.MaxDownloadMbps, row.MaxUploadMbps)
	}
	if !row.LowLatency {
		t.Error("low_latency should be true for \"1\"")
	}
	if row.ServiceClass != "Residential" {
		t.Errorf("service class = %q, want Residential", row.ServiceClass)
	}
	if row.StateCode != "RI" {
		t.Errorf("state code = %q, want RI (uppercased)", row.StateCode)
	}
	if row.H3Cell != "8928308280fffff" {
		t.Errorf("h3 cell = %q", row.H3Cell)
	}

	if len(n.Providers) != 1 || n.Providers[0].ProviderID != 7 || n.Providers[0].BrandName != "Acme Fiber" {
		t.Errorf("provider projection = %+v", n.Providers)
	}
	if n.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", n.Skipped)
	}
}

func TestNormalizeSkipsMalformedRow(t *testing.T) {
	csv := csvHeader + "\n" +
		"1,1,Acme,100,940,35,1,R,RI,100,h1\n" +
		"1,1,Acme,101,fast,35,1,R,RI,100,h1\n" + // non-numeric download speed
		"1,1,Acme,102,940,35,1,R,RI,100,h1\n"

	n := normalizeString(t, csv, TechCable)

	if len(n.Coverage) != 2 {
		t.Errorf("expected 2 coverage rows, got %d", len(n.Coverage))
	}
	if n.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", n.Skipped)
	}
}

func TestNormalizeSkipsStructurallyMalformedRow(t *testing.T) {
	csv := csvHeader + "\n" +
		"1,1,Acme,100,940,35,1,R,RI,100,h1\n" +
		"1,1,Ac\"me,101,940,35,1,R,RI,100,h1\n" + // bare quote mid-field
		"1,1,Acme,102,940,35,1,R,RI,100,h1\n"

	n := normalizeString(t, csv, TechCable)

	if len(n.Coverage) != 2 {
		t.Errorf("expected 2 coverage rows, got %d", len(n.Coverage))
	}
	if n.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (broken quoting is a row defect, not a file defect)", n.Skipped)
	}
}

func TestNormalizeServiceClassPassthrough(t *testing.T) {
	csv := csvHeader + "\n" +
		"1,1,Acme,100,940,35,1,Q,RI,100,h1\n"

	n := normalizeString(t, csv, TechCable)
	if got := n.Coverage[0].ServiceClass; got != "Q" {
		t.Errorf("unrecognized service class %q should pass through, got %q", "Q", got)
	}
}

func TestNormalizeProviderDedup(t *testing.T) {
	csv := csvHeader + "\n" +
		"1,1,Acme,100,940,35,1,R,RI,100,h1\n" +
		"1,1,Acme,101,940,35,1,R,RI,100,h1\n" +
		"1,2,Zephyr,102,100,10,0,B,RI,100,h1\n"

	n := normalizeString(t, csv, TechCable)
	if len(n.Providers) != 2 {
		t.Fatalf("expected 2 distinct providers, got %d: %+v", len(n.Providers), n.Providers)
	}
}

func TestNormalizeMissingColumn(t *testing.T) {
	csv := "frn,provider_id,brand_name\n1,1,Acme\n"
	_, err := Normalize(strings.NewReader(csv), TechCable)
	if err == nil || !strings.Contains(err.Error(), "missing required column") {
		t.Errorf("expected missing-column error, got %v", err)
	}
}

func TestNormalizeBOMHeader(t *testing.T) {
	csv := "\ufeff" + csvHeader + "\n" +
		"1,1,Acme,100,940,35,1,R,RI,100,h1\n"

	n := normalizeString(t, csv, TechCable)
	if len(n.Coverage) != 1 {
		t.Errorf("BOM header should parse; got %d rows", len(n.Coverage))
	}
}

func TestCoerceBool(t *testing.T) {
	if v, cerr := coerceBool("low_latency", "0"); cerr != nil || v {
		t.Errorf("coerceBool(0) = %v, %v", v, cerr)
	}
	if v, cerr := coerceBool("low_latency", "1"); cerr != nil || !v {
		t.Errorf("coerceBool(1) = %v, %v", v, cerr)
	}
	if _, cerr := coerceBool("low_latency", "true"); cerr == nil {
		t.Error("coerceBool should reject values outside the 0/1 encoding")
	}
}

func TestCoerceStateCode(t *testing.T) {
	if _, cerr := coerceStateCode("state_usps", "R1"); cerr == nil {
		t.Error("digit in state code should fail coercion")
	}
	if _, cerr := coerceStateCode("state_usps", "RHO"); cerr == nil {
		t.Error("3-letter state code should fail coercion")
	}
}

func TestCoerceSpeed(t *testing.T) {
	if v, cerr := coerceSpeed("s", "100.9"); cerr != nil || v != 100 {
		t.Errorf("decimal speed should truncate: got %d, %v", v, cerr)
	}
	if _, cerr := coerceSpeed("s", "-5"); cerr == nil {
		t.Error("negative speed should fail coercion")
	}
}
