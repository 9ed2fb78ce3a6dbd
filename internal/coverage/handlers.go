package coverage

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/girubato/broadband-data-explorer/internal/db"
	"github.com/girubato/broadband-data-explorer/internal/ingest"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[coverage] encode response: %v", err)
	}
}

// ListRecords serves the filtered coverage join for the map and table views.
// Recognized query params: provider_id, technology, min_download.
func ListRecords(w http.ResponseWriter, r *http.Request) {
	var f Filter

	if v := r.URL.Query().Get("provider_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid provider_id", http.StatusBadRequest)
			return
		}
		f.ProviderID = &id
	}
	if v := r.URL.Query().Get("technology"); v != "" {
		tech, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid technology", http.StatusBadRequest)
			return
		}
		f.Technology = &tech
	}
	if v := r.URL.Query().Get("min_download"); v != "" {
		speed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid min_download", http.StatusBadRequest)
			return
		}
		f.MinDownload = &speed
	}

	records, err := QueryCoverage(r.Context(), db.DB, f)
	if err != nil {
		log.Printf("[coverage] list records: %v", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []CoverageRow{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ListProviders feeds the provider dropdown, ordered by brand name.
func ListProviders(w http.ResponseWriter, r *http.Request) {
	var providers []Provider
	if err := db.DB.WithContext(r.Context()).Order("brand_name").Find(&providers).Error; err != nil {
		log.Printf("[coverage] list providers: %v", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

// ListBlocks serves block geometries as GeoJSON. Repeated block_id params
// narrow the result; with none, all blocks are returned.
func ListBlocks(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	for _, v := range r.URL.Query()["block_id"] {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid block_id", http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	blocks, err := QueryBlocks(r.Context(), db.DB, ids)
	if err != nil {
		log.Printf("[coverage] list blocks: %v", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if blocks == nil {
		blocks = []BlockGeometry{}
	}
	writeJSON(w, http.StatusOK, blocks)
}

type importFailure struct {
	File  string `json:"file"`
	Cause string `json:"cause"`
}

type importResponse struct {
	RunID           string          `json:"run_id"`
	BlocksLoaded    int             `json:"blocks_loaded"`
	BlocksDropped   int             `json:"blocks_dropped"`
	ProvidersMerged int64           `json:"providers_merged"`
	RecordsMerged   int64           `json:"records_merged"`
	RowsSkipped     int             `json:"rows_skipped"`
	FilesSkipped    []string        `json:"files_skipped"`
	Failures        []importFailure `json:"failures"`
}

// ImportData triggers a full ingest run using the server's ingest config.
// This backs the UI's "Import Data" button; the run is synchronous.
func ImportData(w http.ResponseWriter, r *http.Request) {
	cfg, err := ingest.LoadConfig(os.Getenv("INGEST_CONFIG"))
	if err != nil {
		log.Printf("[coverage] import config: %v", err)
		http.Error(w, "ingest config unavailable", http.StatusInternalServerError)
		return
	}

	sum, err := ingest.Run(db.DB, cfg)
	if err != nil {
		log.Printf("[coverage] import run: %v", err)
		http.Error(w, "ingest failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := importResponse{
		RunID:           sum.RunID.String(),
		BlocksLoaded:    sum.BlocksLoaded,
		BlocksDropped:   sum.BlocksDropped,
		ProvidersMerged: sum.ProvidersMerged,
		RecordsMerged:   sum.RecordsMerged,
		RowsSkipped:     sum.RowsSkipped,
		FilesSkipped:    sum.FilesSkipped,
	}
	if resp.FilesSkipped == nil {
		resp.FilesSkipped = []string{}
	}
	resp.Failures = make([]importFailure, 0, len(sum.Failures))
	for _, f := range sum.Failures {
		resp.Failures = append(resp.Failures, importFailure{File: f.File, Cause: f.Err.Error()})
	}

	writeJSON(w, http.StatusOK, resp)
}
