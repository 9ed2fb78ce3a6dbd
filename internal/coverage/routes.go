package coverage

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Read-only query surface consumed by the map/table UI.
	r.Get("/records", ListRecords)
	r.Get("/providers", ListProviders)
	r.Get("/blocks", ListBlocks)

	// Synchronous full ingest, backing the UI's import action.
	r.Post("/import", ImportData)

	return r
}
