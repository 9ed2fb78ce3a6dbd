package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/girubato/broadband-data-explorer/internal/coverage"
	"github.com/girubato/broadband-data-explorer/internal/db"
	"github.com/girubato/broadband-data-explorer/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5060"
	}

	coverage.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RateLimitMiddleware(rate.NewLimiter(rate.Limit(50), 100)))
	r.Get("/", RootHandler)

	r.Mount("/coverage", coverage.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
