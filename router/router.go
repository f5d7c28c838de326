// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quest-tally/cliparse"
	"github.com/danielhkuo/quest-tally/handlers"
	"github.com/danielhkuo/quest-tally/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Live ledgers are shared by every handler
	sessions := handlers.NewSessions()

	// Each router gets its own registry so tests can build several
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, cfg.Driver()))
	metrics := handlers.NewMetrics(registry)

	tallyHandler := handlers.NewTallyHandler(db, cfg, sessions, metrics)
	editHandler := handlers.NewEditHandler(db, cfg, sessions, metrics)
	resultsHandler := handlers.NewResultsHandler(db, cfg, sessions)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Tally management (requires X-Edit-Key except on create)
	mux.HandleFunc("POST /tallies", middleware.WithLogging(tallyHandler.CreateTally))
	mux.HandleFunc("POST /tallies/{id}/posts", middleware.WithLogging(tallyHandler.SubmitPosts))
	mux.HandleFunc("POST /tallies/{id}/run", middleware.WithLogging(tallyHandler.RunTally))

	// Manual edits
	mux.HandleFunc("POST /tallies/{id}/merge", middleware.WithLogging(editHandler.Merge))
	mux.HandleFunc("POST /tallies/{id}/join", middleware.WithLogging(editHandler.Join))
	mux.HandleFunc("POST /tallies/{id}/delete", middleware.WithLogging(editHandler.Delete))
	mux.HandleFunc("POST /tallies/{id}/undo", middleware.WithLogging(editHandler.Undo))

	// Results (public)
	mux.HandleFunc("GET /tallies/{id}", middleware.WithLogging(resultsHandler.GetTally))
	mux.HandleFunc("GET /tallies/{id}/votes", middleware.WithLogging(resultsHandler.GetVotes))
	mux.HandleFunc("GET /tallies/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /tallies/{id}/preview", middleware.WithLogging(resultsHandler.GetPreview))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quest-tally API v1"))
	})

	return mux
}
