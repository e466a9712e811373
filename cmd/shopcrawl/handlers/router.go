package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/run"
	"github.com/hairizuanbinnoorazman/checkout-crawler/storage"
	"github.com/hairizuanbinnoorazman/checkout-crawler/telemetry"
)

// NewRouter wires the read-only API. Run routes are only mounted when a run
// store is given.
func NewRouter(aggregator *telemetry.Aggregator, store storage.BlobStorage, dataDir string, runStore run.Store, log logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	ledgers := NewLedgerHandler(aggregator, store, dataDir, log)
	api.HandleFunc("/performance", ledgers.Performance).Methods(http.MethodGet)
	api.HandleFunc("/performance/{website}", ledgers.Performance).Methods(http.MethodGet)
	api.HandleFunc("/performance/{website}/{role}", ledgers.Performance).Methods(http.MethodGet)
	api.HandleFunc("/model-outputs", ledgers.ModelOutputs).Methods(http.MethodGet)
	api.HandleFunc("/model-outputs/{website}", ledgers.ModelOutputs).Methods(http.MethodGet)
	api.HandleFunc("/model-outputs/{website}/{role}", ledgers.ModelOutputs).Methods(http.MethodGet)
	api.HandleFunc("/screenshots/{website}/{role}", ledgers.Screenshot).Methods(http.MethodGet)

	if runStore != nil {
		runs := NewRunHandler(runStore, log)
		api.HandleFunc("/runs", runs.List).Methods(http.MethodGet)
		api.HandleFunc("/runs/{id}", runs.GetByID).Methods(http.MethodGet)
	}

	return router
}
