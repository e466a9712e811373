package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/run"
)

// RunHandler serves the run history read-only.
type RunHandler struct {
	runStore run.Store
	logger   logger.Logger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(runStore run.Store, log logger.Logger) *RunHandler {
	return &RunHandler{
		runStore: runStore,
		logger:   log,
	}
}

// List handles listing runs with optional batch_id, website and status filters.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	filter := run.Filter{
		Website: q.Get("website"),
		Status:  run.Status(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if v := q.Get("batch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid batch ID: must be a valid UUID")
			return
		}
		filter.BatchID = id
	}

	runs, err := h.runStore.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	total, err := h.runStore.Count(r.Context(), filter)
	if err != nil {
		h.logger.Error(r.Context(), "failed to count runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to count runs")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(runs, total, limit, offset))
}

// GetByID handles retrieving a run by ID.
func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "run")
	if !ok {
		return
	}

	rn, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	respondJSON(w, http.StatusOK, rn)
}
