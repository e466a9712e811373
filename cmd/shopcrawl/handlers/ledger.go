package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/storage"
	"github.com/hairizuanbinnoorazman/checkout-crawler/telemetry"
)

// LedgerHandler serves the telemetry ledgers and screenshots read-only.
type LedgerHandler struct {
	telemetry *telemetry.Aggregator
	store     storage.BlobStorage
	dataDir   string
	logger    logger.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(aggregator *telemetry.Aggregator, store storage.BlobStorage, dataDir string, log logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		telemetry: aggregator,
		store:     store,
		dataDir:   dataDir,
		logger:    log,
	}
}

// Performance returns the performance ledger, narrowed by the optional
// website and role path variables.
func (h *LedgerHandler) Performance(w http.ResponseWriter, r *http.Request) {
	h.serveLedger(w, r, h.telemetry.Performance())
}

// ModelOutputs returns model outputs for a website, or for one of its roles.
func (h *LedgerHandler) ModelOutputs(w http.ResponseWriter, r *http.Request) {
	h.serveLedger(w, r, h.telemetry.ModelOutputs())
}

func (h *LedgerHandler) serveLedger(w http.ResponseWriter, r *http.Request, ledger *telemetry.Ledger) {
	vars := mux.Vars(r)
	var keys []string
	if website := vars["website"]; website != "" {
		keys = append(keys, website)
		if role := vars["role"]; role != "" {
			keys = append(keys, role)
		}
	}

	var (
		data []byte
		err  error
	)
	if len(keys) == 0 {
		data, err = ledger.Document(r.Context())
	} else {
		data, err = ledger.Get(r.Context(), keys...)
	}
	if err != nil {
		if errors.Is(err, telemetry.ErrEntryNotFound) {
			respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		h.logger.Error(r.Context(), "failed to read ledger", map[string]interface{}{
			"ledger": ledger.Path(),
			"error":  err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	respondRawJSON(w, http.StatusOK, data)
}

// Screenshot streams the final screenshot of a role.
func (h *LedgerHandler) Screenshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p := telemetry.ScreenshotPath(h.dataDir, vars["website"], vars["role"])

	rc, err := h.store.Download(r.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound):
			respondError(w, http.StatusNotFound, "screenshot not found")
		case errors.Is(err, storage.ErrInvalidPath):
			respondError(w, http.StatusBadRequest, "invalid website or role")
		default:
			h.logger.Error(r.Context(), "failed to read screenshot", map[string]interface{}{
				"path":  p,
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "failed to read screenshot")
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn(r.Context(), "screenshot response interrupted", map[string]interface{}{
			"path":  p,
			"error": err.Error(),
		})
	}
}
