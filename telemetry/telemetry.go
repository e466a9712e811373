// Package telemetry records per-site, per-role crawl results into durable
// JSON ledgers and stores screenshots next to them.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/storage"
)

var (
	// ErrInvalidKey is returned when a ledger key is empty.
	ErrInvalidKey = errors.New("invalid ledger key")

	// ErrInvalidEntry is returned when a ledger entry is not valid JSON.
	ErrInvalidEntry = errors.New("invalid ledger entry")

	// ErrEntryNotFound is returned when a ledger has no entry for a key.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrActionDrift is returned when the actions reported by the steps do not
	// add up to the number of raw actions.
	ErrActionDrift = errors.New("action count drift")
)

// Ledger file names inside the data directory.
const (
	PerformanceFile  = "performance.json"
	ModelOutputsFile = "model_outputs.json"
)

// Status values of a performance entry.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Performance is one entry of the performance ledger.
type Performance struct {
	Status      string  `json:"status"`
	StepsTaken  int     `json:"steps_taken"`
	Duration    float64 `json:"duration"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	InputTokens int     `json:"input_tokens"`
	FinalResult *string `json:"final_result"`
}

// Aggregator writes ledgers and screenshots for a data directory.
type Aggregator struct {
	store        storage.BlobStorage
	dataDir      string
	performance  *Ledger
	modelOutputs *Ledger
	logger       logger.Logger
}

// NewAggregator creates an aggregator writing below dataDir inside store.
func NewAggregator(store storage.BlobStorage, dataDir string, log logger.Logger) *Aggregator {
	return &Aggregator{
		store:        store,
		dataDir:      dataDir,
		performance:  NewLedger(store, path.Join(dataDir, PerformanceFile), "    ", log),
		modelOutputs: NewLedger(store, path.Join(dataDir, ModelOutputsFile), "  ", log),
		logger:       log,
	}
}

// Performance returns the performance ledger.
func (a *Aggregator) Performance() *Ledger {
	return a.performance
}

// ModelOutputs returns the model output ledger.
func (a *Aggregator) ModelOutputs() *Ledger {
	return a.modelOutputs
}

// RecordPerformance writes entry at performance[website][role].
func (a *Aggregator) RecordPerformance(ctx context.Context, website, role string, entry Performance) error {
	data, err := marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode performance entry: %w", err)
	}
	if err := a.performance.Set(ctx, website, role, data); err != nil {
		return err
	}

	a.logger.Debug(ctx, "performance recorded", map[string]interface{}{
		"website": website,
		"role":    role,
		"status":  entry.Status,
	})
	return nil
}

// RecordModelOutput restructures the steps and raw actions of a sub-task and
// writes them at model_outputs[website][role]. Action drift is logged and the
// aligned records are written anyway.
func (a *Aggregator) RecordModelOutput(ctx context.Context, website, role string, steps []StepOutput, actions []RawAction) error {
	structured, err := StructureActions(actions)
	if err != nil {
		return err
	}

	records, err := AlignSteps(steps, structured)
	if err != nil {
		if !errors.Is(err, ErrActionDrift) {
			return err
		}
		a.logger.Warn(ctx, "model outputs and actions are misaligned", map[string]interface{}{
			"website": website,
			"role":    role,
			"error":   err.Error(),
		})
	}

	data, err := marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode model outputs: %w", err)
	}
	return a.modelOutputs.Set(ctx, website, role, data)
}

// SaveScreenshot stores png at <data>/<website>/screenshots/<role>.png.
func (a *Aggregator) SaveScreenshot(ctx context.Context, website, role string, png []byte) error {
	if website == "" || role == "" {
		return fmt.Errorf("%w: website and role are required", ErrInvalidKey)
	}
	p := ScreenshotPath(a.dataDir, website, role)
	if err := a.store.Upload(ctx, p, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}

// ScreenshotPath returns where the screenshot for website and role is stored.
func ScreenshotPath(dataDir, website, role string) string {
	return path.Join(dataDir, website, "screenshots", role+".png")
}

// marshal encodes v without HTML escaping so result text is stored as written.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
