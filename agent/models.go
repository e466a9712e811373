package agent

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is returned when a model handle is incomplete.
var ErrInvalidModel = errors.New("invalid model handle")

// ModelHandle identifies an LLM for the runtime. The API key itself is never
// passed; the runtime reads it from the named environment variable.
type ModelHandle struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	APIKeyEnv   string  `json:"api_key_env"`
	Temperature float64 `json:"temperature"`
}

// Validate checks that the handle names a provider, model and key variable.
func (m ModelHandle) Validate() error {
	switch {
	case m.Provider == "":
		return fmt.Errorf("%w: provider is required", ErrInvalidModel)
	case m.Model == "":
		return fmt.Errorf("%w: model is required", ErrInvalidModel)
	case m.APIKeyEnv == "":
		return fmt.Errorf("%w: api key env is required", ErrInvalidModel)
	}
	return nil
}

// Models are the handles shared by every dispatch of a crawl.
type Models struct {
	Acting   ModelHandle
	Planning ModelHandle
}

// Validate checks both handles.
func (m Models) Validate() error {
	if err := m.Acting.Validate(); err != nil {
		return fmt.Errorf("acting model: %w", err)
	}
	if err := m.Planning.Validate(); err != nil {
		return fmt.Errorf("planning model: %w", err)
	}
	return nil
}

// planner returns the planning handle and interval for cfg, or nil and 0 when
// the role runs without a planner.
func (m Models) planner(cfg ExecutionConfig) (*ModelHandle, int) {
	if !cfg.Planner {
		return nil, 0
	}
	p := m.Planning
	return &p, cfg.PlannerInterval
}
