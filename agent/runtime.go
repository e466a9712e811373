package agent

import (
	"context"
	"errors"

	"github.com/hairizuanbinnoorazman/checkout-crawler/session"
	"github.com/hairizuanbinnoorazman/checkout-crawler/telemetry"
)

// ErrRuntime is returned when the agent runtime crashes or answers with
// something other than an outcome.
var ErrRuntime = errors.New("agent runtime failed")

// Runtime runs one sub-task to completion on a live browser session.
type Runtime interface {
	Run(ctx context.Context, req Request) (*Outcome, error)
}

// Request is everything the runtime needs for one sub-task.
type Request struct {
	Website              string         `json:"website"`
	Role                 string         `json:"role"`
	Task                 string         `json:"task"`
	Session              session.Handle `json:"session"`
	LLM                  ModelHandle    `json:"llm"`
	PlannerLLM           *ModelHandle   `json:"planner_llm"`
	PlannerInterval      int            `json:"planner_interval"`
	MaxSteps             int            `json:"max_steps"`
	MaxActionsPerStep    int            `json:"max_actions_per_step"`
	UseVision            bool           `json:"use_vision"`
	UseVisionForPlanner  bool           `json:"use_vision_for_planner"`
	SaveConversationPath string         `json:"save_conversation_path,omitempty"`
	SystemPrompt         string         `json:"override_system_message,omitempty"`
	ExcludeActions       []string       `json:"exclude_actions"`
}

// Outcome is the runtime's report of a finished sub-task.
type Outcome struct {
	Done         bool                   `json:"is_done"`
	Success      bool                   `json:"is_successful"`
	Steps        int                    `json:"number_of_steps"`
	Duration     float64                `json:"total_duration_seconds"`
	InputTokens  int                    `json:"total_input_tokens"`
	FinalResult  *string                `json:"final_result"`
	Actions      []telemetry.RawAction  `json:"model_actions"`
	ModelOutputs []telemetry.StepOutput `json:"model_outputs"`
}

// Performance builds the ledger entry for the outcome using the
// coordinator's own timestamps.
func (o *Outcome) Performance(start, end string) telemetry.Performance {
	status := telemetry.StatusFailure
	if o.Success {
		status = telemetry.StatusSuccess
	}
	return telemetry.Performance{
		Status:      status,
		StepsTaken:  o.Steps,
		Duration:    o.Duration,
		StartTime:   start,
		EndTime:     end,
		InputTokens: o.InputTokens,
		FinalResult: o.FinalResult,
	}
}
