package telemetry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// CurrentState is the model's reasoning state at one step.
type CurrentState struct {
	EvaluationPreviousGoal string `json:"evaluation_previous_goal"`
	Memory                 string `json:"memory"`
	NextGoal               string `json:"next_goal"`
}

// StepOutput is the structured output the model produced at one step.
type StepOutput struct {
	CurrentState CurrentState      `json:"current_state"`
	Action       []json.RawMessage `json:"action"`
}

// RawAction is one action record as reported by the runtime, keyed by
// action name plus runtime metadata such as interacted_element.
type RawAction map[string]json.RawMessage

// StepRecord is one entry of the model output ledger.
type StepRecord struct {
	CurrentState CurrentState      `json:"current_state"`
	Actions      []json.RawMessage `json:"actions"`
}

const (
	interactedElementKey = "interacted_element"
	doneAction           = "done"
)

// StructureActions flattens raw action records into single-key action
// objects. Runtime metadata is dropped and a done action keeps only its text
// and success fields. Keys of one record are emitted in sorted order.
func StructureActions(raw []RawAction) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(raw))
	for i, record := range raw {
		keys := make([]string, 0, len(record))
		for k := range record {
			if k != interactedElementKey {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := record[k]
			if k == doneAction {
				v = trimDone(v)
			}
			if !gjson.ValidBytes(v) {
				return nil, fmt.Errorf("%w: action %d (%s) is not valid JSON", ErrInvalidEntry, i, k)
			}
			action, err := sjson.SetRawBytes([]byte("{}"), setPath(k), v)
			if err != nil {
				return nil, fmt.Errorf("failed to structure action %d: %w", i, err)
			}
			out = append(out, action)
		}
	}
	return out, nil
}

func trimDone(v json.RawMessage) json.RawMessage {
	done := []byte("{}")
	for _, field := range []string{"text", "success"} {
		raw := "null"
		if res := gjson.GetBytes(v, field); res.Exists() {
			raw = res.Raw
		}
		done, _ = sjson.SetRawBytes(done, field, []byte(raw))
	}
	return done
}

// AlignSteps pairs each step with the actions it reported: step N consumes
// exactly len(steps[N].Action) of the structured actions that follow the
// previous step's. When the totals differ the aligned records are still
// returned (short steps are truncated) together with ErrActionDrift.
func AlignSteps(steps []StepOutput, actions []json.RawMessage) ([]StepRecord, error) {
	records := make([]StepRecord, 0, len(steps))
	declared := 0
	next := 0

	for _, step := range steps {
		n := len(step.Action)
		declared += n

		end := next + n
		if end > len(actions) {
			end = len(actions)
		}
		start := next
		if start > end {
			start = end
		}

		stepActions := make([]json.RawMessage, 0, end-start)
		stepActions = append(stepActions, actions[start:end]...)
		next += n

		records = append(records, StepRecord{
			CurrentState: step.CurrentState,
			Actions:      stepActions,
		})
	}

	if declared != len(actions) {
		return records, fmt.Errorf("%w: steps declared %d actions, runtime reported %d", ErrActionDrift, declared, len(actions))
	}
	return records, nil
}
