package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raws(ss ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(ss))
	for i, s := range ss {
		out[i] = json.RawMessage(s)
	}
	return out
}

func asStrings(rs []json.RawMessage) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

func TestStructureActions(t *testing.T) {
	tests := []struct {
		name string
		raw  []RawAction
		want []string
	}{
		{
			name: "drops interacted element",
			raw: []RawAction{
				{"click_element": json.RawMessage(`{"index":12}`), "interacted_element": json.RawMessage(`{"xpath":"html/body/button","highlight_index":12}`)},
			},
			want: []string{`{"click_element":{"index":12}}`},
		},
		{
			name: "done keeps text and success only",
			raw: []RawAction{
				{"done": json.RawMessage(`{"text":"Order placed","success":true,"attachments":["a.txt"]}`), "interacted_element": json.RawMessage(`null`)},
			},
			want: []string{`{"done":{"text":"Order placed","success":true}}`},
		},
		{
			name: "done with missing fields",
			raw: []RawAction{
				{"done": json.RawMessage(`{"text":"gave up"}`)},
			},
			want: []string{`{"done":{"text":"gave up","success":null}}`},
		},
		{
			name: "one action per key in sorted order",
			raw: []RawAction{
				{"input_text": json.RawMessage(`{"index":3,"text":"Juan"}`)},
				{"scroll_down": json.RawMessage(`{}`), "go_to_url": json.RawMessage(`{"url":"https://shop.example"}`)},
			},
			want: []string{
				`{"input_text":{"index":3,"text":"Juan"}}`,
				`{"go_to_url":{"url":"https://shop.example"}}`,
				`{"scroll_down":{}}`,
			},
		},
		{
			name: "empty",
			raw:  nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StructureActions(tt.raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, asStrings(got)); diff != "" {
				t.Errorf("StructureActions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStructureActions_InvalidJSON(t *testing.T) {
	_, err := StructureActions([]RawAction{{"click_element": json.RawMessage(`{"index":`)}})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func step(goal string, n int) StepOutput {
	actions := make([]json.RawMessage, n)
	for i := range actions {
		actions[i] = json.RawMessage(`{}`)
	}
	return StepOutput{
		CurrentState: CurrentState{NextGoal: goal},
		Action:       actions,
	}
}

func TestAlignSteps(t *testing.T) {
	a1, a2, a3, a4 := `{"a":1}`, `{"a":2}`, `{"a":3}`, `{"a":4}`

	tests := []struct {
		name      string
		steps     []StepOutput
		actions   []json.RawMessage
		want      [][]string
		wantDrift bool
	}{
		{
			name:    "exact positional split",
			steps:   []StepOutput{step("open", 1), step("fill", 2), step("finish", 1)},
			actions: raws(a1, a2, a3, a4),
			want:    [][]string{{a1}, {a2, a3}, {a4}},
		},
		{
			name:    "step without actions",
			steps:   []StepOutput{step("think", 0), step("act", 2)},
			actions: raws(a1, a2),
			want:    [][]string{{}, {a1, a2}},
		},
		{
			name:      "actions run short",
			steps:     []StepOutput{step("open", 2), step("fill", 2)},
			actions:   raws(a1, a2, a3),
			want:      [][]string{{a1, a2}, {a3}},
			wantDrift: true,
		},
		{
			name:      "surplus actions are dropped",
			steps:     []StepOutput{step("open", 1)},
			actions:   raws(a1, a2),
			want:      [][]string{{a1}},
			wantDrift: true,
		},
		{
			name:      "no actions at all",
			steps:     []StepOutput{step("open", 1), step("fill", 1)},
			actions:   nil,
			want:      [][]string{{}, {}},
			wantDrift: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AlignSteps(tt.steps, tt.actions)
			if tt.wantDrift {
				assert.ErrorIs(t, err, ErrActionDrift)
			} else {
				assert.NoError(t, err)
			}

			require.Len(t, got, len(tt.steps))
			for i, rec := range got {
				assert.Equal(t, tt.steps[i].CurrentState, rec.CurrentState)
				assert.Equal(t, tt.want[i], asStrings(rec.Actions), "step %d", i)
			}
		})
	}
}
