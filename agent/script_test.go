package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeScript writes a POSIX shell script standing in for the runtime.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func newScriptRuntime(t *testing.T, body string, env ...string) (*ScriptRuntime, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	rt := NewScriptRuntime(ScriptConfig{
		Interpreter: "sh",
		ScriptPath:  writeScript(t, body),
		Env:         env,
		KillDelay:   time.Second,
	}, log)
	return rt, log
}

const outcomeJSON = `{"is_done":true,"is_successful":true,"number_of_steps":3,"total_duration_seconds":12.5,"total_input_tokens":4200,"final_result":"cookies accepted","model_actions":[{"click_element":{"index":1},"interacted_element":null}],"model_outputs":[{"current_state":{"evaluation_previous_goal":"Unknown","memory":"","next_goal":"accept"},"action":[{"click_element":{"index":1}}]}]}`

func TestScriptRuntime_Run(t *testing.T) {
	reqFile := filepath.Join(t.TempDir(), "request.json")
	script := `cat > "$REQ_FILE"
echo "loading browser" >&2
echo "step 1" >&2
echo 'runtime banner on stdout'
echo '` + outcomeJSON + `'
`
	rt, log := newScriptRuntime(t, script, "REQ_FILE="+reqFile)

	req := Request{
		Website:        "tienda.example",
		Role:           "navigator",
		Task:           "Open tienda.example",
		LLM:            ModelHandle{Provider: "google", Model: "gemini-2.0-flash", APIKeyEnv: "GEMINI_API_KEY"},
		MaxSteps:       15,
		ExcludeActions: []string{"search_google"},
	}
	outcome, err := rt.Run(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, outcome.Done)
	assert.True(t, outcome.Success)
	assert.Equal(t, 3, outcome.Steps)
	assert.Equal(t, 12.5, outcome.Duration)
	assert.Equal(t, 4200, outcome.InputTokens)
	require.NotNil(t, outcome.FinalResult)
	assert.Equal(t, "cookies accepted", *outcome.FinalResult)
	require.Len(t, outcome.Actions, 1)
	require.Len(t, outcome.ModelOutputs, 1)
	assert.Equal(t, "accept", outcome.ModelOutputs[0].CurrentState.NextGoal)

	sent, err := os.ReadFile(reqFile)
	require.NoError(t, err)
	assert.Equal(t, "Open tienda.example", gjson.GetBytes(sent, "task").String())
	assert.Equal(t, "GEMINI_API_KEY", gjson.GetBytes(sent, "llm.api_key_env").String())
	assert.Equal(t, "search_google", gjson.GetBytes(sent, "exclude_actions.0").String())
	assert.Equal(t, gjson.Null, gjson.GetBytes(sent, "planner_llm").Type)

	_, ok := log.Find("debug", "step 1")
	assert.True(t, ok, "stderr lines are forwarded to the debug log")
}

func TestScriptRuntime_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "non-zero exit", script: "cat >/dev/null\necho 'Traceback: boom' >&2\nexit 3\n"},
		{name: "no output", script: "cat >/dev/null\n"},
		{name: "garbage output", script: "cat >/dev/null\necho 'not json'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newScriptRuntime(t, tt.script)
			_, err := rt.Run(context.Background(), Request{Role: "navigator"})
			assert.ErrorIs(t, err, ErrRuntime)
		})
	}
}

func TestScriptRuntime_ExitMessageIncludesStderr(t *testing.T) {
	rt, _ := newScriptRuntime(t, "cat >/dev/null\necho 'GEMINI_API_KEY is not set' >&2\nexit 1\n")
	_, err := rt.Run(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is not set")
}

func TestScriptRuntime_Cancel(t *testing.T) {
	rt, _ := newScriptRuntime(t, "cat >/dev/null\nsleep 30\n")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := rt.Run(ctx, Request{})
	assert.ErrorIs(t, err, ErrRuntime)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestScriptRuntime_MissingInterpreter(t *testing.T) {
	rt := NewScriptRuntime(ScriptConfig{Interpreter: "/nonexistent/python", ScriptPath: "runtime.py"}, logger.NewTestLogger())
	_, err := rt.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrRuntime)
}

func TestDecodeOutcome(t *testing.T) {
	o, err := decodeOutcome([]byte("  " + outcomeJSON + "\n"))
	require.NoError(t, err)
	assert.True(t, o.Success)

	o, err = decodeOutcome([]byte(`{"is_done":false,"is_successful":false,"final_result":null}`))
	require.NoError(t, err)
	assert.Nil(t, o.FinalResult)

	raw, err := json.Marshal(Outcome{Steps: 2})
	require.NoError(t, err)
	o, err = decodeOutcome(append([]byte("warming up\n"), raw...))
	require.NoError(t, err)
	assert.Equal(t, 2, o.Steps)
}
