package agent

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ExcludedActions are runtime capabilities the agent may never use.
var ExcludedActions = []string{"search_google"}

// LoadSystemPrompt reads the override system prompt. A missing file means
// the runtime keeps its own default prompt.
func LoadSystemPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
