package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnknownRole is returned when a role has no execution config.
	ErrUnknownRole = errors.New("unknown agent role")

	// ErrInvalidAgentConfig is returned when agent_config.json cannot be used.
	ErrInvalidAgentConfig = errors.New("invalid agent config")
)

// RequiredRoles is the number of roles a crawl needs, one per sub-task slot.
const RequiredRoles = 3

// ExecutionConfig holds the runtime budget for one role.
type ExecutionConfig struct {
	MaxSteps          int  `json:"max_steps"`
	MaxActionsPerStep int  `json:"max_actions_per_step"`
	Planner           bool `json:"planner"`
	PlannerInterval   int  `json:"planner_interval"`
}

// Validate checks the config values.
func (c ExecutionConfig) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.MaxActionsPerStep <= 0 {
		return fmt.Errorf("max_actions_per_step must be positive, got %d", c.MaxActionsPerStep)
	}
	if c.Planner && c.PlannerInterval <= 0 {
		return fmt.Errorf("planner_interval must be positive when planner is enabled, got %d", c.PlannerInterval)
	}
	return nil
}

// Resolver maps role names to execution configs. The role order decides which
// role runs which sub-task slot.
type Resolver struct {
	roles   []string
	configs map[string]ExecutionConfig
}

// LoadResolver reads agent_config.json from path.
func LoadResolver(path string, roles []string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAgentConfig, err)
	}
	return NewResolver(data, roles)
}

// NewResolver parses an agent config document. When roles is empty the order
// of the document's keys is used; otherwise every listed role must be present.
func NewResolver(data []byte, roles []string) (*Resolver, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: document is not valid JSON", ErrInvalidAgentConfig)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: document must be an object keyed by role", ErrInvalidAgentConfig)
	}

	r := &Resolver{configs: make(map[string]ExecutionConfig)}
	var keys []string
	var parseErr error
	root.ForEach(func(key, value gjson.Result) bool {
		if _, dup := r.configs[key.String()]; dup {
			parseErr = fmt.Errorf("%w: role %q is defined more than once", ErrInvalidAgentConfig, key.String())
			return false
		}
		var cfg ExecutionConfig
		if err := json.Unmarshal([]byte(value.Raw), &cfg); err != nil {
			parseErr = fmt.Errorf("%w: role %q: %v", ErrInvalidAgentConfig, key.String(), err)
			return false
		}
		if err := cfg.Validate(); err != nil {
			parseErr = fmt.Errorf("%w: role %q: %v", ErrInvalidAgentConfig, key.String(), err)
			return false
		}
		keys = append(keys, key.String())
		r.configs[key.String()] = cfg
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if len(roles) == 0 {
		roles = keys
	}
	for _, role := range roles {
		if _, ok := r.configs[role]; !ok {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidAgentConfig, ErrUnknownRole, role)
		}
	}
	if len(roles) < RequiredRoles {
		return nil, fmt.Errorf("%w: need %d roles, found %d", ErrInvalidAgentConfig, RequiredRoles, len(roles))
	}
	r.roles = append([]string(nil), roles[:RequiredRoles]...)

	return r, nil
}

// Roles returns the role names in slot order.
func (r *Resolver) Roles() []string {
	return append([]string(nil), r.roles...)
}

// Resolve returns the execution config of role.
func (r *Resolver) Resolve(role string) (ExecutionConfig, error) {
	cfg, ok := r.configs[role]
	if !ok {
		return ExecutionConfig{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return cfg, nil
}
