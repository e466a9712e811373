package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"golang.org/x/sync/errgroup"
)

// ScriptConfig describes how to start the agent runtime process.
type ScriptConfig struct {
	Interpreter string
	ScriptPath  string
	WorkDir     string
	// Env is appended to the current environment, e.g. "PYTHONUNBUFFERED=1".
	Env []string
	// KillDelay bounds how long pipes stay open after the process is killed.
	KillDelay time.Duration
}

// ScriptRuntime runs each sub-task in a fresh runtime process. The request is
// written to stdin as JSON and the outcome is read from stdout; stderr is
// forwarded to the debug log line by line.
type ScriptRuntime struct {
	config ScriptConfig
	logger logger.Logger
}

// NewScriptRuntime creates a subprocess runtime.
func NewScriptRuntime(config ScriptConfig, log logger.Logger) *ScriptRuntime {
	if config.Interpreter == "" {
		config.Interpreter = "python3"
	}
	if config.KillDelay == 0 {
		config.KillDelay = 5 * time.Second
	}
	return &ScriptRuntime{config: config, logger: log}
}

// Run starts the runtime and blocks until it exits.
func (r *ScriptRuntime) Run(ctx context.Context, req Request) (*Outcome, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode runtime request: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.config.Interpreter, r.config.ScriptPath)
	cmd.Dir = r.config.WorkDir
	cmd.Env = append(os.Environ(), r.config.Env...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = r.config.KillDelay

	// exec owns both copies so WaitDelay also bounds children that keep
	// the pipes open after a kill.
	var out bytes.Buffer
	errR, errW := io.Pipe()
	cmd.Stdout = &out
	cmd.Stderr = errW

	log := r.logger.WithFields(map[string]interface{}{
		"website": req.Website,
		"role":    req.Role,
	})

	if err := cmd.Start(); err != nil {
		errW.Close()
		return nil, fmt.Errorf("%w: failed to start %s: %v", ErrRuntime, r.config.ScriptPath, err)
	}
	log.Debug(ctx, "agent runtime started", map[string]interface{}{
		"pid": cmd.Process.Pid,
	})

	var lastErrLine string
	var g errgroup.Group
	g.Go(func() error {
		rd := bufio.NewReader(errR)
		for {
			line, err := rd.ReadString('\n')
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				lastErrLine = line
				log.Debug(ctx, line, map[string]interface{}{"stream": "stderr"})
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	})

	waitErr := cmd.Wait()
	errW.Close()
	pumpErr := g.Wait()

	if waitErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrRuntime, ctx.Err())
		}
		if lastErrLine != "" {
			return nil, fmt.Errorf("%w: %v: %s", ErrRuntime, waitErr, lastErrLine)
		}
		return nil, fmt.Errorf("%w: %v", ErrRuntime, waitErr)
	}
	if pumpErr != nil {
		return nil, fmt.Errorf("%w: reading stderr: %v", ErrRuntime, pumpErr)
	}

	outcome, err := decodeOutcome(out.Bytes())
	if err != nil {
		return nil, err
	}

	log.Debug(ctx, "agent runtime finished", map[string]interface{}{
		"done":    outcome.Done,
		"success": outcome.Success,
		"steps":   outcome.Steps,
	})
	return outcome, nil
}

// decodeOutcome reads the outcome from stdout. Anything the runtime printed
// before the final JSON line is ignored.
func decodeOutcome(data []byte) (*Outcome, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no outcome on stdout", ErrRuntime)
	}

	if !json.Valid(data) {
		if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
			data = bytes.TrimSpace(data[i+1:])
		}
	}

	var outcome Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("%w: unparseable outcome: %v", ErrRuntime, err)
	}
	return &outcome, nil
}
