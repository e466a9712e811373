package agent

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/profile"
	"github.com/hairizuanbinnoorazman/checkout-crawler/run"
	"github.com/hairizuanbinnoorazman/checkout-crawler/session"
	"github.com/hairizuanbinnoorazman/checkout-crawler/target"
	"github.com/hairizuanbinnoorazman/checkout-crawler/task"
	"github.com/hairizuanbinnoorazman/checkout-crawler/telemetry"
)

// TimestampLayout is the UTC timestamp format of performance entries.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Config holds the crawl switches and the browser settings shared by every
// session of a batch.
type Config struct {
	// DataDir is the local directory the runtime writes conversations,
	// recordings and HAR files into, one subdirectory per website.
	DataDir string

	Record              bool
	CaptureConversation bool
	CaptureNetwork      bool
	CapturePerformance  bool

	UserAgent         string
	MinPageLoadWait   time.Duration
	ViewportExpansion int
	HighlightElements bool

	UseVision           bool
	UseVisionForPlanner bool
	SystemPrompt        string
	ExcludeActions      []string
}

// SessionOpener opens browser sessions.
type SessionOpener interface {
	Open(ctx context.Context, cfg session.Config) (*session.Session, error)
}

// TargetResult is how one site target ended.
type TargetResult struct {
	Target     target.SiteTarget
	Completed  []string
	FailedRole string
	Aborted    bool
}

// Summary is the result of a batch.
type Summary struct {
	BatchID uuid.UUID
	Results []TargetResult
}

// Pipeline runs the entry, selection and checkout sub-tasks of every site
// target, one target and one sub-task at a time.
type Pipeline struct {
	config    Config
	resolver  *Resolver
	models    Models
	builder   *task.Builder
	profile   *profile.ShopperProfile
	runtime   Runtime
	sessions  SessionOpener
	telemetry *telemetry.Aggregator
	runs      run.Store
	progress  io.Writer
	logger    logger.Logger
	now       func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithRunStore journals every target into store.
func WithRunStore(store run.Store) Option {
	return func(p *Pipeline) { p.runs = store }
}

// WithProgress writes operator progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// WithClock replaces the clock used for performance timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a new run coordinator.
func NewPipeline(
	config Config,
	resolver *Resolver,
	models Models,
	builder *task.Builder,
	shopper *profile.ShopperProfile,
	runtime Runtime,
	sessions SessionOpener,
	aggregator *telemetry.Aggregator,
	log logger.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		config:    config,
		resolver:  resolver,
		models:    models,
		builder:   builder,
		profile:   shopper,
		runtime:   runtime,
		sessions:  sessions,
		telemetry: aggregator,
		progress:  io.Discard,
		logger:    log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunBatch crawls targets in order. A failed sub-task only ends its own
// target; runtime, browser and storage errors stop the batch.
func (p *Pipeline) RunBatch(ctx context.Context, targets []target.SiteTarget) (*Summary, error) {
	summary := &Summary{BatchID: uuid.New()}

	p.logger.Info(ctx, "starting crawl batch", map[string]interface{}{
		"batch_id": summary.BatchID.String(),
		"targets":  len(targets),
		"variant":  p.builder.Variant(),
	})

	for _, t := range targets {
		res, err := p.RunTarget(ctx, summary.BatchID, t)
		if res != nil {
			summary.Results = append(summary.Results, *res)
		}
		if err != nil {
			p.logger.Error(ctx, "crawl batch stopped", map[string]interface{}{
				"batch_id": summary.BatchID.String(),
				"website":  t.Website,
				"error":    err.Error(),
			})
			return summary, err
		}
	}

	p.logger.Info(ctx, "crawl batch finished", map[string]interface{}{
		"batch_id": summary.BatchID.String(),
		"targets":  len(summary.Results),
	})
	return summary, nil
}

// RunTarget crawls one site target in a fresh browser session.
func (p *Pipeline) RunTarget(ctx context.Context, batchID uuid.UUID, t target.SiteTarget) (res *TargetResult, err error) {
	res = &TargetResult{Target: t}
	log := p.logger.WithFields(map[string]interface{}{
		"website":  t.Website,
		"language": t.Language,
	})

	specs, err := p.builder.Build(t, p.profile)
	if err != nil {
		return res, fmt.Errorf("failed to build tasks for %s: %w", t, err)
	}

	runID := p.startRun(ctx, batchID, t)
	defer func() {
		p.finishRun(ctx, runID, res, err)
	}()

	sess, err := p.sessions.Open(ctx, p.sessionConfig(t.Website))
	if err != nil {
		return res, fmt.Errorf("failed to open session for %s: %w", t, err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			log.Error(ctx, "failed to close session", map[string]interface{}{
				"session_id": sess.ID.String(),
				"error":      cerr.Error(),
			})
		}
	}()

	fmt.Fprintf(p.progress, "Starting agent on %s with language profile %s\n", t.Website, t.Language)

	roles := p.resolver.Roles()
	for i, spec := range specs {
		role := roles[i]
		outcome, err := p.runRole(ctx, t, role, spec, sess)
		if err != nil {
			res.FailedRole = role
			return res, err
		}

		if !outcome.Success {
			res.FailedRole = role
			res.Aborted = true
			fmt.Fprintf(p.progress, "Agent %s failed on %s with language profile %s, skipping the remaining tasks\n", role, t.Website, t.Language)
			log.Info(ctx, "site crawl aborted", map[string]interface{}{
				"role":  role,
				"steps": outcome.Steps,
			})
			return res, nil
		}
		res.Completed = append(res.Completed, role)
	}

	log.Info(ctx, "site crawl completed", map[string]interface{}{
		"roles": res.Completed,
	})
	return res, nil
}

// runRole dispatches one sub-task and records its telemetry.
func (p *Pipeline) runRole(ctx context.Context, t target.SiteTarget, role string, spec task.Spec, sess *session.Session) (*Outcome, error) {
	cfg, err := p.resolver.Resolve(role)
	if err != nil {
		return nil, err
	}
	req := p.request(t, role, spec, cfg, sess)

	p.logger.Debug(ctx, "dispatching sub-task", map[string]interface{}{
		"website":    t.Website,
		"role":       role,
		"slot":       string(spec.Slot),
		"max_steps":  cfg.MaxSteps,
		"planner":    cfg.Planner,
		"session_id": sess.ID.String(),
	})

	start := p.now().UTC().Format(TimestampLayout)
	outcome, err := p.runtime.Run(ctx, req)
	end := p.now().UTC().Format(TimestampLayout)
	if err != nil {
		return nil, fmt.Errorf("%s failed on %s: %w", role, t, err)
	}

	if outcome.Done {
		if p.config.Record {
			png, err := sess.Screenshot(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to capture %s screenshot for %s: %w", role, t, err)
			}
			if err := p.telemetry.SaveScreenshot(ctx, t.Website, role, png); err != nil {
				return nil, err
			}
		}
		if p.config.CapturePerformance {
			if err := p.telemetry.RecordModelOutput(ctx, t.Website, role, outcome.ModelOutputs, outcome.Actions); err != nil {
				return nil, err
			}
		}
	}

	if p.config.CapturePerformance {
		if err := p.telemetry.RecordPerformance(ctx, t.Website, role, outcome.Performance(start, end)); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

func (p *Pipeline) request(t target.SiteTarget, role string, spec task.Spec, cfg ExecutionConfig, sess *session.Session) Request {
	planner, interval := p.models.planner(cfg)

	req := Request{
		Website:             t.Website,
		Role:                role,
		Task:                spec.Instruction,
		Session:             sess.Handle(),
		LLM:                 p.models.Acting,
		PlannerLLM:          planner,
		PlannerInterval:     interval,
		MaxSteps:            cfg.MaxSteps,
		MaxActionsPerStep:   cfg.MaxActionsPerStep,
		UseVision:           p.config.UseVision,
		UseVisionForPlanner: p.config.UseVisionForPlanner,
		SystemPrompt:        p.config.SystemPrompt,
		ExcludeActions:      append([]string(nil), p.config.ExcludeActions...),
	}
	if p.config.CaptureConversation {
		req.SaveConversationPath = filepath.Join(p.config.DataDir, t.Website, "conversation", role) + string(filepath.Separator)
	}
	return req
}

func (p *Pipeline) sessionConfig(website string) session.Config {
	cfg := session.Config{
		ViewportExpansion: p.config.ViewportExpansion,
		UserAgent:         p.config.UserAgent,
		MinPageLoadWait:   p.config.MinPageLoadWait,
		HighlightElements: p.config.HighlightElements,
	}
	siteDir := filepath.Join(p.config.DataDir, website)
	if p.config.Record {
		cfg.RecordingDir = siteDir
	}
	if p.config.CaptureNetwork {
		cfg.HARPath = filepath.Join(siteDir, "traffic.har")
	}
	return cfg
}

// startRun journals the target when run history is enabled. History errors
// are logged and never fail the crawl.
func (p *Pipeline) startRun(ctx context.Context, batchID uuid.UUID, t target.SiteTarget) uuid.UUID {
	if p.runs == nil {
		return uuid.Nil
	}
	r := &run.Run{
		BatchID:  batchID,
		Website:  t.Website,
		Language: t.Language,
		Variant:  p.builder.Variant(),
		Options: run.JSONMap{
			"record":               p.config.Record,
			"capture_conversation": p.config.CaptureConversation,
			"capture_network":      p.config.CaptureNetwork,
			"capture_performance":  p.config.CapturePerformance,
		},
	}
	if err := p.runs.Create(ctx, r); err != nil {
		p.logger.Warn(ctx, "failed to journal run", map[string]interface{}{
			"website": t.Website,
			"error":   err.Error(),
		})
		return uuid.Nil
	}
	return r.ID
}

func (p *Pipeline) finishRun(ctx context.Context, id uuid.UUID, res *TargetResult, runErr error) {
	if p.runs == nil || id == uuid.Nil {
		return
	}
	result := run.Result{
		Status:         run.StatusSuccess,
		CompletedRoles: res.Completed,
		FailedRole:     res.FailedRole,
	}
	switch {
	case runErr != nil:
		result.Status = run.StatusErrored
		result.Error = runErr.Error()
	case res.Aborted:
		result.Status = run.StatusAborted
	}
	if err := p.runs.Complete(ctx, id, result); err != nil {
		p.logger.Warn(ctx, "failed to complete run journal", map[string]interface{}{
			"run_id": id.String(),
			"error":  err.Error(),
		})
	}
}
