package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hairizuanbinnoorazman/checkout-crawler/agent"
	"github.com/hairizuanbinnoorazman/checkout-crawler/profile"
	"github.com/hairizuanbinnoorazman/checkout-crawler/session"
	"github.com/hairizuanbinnoorazman/checkout-crawler/task"
	"github.com/spf13/cobra"
)

var crawlOpts crawlOptions

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a website or a list of websites",
	Long: `Runs the entry, product selection and checkout tasks on each website in turn.
Provide a single website with -w and -l, or a ';'-separated list file with -f.`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.StringVarP(&crawlOpts.Website, "website", "w", "", "a single website")
	f.StringVarP(&crawlOpts.File, "file", "f", "", "a file containing a list of websites")
	f.StringVarP(&crawlOpts.Language, "language", "l", "", "language profile (dutch, german, french, spanish, italian, swedish)")
	f.BoolVarP(&crawlOpts.Decline, "decline", "d", false, "decline cookies instead of accepting them")
	f.BoolVarP(&crawlOpts.Record, "record", "r", false, "record the crawl session")
	f.BoolVarP(&crawlOpts.Conversations, "capture_conversations", "c", false, "capture agent conversations for each step")
	f.BoolVarP(&crawlOpts.Network, "capture_network", "n", false, "capture a HAR file of the network traffic")
	f.BoolVarP(&crawlOpts.Performance, "capture_performance", "p", false, "capture performance details for each task")
	f.BoolVarP(&crawlOpts.All, "all", "a", false, "enable -r, -c, -n and -p")
	f.BoolVarP(&crawlOpts.Shopify, "shopify", "s", false, "use the Shopify checkout task")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	opts := crawlOpts
	if err := opts.validate(); err != nil {
		return err
	}
	targets, err := opts.targets()
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg.Log)
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info(ctx, "starting shopcrawl", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"targets": len(targets),
		"path":    root(),
	})

	shopper, err := profile.Load(filepath.Join(root(), profileFile))
	if err != nil {
		return err
	}
	resolver, err := agent.LoadResolver(filepath.Join(root(), agentConfigFile), cfg.Agent.Roles)
	if err != nil {
		return err
	}
	systemPrompt, err := agent.LoadSystemPrompt(filepath.Join(root(), systemPromptFile))
	if err != nil {
		return err
	}
	if err := cfg.Models.Validate(); err != nil {
		return err
	}

	checkout, err := task.CheckoutVariant(opts.variant())
	if err != nil {
		return err
	}
	cookies := task.AcceptCookies
	if opts.Decline {
		cookies = task.DeclineCookies
	}
	builder := task.NewBuilder(checkout, cookies)

	aggregator, _, err := openAggregator(ctx, cfg, log)
	if err != nil {
		return err
	}

	launcher := session.NewChromeLauncher(session.ChromeOptions{
		ExecPath:        cfg.Browser.ExecPath,
		Headless:        cfg.Browser.Headless,
		DebugPort:       cfg.Browser.DebugPort,
		DisableSecurity: cfg.Browser.DisableSecurity,
		WindowWidth:     cfg.Browser.WindowWidth,
		WindowHeight:    cfg.Browser.WindowHeight,
	}, log)
	sessions := session.NewManager(launcher, log)
	defer func() {
		// Release any browser left behind by an interrupt.
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sessions.CloseAll(closeCtx); err != nil {
			log.Error(closeCtx, "failed to close sessions", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	runtime := agent.NewScriptRuntime(agent.ScriptConfig{
		Interpreter: cfg.Runtime.Interpreter,
		ScriptPath:  cfg.Runtime.ScriptPath,
		WorkDir:     cfg.Runtime.WorkDir,
		KillDelay:   cfg.Runtime.KillDelay,
	}, log)

	pipelineOpts := []agent.Option{agent.WithProgress(cmd.OutOrStdout())}
	if cfg.History.Enabled {
		runs, closeDB, err := openHistory(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer closeDB()
		pipelineOpts = append(pipelineOpts, agent.WithRunStore(runs))
	}

	pipeline := agent.NewPipeline(
		opts.pipelineConfig(cfg, filepath.Join(root(), dataDir), systemPrompt),
		resolver,
		cfg.Models,
		builder,
		shopper,
		runtime,
		sessions,
		aggregator,
		log,
		pipelineOpts...,
	)

	summary, err := pipeline.RunBatch(ctx, targets)
	if err != nil {
		return err
	}

	aborted := 0
	for _, res := range summary.Results {
		if res.Aborted {
			aborted++
		}
	}
	log.Info(ctx, "shopcrawl finished", map[string]interface{}{
		"batch_id": summary.BatchID.String(),
		"targets":  len(summary.Results),
		"aborted":  aborted,
	})

	return nil
}
