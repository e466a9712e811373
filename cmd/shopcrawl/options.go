package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hairizuanbinnoorazman/checkout-crawler/agent"
	"github.com/hairizuanbinnoorazman/checkout-crawler/profile"
	"github.com/hairizuanbinnoorazman/checkout-crawler/target"
)

// crawlOptions are the command line switches of the crawl command.
type crawlOptions struct {
	Website  string
	File     string
	Language string

	Decline       bool
	Record        bool
	Conversations bool
	Network       bool
	Performance   bool
	All           bool
	Shopify       bool
}

var (
	errAllWithCapture    = errors.New("the -a (all) flag cannot be used together with individual flags (-r, -c, -n, -p)")
	errWebsiteAndFile    = errors.New("you cannot provide both a website (-w) and a file (-f) at the same time")
	errWebsiteNoLanguage = errors.New("language (-l) must be specified when using a single website (-w)")
	errFileWithLanguage  = errors.New("the -l (language) flag cannot be used together with a file (-f)")
	errNoTarget          = errors.New("please provide a website (-w) or a file (-f)")
)

// validate rejects flag combinations before any file or browser work and
// expands -a into the individual capture switches.
func (o *crawlOptions) validate() error {
	if o.All && (o.Record || o.Conversations || o.Network || o.Performance) {
		return errAllWithCapture
	}
	if o.All {
		o.Record, o.Conversations, o.Network, o.Performance = true, true, true, true
	}

	if o.Language != "" && !profile.IsSupportedLanguage(o.Language) {
		return fmt.Errorf("invalid language %q (choose from %s)", o.Language, strings.Join(profile.SupportedLanguages, ", "))
	}

	switch {
	case o.Website != "" && o.File != "":
		return errWebsiteAndFile
	case o.Website != "" && o.Language == "":
		return errWebsiteNoLanguage
	case o.File != "" && o.Language != "":
		return errFileWithLanguage
	case o.Website == "" && o.File == "":
		return errNoTarget
	}
	return nil
}

// targets resolves the site targets of the batch.
func (o *crawlOptions) targets() ([]target.SiteTarget, error) {
	if o.Website != "" {
		return target.Single(o.Website, o.Language)
	}
	targets, err := target.ReadFile(o.File)
	if err != nil {
		if errors.Is(err, target.ErrListNotFound) {
			return nil, fmt.Errorf("file '%s' not found", o.File)
		}
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return targets, nil
}

// variant names the checkout template.
func (o *crawlOptions) variant() string {
	if o.Shopify {
		return "shopify"
	}
	return "generic"
}

// pipelineConfig merges the switches with the browser and agent settings.
func (o *crawlOptions) pipelineConfig(cfg *Config, dataDir, systemPrompt string) agent.Config {
	return agent.Config{
		DataDir:             dataDir,
		Record:              o.Record,
		CaptureConversation: o.Conversations,
		CaptureNetwork:      o.Network,
		CapturePerformance:  o.Performance,
		UserAgent:           cfg.Browser.UserAgent,
		MinPageLoadWait:     cfg.Browser.MinPageLoadWait,
		ViewportExpansion:   cfg.Browser.ViewportExpansion,
		HighlightElements:   cfg.Browser.HighlightElements,
		UseVision:           cfg.Agent.UseVision,
		UseVisionForPlanner: cfg.Agent.UseVisionForPlanner,
		SystemPrompt:        systemPrompt,
		ExcludeActions:      agent.ExcludedActions,
	}
}
