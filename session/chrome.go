package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
)

// ChromeOptions configures how Chrome is started.
type ChromeOptions struct {
	ExecPath        string
	Headless        bool
	DebugPort       int
	DisableSecurity bool
	WindowWidth     int
	WindowHeight    int
	// Args are extra command line switches such as "--lang=de" or "--mute-audio".
	Args []string
}

// ChromeLauncher starts Chrome through chromedp with a fixed remote debugging
// port so the external runtime can attach over CDP.
type ChromeLauncher struct {
	opts   ChromeOptions
	logger logger.Logger
}

// NewChromeLauncher creates a launcher.
func NewChromeLauncher(opts ChromeOptions, log logger.Logger) *ChromeLauncher {
	if opts.DebugPort == 0 {
		opts.DebugPort = 9222
	}
	if opts.WindowWidth == 0 || opts.WindowHeight == 0 {
		opts.WindowWidth, opts.WindowHeight = 1280, 1100
	}
	return &ChromeLauncher{opts: opts, logger: log}
}

// Launch starts the browser and waits until it responds.
func (l *ChromeLauncher) Launch(ctx context.Context, cfg Config) (Browser, error) {
	// The browser outlives cancellation of ctx until Close is called.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), l.allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			l.logger.Debug(ctx, fmt.Sprintf(format, args...), nil)
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			l.logger.Warn(ctx, fmt.Sprintf(format, args...), nil)
		}),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed to start: %w", err)
	}

	return &chromeBrowser{
		endpoint:      fmt.Sprintf("http://127.0.0.1:%d", l.opts.DebugPort),
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

func (l *ChromeLauncher) allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("remote-debugging-port", fmt.Sprint(l.opts.DebugPort)),
		chromedp.Flag("remote-debugging-address", "127.0.0.1"),
		chromedp.WindowSize(l.opts.WindowWidth, l.opts.WindowHeight),
	)
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	if l.opts.DisableSecurity {
		opts = append(opts,
			chromedp.Flag("disable-web-security", true),
			chromedp.Flag("disable-site-isolation-trials", true),
			chromedp.Flag("ignore-certificate-errors", true),
		)
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range l.opts.Args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

type chromeBrowser struct {
	endpoint      string
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func (b *chromeBrowser) Endpoint() string {
	return b.endpoint
}

func (b *chromeBrowser) NewContext(ctx context.Context) (Context, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to create tab: %w", err)
	}

	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		tabCancel()
		return nil, fmt.Errorf("tab has no target")
	}

	return &chromeContext{
		targetID: string(c.Target.TargetID),
		tabCtx:   tabCtx,
		cancel:   tabCancel,
	}, nil
}

func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type chromeContext struct {
	targetID string
	tabCtx   context.Context
	cancel   context.CancelFunc
}

func (c *chromeContext) TargetID() string {
	return c.targetID
}

func (c *chromeContext) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf []byte
	if err := chromedp.Run(c.tabCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

func (c *chromeContext) CloseTab(ctx context.Context) error {
	if err := chromedp.Run(c.tabCtx, page.Close()); err != nil {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	return nil
}

// Close disposes of the browser context created for the tab.
func (c *chromeContext) Close() error {
	c.cancel()
	return nil
}
