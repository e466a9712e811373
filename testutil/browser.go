package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hairizuanbinnoorazman/checkout-crawler/session"
)

// FakeLauncher is an in-memory session.Launcher that records lifecycle calls
// in the order they happen.
type FakeLauncher struct {
	LaunchErr     error
	ContextErr    error
	ScreenshotErr error
	PNG           []byte

	mu       sync.Mutex
	events   []string
	configs  []session.Config
	launches int
}

// Launch implements session.Launcher.
func (f *FakeLauncher) Launch(ctx context.Context, cfg session.Config) (session.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, "launch")
	if f.LaunchErr != nil {
		return nil, f.LaunchErr
	}
	f.launches++
	f.configs = append(f.configs, cfg)
	return &fakeBrowser{f: f, n: f.launches}, nil
}

// Events returns the recorded lifecycle calls.
func (f *FakeLauncher) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// Configs returns the session configs passed to Launch.
func (f *FakeLauncher) Configs() []session.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Config(nil), f.configs...)
}

func (f *FakeLauncher) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type fakeBrowser struct {
	f *FakeLauncher
	n int
}

func (b *fakeBrowser) Endpoint() string {
	return fmt.Sprintf("http://127.0.0.1:%d", 9222+b.n)
}

func (b *fakeBrowser) NewContext(ctx context.Context) (session.Context, error) {
	b.f.record("new_context")
	if b.f.ContextErr != nil {
		return nil, b.f.ContextErr
	}
	return &fakeContext{f: b.f, id: fmt.Sprintf("TARGET-%d", b.n)}, nil
}

func (b *fakeBrowser) Close() error {
	b.f.record("close_browser")
	return nil
}

type fakeContext struct {
	f  *FakeLauncher
	id string
}

func (c *fakeContext) TargetID() string {
	return c.id
}

func (c *fakeContext) Screenshot(ctx context.Context) ([]byte, error) {
	c.f.record("screenshot")
	if c.f.ScreenshotErr != nil {
		return nil, c.f.ScreenshotErr
	}
	if c.f.PNG == nil {
		return []byte("\x89PNG\r\n\x1a\n"), nil
	}
	return c.f.PNG, nil
}

func (c *fakeContext) CloseTab(ctx context.Context) error {
	c.f.record("close_tab")
	return nil
}

func (c *fakeContext) Close() error {
	c.f.record("close_context")
	return nil
}
