package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
)

// Manager opens browser sessions and keeps track of the ones still open.
type Manager struct {
	store    *Store
	launcher Launcher
	logger   logger.Logger
}

// NewManager creates a new session manager.
func NewManager(launcher Launcher, log logger.Logger) *Manager {
	return &Manager{
		store:    NewStore(),
		launcher: launcher,
		logger:   log,
	}
}

// Open launches a browser and opens one isolated context with a single tab.
// Any partially opened resource is released when a later step fails.
func (m *Manager) Open(ctx context.Context, cfg Config) (*Session, error) {
	browser, err := m.launcher.Launch(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(ctx)
	if err != nil {
		if cerr := browser.Close(); cerr != nil {
			m.logger.Warn(ctx, "failed to close browser after context error", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
		return nil, fmt.Errorf("failed to open browser context: %w", err)
	}

	s := &Session{
		ID:       uuid.New(),
		Config:   cfg,
		OpenedAt: time.Now(),
		browser:  browser,
		bctx:     bctx,
		onClosed: m.forget,
	}
	m.store.Set(s)

	m.logger.Info(ctx, "session opened", map[string]interface{}{
		"session_id": s.ID.String(),
		"cdp_url":    browser.Endpoint(),
		"target_id":  bctx.TargetID(),
	})

	return s, nil
}

// Get retrieves an open session by ID.
func (m *Manager) Get(sessionID uuid.UUID) (*Session, error) {
	return m.store.Get(sessionID)
}

// OpenCount returns the number of sessions not yet closed.
func (m *Manager) OpenCount() int {
	return m.store.Len()
}

// CloseAll closes every session still open, e.g. on interrupt.
func (m *Manager) CloseAll(ctx context.Context) error {
	var errs []error
	for _, s := range m.store.All() {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) forget(id uuid.UUID) {
	m.store.Delete(id)
	m.logger.Info(context.Background(), "session closed", map[string]interface{}{
		"session_id": id.String(),
	})
}
