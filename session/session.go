// Package session owns the browser lifecycle for a single crawl target: one
// browser process, one isolated browser context and one tab, released in
// reverse order.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// Config holds the settings fixed for the lifetime of one session.
type Config struct {
	// RecordingDir is where the runtime stores session recordings. Empty disables recording.
	RecordingDir string `json:"recording_dir,omitempty"`
	// HARPath is where network traffic is written. Empty disables capture.
	HARPath string `json:"har_path,omitempty"`
	// ViewportExpansion of -1 lets the runtime consider elements outside the viewport.
	ViewportExpansion int           `json:"viewport_expansion"`
	UserAgent         string        `json:"user_agent,omitempty"`
	MinPageLoadWait   time.Duration `json:"-"`
	HighlightElements bool          `json:"highlight_elements"`
}

// Handle is what the external runtime needs to attach to a live session.
type Handle struct {
	SessionID string `json:"session_id"`
	CDPURL    string `json:"cdp_url"`
	TargetID  string `json:"target_id"`
	// MinPageLoadWaitSeconds mirrors Config.MinPageLoadWait in a wire-friendly unit.
	MinPageLoadWaitSeconds float64 `json:"minimum_wait_page_load_time"`
	Config
}

// Browser is a launched browser process.
type Browser interface {
	// Endpoint returns the DevTools URL other processes can attach to.
	Endpoint() string
	// NewContext opens an isolated browser context with a single tab.
	NewContext(ctx context.Context) (Context, error)
	Close() error
}

// Context is an isolated browser context holding one tab.
type Context interface {
	TargetID() string
	// Screenshot captures the visible area of the tab as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	CloseTab(ctx context.Context) error
	Close() error
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context, cfg Config) (Browser, error)
}

// Session is one open browser, context and tab bound to a crawl target.
type Session struct {
	ID       uuid.UUID
	Config   Config
	OpenedAt time.Time

	browser Browser
	bctx    Context

	mu       sync.Mutex
	closed   bool
	onClosed func(uuid.UUID)
}

// Handle returns the attach information for the runtime.
func (s *Session) Handle() Handle {
	return Handle{
		SessionID:              s.ID.String(),
		CDPURL:                 s.browser.Endpoint(),
		TargetID:               s.bctx.TargetID(),
		MinPageLoadWaitSeconds: s.Config.MinPageLoadWait.Seconds(),
		Config:                 s.Config,
	}
}

// Screenshot captures the live tab.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSessionClosed
	}
	return s.bctx.Screenshot(ctx)
}

// Close releases the tab, then the browser context, then the browser. It is
// safe to call more than once; later calls are no-ops.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if err := s.bctx.CloseTab(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.bctx.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}

	if s.onClosed != nil {
		s.onClosed(s.ID)
	}
	return errors.Join(errs...)
}

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Store tracks open sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Set stores a session in the store.
func (s *Store) Set(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get retrieves a session from the store.
func (s *Store) Get(sessionID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session from the store.
func (s *Store) Delete(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// All returns every tracked session.
func (s *Store) All() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
