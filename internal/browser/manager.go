// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domlens-cli/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the browser process and creates isolated tab sessions.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager. Launching the browser is deferred
// until the first session is requested.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	m := &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
	m.logger.Debug("Browser manager created (launch deferred).")
	return m
}

// initialize builds the exec allocator that owns the Chrome process. A
// configured executable path is checked up front; chromedp would otherwise
// surface the failure only when the first tab starts.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		if path := m.cfg.Browser.ExecPath; path != "" {
			if _, err := os.Stat(path); err != nil {
				m.initErr = fmt.Errorf("browser executable %q: %w", path, err)
				return
			}
		}
		opts := m.allocatorOptions()
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
		m.logger.Info("Browser allocator initialized.",
			zap.Bool("headless", m.cfg.Browser.Headless))
	})
	return m.initErr
}

func (m *Manager) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	if !m.cfg.Browser.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	// Stability flags for containerized environments.
	opts = append(opts,
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if m.cfg.Browser.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.Browser.ExecPath))
	}
	if w, h := m.cfg.Browser.ViewportWidth, m.cfg.Browser.ViewportHeight; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	for _, arg := range m.cfg.Browser.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// NewSession opens a fresh tab. The caller must Close the session when done.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			m.logger.Sugar().Debugf(format, args...)
		}),
	)

	m.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(func() {
			m.wg.Done()
		})
	}

	s, err := newSession(tabCtx, tabCancel, m.cfg, m.logger, nil)
	if err != nil {
		tabCancel()
		done()
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
		done()
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Debug("Session created.", zap.String("session_id", s.ID()))
	return s, nil
}

// Shutdown closes all sessions and tears down the browser process, waiting
// up to a grace period for tabs to finish closing.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.RUnlock()

	for _, s := range open {
		if err := s.Close(); err != nil {
			m.logger.Warn("Session close failed during shutdown.",
				zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	waited := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Timed out waiting for sessions to close.")
	case <-ctx.Done():
		return ctx.Err()
	}

	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.logger.Info("Browser manager shut down.")
	return nil
}
