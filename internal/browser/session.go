// internal/browser/session.go

// Package browser drives a Chrome tab over the DevTools protocol and exposes
// it to the element discovery engine. The Manager owns the browser process,
// Sessions own tabs, and each analysis pass snapshots the tab through an
// Accessor.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domlens-cli/api/schemas"
	"github.com/xkilldash9x/domlens-cli/internal/config"
	"github.com/xkilldash9x/domlens-cli/internal/dom"
)

// Session represents one browser tab.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

// newSession wraps an already-created chromedp context.
func newSession(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	logger *zap.Logger,
	onClose func(),
) (*Session, error) {
	sessionID := uuid.New().String()
	s := &Session{
		id:      sessionID,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(zap.String("session_id", sessionID)),
		cfg:     cfg,
		onClose: onClose,
	}
	// Materialize the tab so the first navigation doesn't pay creation cost.
	if err := chromedp.Run(ctx); err != nil {
		return nil, fmt.Errorf("connecting session target: %w", err)
	}
	return s, nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads a URL and waits for the document to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating.", zap.String("url", url))
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return s.stabilize(runCtx)
}

// stabilize waits for the body to exist and gives the page a short quiet
// period for late layout work.
func (s *Session) stabilize(ctx context.Context) error {
	stabCtx, cancel := context.WithTimeout(ctx, s.cfg.Browser.StabilizeTimeout)
	defer cancel()

	if err := chromedp.Run(stabCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("WaitReady failed during stabilization.", zap.Error(err))
	}
	if err := chromedp.Run(stabCtx, chromedp.Sleep(s.cfg.Browser.QuietPeriod)); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// AnalyzeDOM runs one discovery pass over the current page and returns the
// serialized element tree.
func (s *Session) AnalyzeDOM(ctx context.Context, opts schemas.BuildOptions) (*schemas.ElementNode, error) {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	start := time.Now()
	acc, err := NewAccessor(runCtx, s.logger, s.cfg.Browser.ReadRateLimit)
	if err != nil {
		return nil, err
	}
	defer acc.Release(runCtx)

	builder := dom.NewBuilder(acc, zapDomLogger{s.logger.Sugar()})
	if s.cfg.Inspect.FailClosedOcclusion {
		builder.OnUnknown = dom.UnknownIsNotTop
	}
	root, err := builder.Build(runCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("building element tree: %w", err)
	}

	indexed := len(schemas.BuildSelectorMap(root))
	s.logger.Info("DOM analysis complete.",
		zap.Int("interactive_elements", indexed),
		zap.Duration("elapsed", time.Since(start)))
	return root, nil
}

// removeHighlightsJS strips the overlay container and every stamped locator
// attribute, restoring the page for the next independent pass.
const removeHighlightsJS = `(function() {
	const container = document.getElementById('` + dom.OverlayContainerID + `');
	if (container) { container.remove(); }
	const highlighted = document.querySelectorAll('[` + dom.HighlightAttr + `]');
	highlighted.forEach(el => el.removeAttribute('` + dom.HighlightAttr + `'));
	return highlighted.length;
})()`

// RemoveHighlights clears overlay boxes and locator attributes left behind
// by previous passes.
func (s *Session) RemoveHighlights(ctx context.Context) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	var removed int
	if err := chromedp.Run(runCtx, chromedp.Evaluate(removeHighlightsJS, &removed)); err != nil {
		return fmt.Errorf("removing highlights: %w", err)
	}
	s.logger.Debug("Highlights removed.", zap.Int("elements", removed))
	return nil
}

// Screenshot captures the visible viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// CurrentURL reports the tab's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	var url string
	if err := chromedp.Run(runCtx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Close terminates the tab.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// zapDomLogger adapts zap's sugared logger to the engine's logging surface.
type zapDomLogger struct {
	s *zap.SugaredLogger
}

func (l zapDomLogger) Warn(msg string, args ...interface{})  { l.s.Warnw(msg, args...) }
func (l zapDomLogger) Debug(msg string, args ...interface{}) { l.s.Debugw(msg, args...) }

// combineContext derives a context cancelled by whichever parent finishes
// first, while keeping the chromedp target values of primary.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
