package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/pricelens/scraper/internal/domain"
)

const (
	defaultPageTimeout     = 30 * time.Second
	defaultMaxAttempts     = 3
	defaultBackoffStep     = 500 * time.Millisecond
	defaultScrollPauseDown = 3 * time.Second
	defaultScrollPauseUp   = 4 * time.Second
)

// SessionConfig controls the managed browser.
type SessionConfig struct {
	Headless        bool
	BinPath         string
	PageTimeout     time.Duration
	MaxAttempts     int
	BackoffStep     time.Duration
	ScrollPauseDown time.Duration
	ScrollPauseUp   time.Duration
}

// Session owns one launched browser and serves page fetches over it. Every
// fetch runs on a fresh stealth page with a profile drawn from the identity
// pool, so consecutive fetches present different user agents.
type Session struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher

	config   SessionConfig
	identity *IdentityPool
	pacer    *Pacer
}

// NewSession launches the browser and returns a session ready to fetch.
func NewSession(config SessionConfig, identity *IdentityPool, pacer *Pacer) (*Session, error) {
	if config.PageTimeout <= 0 {
		config.PageTimeout = defaultPageTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.BackoffStep <= 0 {
		config.BackoffStep = defaultBackoffStep
	}
	if config.ScrollPauseDown <= 0 {
		config.ScrollPauseDown = defaultScrollPauseDown
	}
	if config.ScrollPauseUp <= 0 {
		config.ScrollPauseUp = defaultScrollPauseUp
	}
	if identity == nil {
		identity = NewIdentityPool(nil, 0, 0)
	}
	if pacer == nil {
		pacer = NewDisabledPacer()
	}

	s := &Session{
		config:   config,
		identity: identity,
		pacer:    pacer,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.startLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Fetch navigates to url and returns the rendered HTML. Failed attempts are
// retried with a linearly growing pause between them; the error from the
// last attempt comes back wrapped when all of them fail.
func (s *Session) Fetch(ctx context.Context, url string, opts domain.FetchOptions) (string, error) {
	html, err := retryWithBackoff(ctx, s.pacer, s.config.MaxAttempts, s.config.BackoffStep, url, func(ctx context.Context) (string, error) {
		return s.fetchOnce(ctx, url, opts)
	})
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	return html, nil
}

// Restart tears the browser down and launches a new one. When the relaunch
// fails the session is left without a browser and the next Fetch starts one.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shutdownLocked()
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("[BROWSER] Restarting session")
	return s.startLocked()
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownLocked()
	return nil
}

func (s *Session) startLocked() error {
	bin := s.config.BinPath
	if bin == "" {
		path, err := launcher.NewBrowser().Get()
		if err != nil {
			return fmt.Errorf("%w: locate browser binary: %v", domain.ErrBrowserUnavailable, err)
		}
		bin = path
	}

	l := launcher.New().
		Headless(s.config.Headless).
		Bin(bin).
		NoSandbox(true).
		Leakless(false).
		Set("remote-allow-origins", "*")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: launch: %v", domain.ErrBrowserUnavailable, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: connect: %v", domain.ErrBrowserUnavailable, err)
	}

	s.launcher = l
	s.browser = browser
	log.Printf("[BROWSER] Session started (headless: %t)", s.config.Headless)
	return nil
}

// ensureBrowser returns the live browser, launching one if a failed restart
// left the session empty.
func (s *Session) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Printf("[BROWSER] No live session, launching a new one")
	if err := s.startLocked(); err != nil {
		return nil, err
	}
	return s.browser, nil
}

func (s *Session) fetchOnce(ctx context.Context, url string, opts domain.FetchOptions) (string, error) {
	browser, err := s.ensureBrowser(ctx)
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	profile := s.identity.Draw()
	if err := applyProfile(page, profile); err != nil {
		return "", err
	}
	if opts.FreshIdentity {
		if err := (proto.NetworkClearBrowserCookies{}).Call(page); err != nil {
			return "", fmt.Errorf("clear cookies: %w", err)
		}
	}

	nav := page.Timeout(s.config.PageTimeout)
	if err := nav.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	if err := s.pacer.SettleDelay(ctx); err != nil {
		return "", err
	}
	if opts.RenderScroll {
		if err := s.renderScroll(ctx, page, profile); err != nil {
			return "", err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

func applyProfile(page *rod.Page, profile Profile) error {
	err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: profile.UserAgent})
	if err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             profile.Width,
		Height:            profile.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	return nil
}

// renderScroll walks the page the way a person skimming results would:
// scroll to the bottom, pause, scroll back up, pause, then drift the mouse.
// Lazy-loaded tiles need the bottom pass to render at all.
func (s *Session) renderScroll(ctx context.Context, page *rod.Page, profile Profile) error {
	if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return fmt.Errorf("scroll down: %w", err)
	}
	if err := s.pacer.Sleep(ctx, s.config.ScrollPauseDown); err != nil {
		return err
	}
	if _, err := page.Eval(`() => window.scrollTo(0, 0)`); err != nil {
		return fmt.Errorf("scroll up: %w", err)
	}
	if err := s.pacer.Sleep(ctx, s.config.ScrollPauseUp); err != nil {
		return err
	}

	x, y := s.identity.RandomPoint(profile)
	if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("move mouse: %w", err)
	}
	return nil
}

func (s *Session) shutdownLocked() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Printf("[BROWSER] Closing browser: %v", err)
		}
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher = nil
	}
}

// retryWithBackoff runs fn up to maxAttempts times, pacing each attempt and
// sleeping attempt*step between failures.
func retryWithBackoff(ctx context.Context, pacer *Pacer, maxAttempts int, step time.Duration, label string, fn func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := pacer.Wait(ctx); err != nil {
			return "", err
		}

		html, err := fn(ctx)
		if err == nil {
			return html, nil
		}
		lastErr = err
		log.Printf("[BROWSER] Attempt %d/%d for %s failed: %v", attempt, maxAttempts, label, err)

		if attempt < maxAttempts {
			if err := pacer.Sleep(ctx, time.Duration(attempt)*step); err != nil {
				return "", err
			}
		}
	}
	return "", lastErr
}
