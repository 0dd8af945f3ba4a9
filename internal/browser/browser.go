// Package browser drives a real browser session through Playwright: a
// persistent profile so exam logins survive restarts, page preparation
// (expanding collapsed passages, dismissing popups, scrolling for lazy
// content), and the click escalation ladder used to actuate answers.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

// ErrClosed reports that the browser window or context has gone away,
// usually because the operator closed it. Callers treat it as a normal
// shutdown signal rather than a failure.
var ErrClosed = errors.New("browser closed")

// Config controls the launched browser session.
type Config struct {
	// Browser selects the engine: "chromium" (default), "firefox" or "webkit".
	Browser string
	// Headless hides the window. Exam flows normally run headed so the
	// operator can log in and navigate.
	Headless bool
	// UserDataDir is the persistent profile directory; it is created if
	// missing so cookies and sessions carry over between runs.
	UserDataDir string
	// DefaultTimeout applies to all Playwright operations unless a call
	// overrides it.
	DefaultTimeout time.Duration
	// StartURL, when set, is opened after launch.
	StartURL string
}

// Controller owns one persistent browser context and its single page.
type Controller struct {
	cfg Config
	log zerolog.Logger

	pw   *playwright.Playwright
	bctx playwright.BrowserContext
	page playwright.Page
}

// New creates a Controller; the browser is not launched until Start.
func New(cfg Config, log zerolog.Logger) *Controller {
	if cfg.Browser == "" {
		cfg.Browser = "chromium"
	}
	if cfg.UserDataDir == "" {
		cfg.UserDataDir = "./user_data"
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 15 * time.Second
	}
	return &Controller{cfg: cfg, log: log}
}

// Start launches the browser with a persistent profile and navigates to the
// configured start URL, if any. It reuses an existing page when the restored
// profile opens one.
func (c *Controller) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	c.pw = pw

	var bt playwright.BrowserType
	switch c.cfg.Browser {
	case "chromium":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return fmt.Errorf("unknown browser %q", c.cfg.Browser)
	}

	if err := os.MkdirAll(c.cfg.UserDataDir, 0o755); err != nil {
		_ = pw.Stop()
		return fmt.Errorf("create user data dir: %w", err)
	}

	bctx, err := bt.LaunchPersistentContext(c.cfg.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(c.cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("launch %s: %w", c.cfg.Browser, translate(err))
	}
	c.bctx = bctx
	bctx.SetDefaultTimeout(float64(c.cfg.DefaultTimeout.Milliseconds()))

	if pages := bctx.Pages(); len(pages) > 0 {
		c.page = pages[0]
	} else {
		page, err := bctx.NewPage()
		if err != nil {
			c.Stop()
			return fmt.Errorf("open page: %w", translate(err))
		}
		c.page = page
	}

	if c.cfg.StartURL != "" {
		if _, err := c.page.Goto(c.cfg.StartURL); err != nil {
			c.log.Warn().Err(err).Str("url", c.cfg.StartURL).Msg("start url navigation failed")
		}
	}
	c.log.Info().Str("browser", c.cfg.Browser).Bool("headless", c.cfg.Headless).Msg("browser started")
	return nil
}

// Stop closes the context and the Playwright driver. Safe to call more than
// once and after a failed Start.
func (c *Controller) Stop() {
	if c.bctx != nil {
		if err := c.bctx.Close(); err != nil && !errors.Is(translate(err), ErrClosed) {
			c.log.Warn().Err(err).Msg("closing browser context")
		}
		c.bctx = nil
	}
	if c.pw != nil {
		if err := c.pw.Stop(); err != nil {
			c.log.Warn().Err(err).Msg("stopping playwright")
		}
		c.pw = nil
	}
	c.page = nil
}

// Page exposes the live page through the DOM abstraction the extractor
// consumes.
func (c *Controller) Page() *LivePage {
	return &LivePage{c: c}
}

// translate maps driver errors that mean "the window is gone" onto ErrClosed
// so callers can distinguish operator shutdown from real failures.
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Target closed") ||
		strings.Contains(msg, "has been closed") ||
		strings.Contains(msg, "browser closed") {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}

// Closed reports whether err means the browser went away.
func Closed(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(translate(err), ErrClosed)
}
