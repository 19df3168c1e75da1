package launch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	appLog "classlaunch/internal/log"
)

// Default Chrome launcher parameters.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 800
	DefaultTimeoutSec = 30
)

// ChromeOptions configures a Chrome launcher.
type ChromeOptions struct {
	// ExecPath overrides the Chrome/Chromium binary. Empty searches PATH.
	ExecPath string

	// UserDataDir keeps logins (meeting sites) across runs. Empty uses a
	// throwaway profile.
	UserDataDir string

	// Width and Height size the window. If zero, DefaultWidth /
	// DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds a single navigation. If zero, DefaultTimeoutSec is used.
	Timeout time.Duration
}

// Chrome opens each locator in a new tab of one visible Chrome window
// driven over the DevTools protocol. The browser is started on the first
// launch and lives until Close or until the parent context ends.
type Chrome struct {
	opts ChromeOptions

	mu            sync.Mutex
	parent        context.Context
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	tabCancels    []context.CancelFunc
}

func NewChrome(parent context.Context, opts ChromeOptions) *Chrome {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return &Chrome{opts: opts, parent: parent}
}

// visibleWindowFlags override the headless defaults in
// chromedp.DefaultExecAllocatorOptions, including the muted audio and the
// automation infobar.
var visibleWindowFlags = map[string]any{
	"headless":          false,
	"mute-audio":        false,
	"hide-scrollbars":   false,
	"enable-automation": false,
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range visibleWindowFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	opts = append(opts, chromedp.WindowSize(c.opts.Width, c.opts.Height))
	if c.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
	}
	if c.opts.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(c.opts.UserDataDir))
	}
	return opts
}

// alive reports whether the allocated browser is still usable. chromedp
// cancels the browser context itself when the window is closed.
func (c *Chrome) alive() bool {
	return c.browserCtx != nil && c.browserCtx.Err() == nil
}

// release drops the current browser and its tabs. Must be called with mu
// held.
func (c *Chrome) release() {
	for _, cancel := range c.tabCancels {
		cancel()
	}
	c.tabCancels = nil
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	c.browserCtx = nil
	c.browserCancel = nil
	c.allocCancel = nil
}

// start allocates the browser, replacing one that was closed by the user.
// Must be called with mu held.
func (c *Chrome) start() error {
	if c.alive() {
		return nil
	}
	if c.browserCtx != nil {
		appLog.Warn("chrome window was closed, starting a new one")
		c.release()
	}

	allocOpts := c.allocatorOptions()
	allocCtx, allocCancel := chromedp.NewExecAllocator(c.parent, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// First Run allocates the browser; it must not carry a timeout or the
	// whole browser stops when it expires.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("launch: start chrome: %w", err)
	}

	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	c.allocCancel = allocCancel
	appLog.Info("chrome started", "width", c.opts.Width, "height", c.opts.Height)
	return nil
}

func (c *Chrome) Launch(ctx context.Context, locator string) error {
	if locator == "" {
		return ErrEmptyLocator
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.start(); err != nil {
		return err
	}

	// Each class gets its own tab; the tab stays open after this returns.
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return fmt.Errorf("launch: open tab: %w", err)
	}
	c.tabCancels = append(c.tabCancels, tabCancel)

	navCtx, navCancel := context.WithTimeout(tabCtx, c.opts.Timeout)
	defer navCancel()
	stop := context.AfterFunc(ctx, navCancel)
	defer stop()

	if err := chromedp.Run(navCtx, chromedp.Navigate(locator)); err != nil {
		return fmt.Errorf("launch: chromedp navigate: %w", err)
	}
	return nil
}

// Close shuts down all tabs and the browser.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
	return nil
}
