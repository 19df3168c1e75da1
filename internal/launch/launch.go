package launch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pkg/browser"

	appLog "classlaunch/internal/log"
)

// Launcher opens a resource locator (usually a URL).
type Launcher interface {
	Launch(ctx context.Context, locator string) error
}

// ErrEmptyLocator is returned when asked to open nothing.
var ErrEmptyLocator = errors.New("launch: empty locator")

// System opens locators with the platform's default handler
// (xdg-open, open, or url.dll on Windows).
type System struct {
	// open is swapped in tests.
	open func(string) error
}

func NewSystem() *System {
	// Keep opener chatter out of the console.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &System{open: browser.OpenURL}
}

func (s *System) Launch(_ context.Context, locator string) error {
	if locator == "" {
		return ErrEmptyLocator
	}
	if err := s.open(locator); err != nil {
		return fmt.Errorf("launch: system opener: %w", err)
	}
	return nil
}

// DryRun only logs the locator. Useful for checking a timetable.
type DryRun struct {
	// Opened records every locator in order.
	Opened []string
}

func (d *DryRun) Launch(_ context.Context, locator string) error {
	if locator == "" {
		return ErrEmptyLocator
	}
	d.Opened = append(d.Opened, locator)
	appLog.Info("dry-run: would open", "locator", locator)
	return nil
}

// Closer is implemented by launchers holding resources (a browser process).
type Closer interface {
	Close() error
}

// New returns the launcher for kind ("system", "chrome", "dry-run").
func New(ctx context.Context, kind string) (Launcher, error) {
	switch kind {
	case "", "system":
		return NewSystem(), nil
	case "chrome":
		return NewChrome(ctx, ChromeOptions{}), nil
	case "dry-run":
		return &DryRun{}, nil
	default:
		return nil, fmt.Errorf("launch: unknown launcher %q", kind)
	}
}
