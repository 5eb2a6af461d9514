package capture

import (
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Defaults for a Browser.
const (
	// DefaultViewportWidth and DefaultViewportHeight size the window before a
	// full-page screenshot. The height is minimal so that the capture is as
	// tall as the content and no taller.
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 10

	DefaultNavigationTimeout = 60 * time.Second
	DefaultIdleTimeout       = 30 * time.Second
)

// Default login form selectors.
const (
	DefaultUserSelector     = "#edit-name"
	DefaultPasswordSelector = "#edit-pass"
	DefaultSubmitSelector   = "#edit-submit"
)

// Option configures a Browser.
type Option func(*options)

type options struct {
	execPath          string
	headless          bool
	userAgent         string
	viewportWidth     int64
	viewportHeight    int64
	navigationTimeout time.Duration
	idleTimeout       time.Duration
	logger            *slog.Logger
}

func defaultOptions() options {
	return options{
		headless:          true,
		viewportWidth:     DefaultViewportWidth,
		viewportHeight:    DefaultViewportHeight,
		navigationTimeout: DefaultNavigationTimeout,
		idleTimeout:       DefaultIdleTimeout,
	}
}

// WithExecPath sets the Chrome binary. By default chromedp searches the
// usual install locations.
func WithExecPath(path string) Option {
	return func(o *options) {
		o.execPath = path
	}
}

// WithHeadless toggles headless mode. Enabled by default.
func WithHeadless(headless bool) Option {
	return func(o *options) {
		o.headless = headless
	}
}

// WithUserAgent overrides the browser's User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithViewport sets the viewport used before every navigation.
// Non-positive values keep the default.
func WithViewport(width, height int) Option {
	return func(o *options) {
		if width > 0 {
			o.viewportWidth = int64(width)
		}
		if height > 0 {
			o.viewportHeight = int64(height)
		}
	}
}

// WithNavigationTimeout bounds each navigation, screenshot and link read.
func WithNavigationTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.navigationTimeout = d
		}
	}
}

// WithIdleTimeout bounds how long a navigation waits for the network to
// become idle. A page that never settles is captured when it expires.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// allocatorOptions returns the flags Chrome is started with.
func (o options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+6)
	for _, opt := range chromedp.DefaultExecAllocatorOptions {
		opts = append(opts, opt)
	}
	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", o.headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(int(o.viewportWidth), int(o.viewportHeight)),
	)
	if o.execPath != "" {
		opts = append(opts, chromedp.ExecPath(o.execPath))
	}
	if o.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.userAgent))
	}
	return opts
}
