package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png" // decode screenshot dimensions
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/nao1215/sitearchive/internal/crawler"
	"github.com/nao1215/sitearchive/internal/model"
)

// statusScript reads the HTTP status of the current document. Browsers that
// do not expose responseStatus report success.
const statusScript = `window.performance?.getEntriesByType?.('navigation')?.[0]?.responseStatus || 200`

// Lifecycle event names emitted by Chrome.
const (
	lifecycleInit        = "init"
	lifecycleNetworkIdle = "networkIdle"
)

// Browser is a headless Chrome tab.
//
// Design decision: All pages are loaded in the same tab. The crawl is
// sequential, and reusing the tab keeps cookies, cache and service workers
// warm the way a user browsing the site would see them.
type Browser struct {
	opts options

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	cookies []*network.CookieParam
	closed  bool
}

var _ crawler.Browser = (*Browser)(nil)

// New starts Chrome and opens a blank tab.
//
// The browser outlives cancellation of ctx so that in-flight work can be
// unwound cleanly. Every later call observes its own context, and Close
// shuts the browser down.
func New(ctx context.Context, opts ...Option) (*Browser, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), o.allocatorOptions()...)
	logger := o.logger
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chromedp", "message", fmt.Sprintf(format, args...))
		}),
	)

	b := &Browser{
		opts:        o,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}

	// The first Run starts Chrome and its event loops on the context it is
	// given. It must be the tab context, or Chrome dies with the caller's
	// deadline.
	if err := chromedp.Run(tabCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: %w", ErrBrowserUnavailable, err)
	}

	startCtx, cancel := b.callContext(ctx)
	defer cancel()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: %w", ErrBrowserUnavailable, err)
	}

	o.logger.Debug("browser started", "headless", o.headless, "userAgent", o.userAgent)
	return b, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *Browser) Close() {
	if b.closed {
		return
	}
	b.closed = true

	if err := chromedp.Cancel(b.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
		b.opts.logger.Debug("failed to close browser gracefully", "error", err)
	}
	b.tabCancel()
	b.allocCancel()
}

// callContext derives a context for one browser operation. It is bounded by
// the navigation timeout and canceled when ctx is.
func (b *Browser) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(b.tabCtx, b.opts.navigationTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// runAndSettle runs actions and then waits until Chrome reports the network
// idle for the document they loaded, or until the idle timeout expires.
func (b *Browser) runAndSettle(ctx context.Context, actions ...chromedp.Action) error {
	idle := make(chan struct{}, 1)
	var started atomic.Bool

	chromedp.ListenTarget(ctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case lifecycleInit:
			started.Store(true)
		case lifecycleNetworkIdle:
			if started.Load() {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}
	})

	if err := chromedp.Run(ctx, actions...); err != nil {
		return err
	}

	timer := time.NewTimer(b.opts.idleTimeout)
	defer timer.Stop()

	select {
	case <-idle:
	case <-timer.C:
		b.opts.logger.Debug("network did not become idle", "timeout", b.opts.idleTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Navigate loads url in the tab with the session cookies, if any, and waits
// for the network to settle. An HTTP status of 400 or above is reported as
// a *NavigationError.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if b.closed {
		return ErrBrowserClosed
	}

	callCtx, cancel := b.callContext(ctx)
	defer cancel()

	actions := []chromedp.Action{
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(b.opts.viewportWidth, b.opts.viewportHeight),
	}
	if len(b.cookies) > 0 {
		actions = append(actions, network.SetCookies(b.cookies))
	}
	actions = append(actions, chromedp.Navigate(url))

	if err := b.runAndSettle(callCtx, actions...); err != nil {
		return &NavigationError{URL: url, Err: contextCause(ctx, err)}
	}

	var status int64
	if err := chromedp.Run(callCtx, chromedp.Evaluate(statusScript, &status)); err != nil {
		return &NavigationError{URL: url, Err: contextCause(ctx, err)}
	}
	if status >= 400 {
		return &NavigationError{URL: url, Status: int(status)}
	}
	return nil
}

// CaptureFullPage takes a PNG screenshot of the whole document.
func (b *Browser) CaptureFullPage(ctx context.Context) (model.Raster, error) {
	if b.closed {
		return model.Raster{}, ErrBrowserClosed
	}

	callCtx, cancel := b.callContext(ctx)
	defer cancel()

	var buf []byte
	// Quality 100 makes chromedp encode PNG.
	if err := chromedp.Run(callCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return model.Raster{}, fmt.Errorf("failed to take screenshot: %w", contextCause(ctx, err))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return model.Raster{}, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	return model.Raster{
		Data:   buf,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// AnchorHrefs returns the absolute targets of the anchors in the rendered
// document, in document order.
func (b *Browser) AnchorHrefs(ctx context.Context) ([]string, error) {
	if b.closed {
		return nil, ErrBrowserClosed
	}

	callCtx, cancel := b.callContext(ctx)
	defer cancel()

	var (
		html     string
		location string
	)
	if err := chromedp.Run(callCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", contextCause(ctx, err))
	}

	parser, err := crawler.NewParser(location)
	if err != nil {
		return nil, err
	}
	result, err := parser.Parse(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	b.opts.logger.Debug("read links", "url", location, "title", result.Title, "links", len(result.Links))
	return result.Links, nil
}

// Credentials describe a login form.
type Credentials struct {
	LoginURL         string
	User             string
	Password         string
	UserSelector     string
	PasswordSelector string
	SubmitSelector   string
}

func (c Credentials) withDefaults() Credentials {
	if c.UserSelector == "" {
		c.UserSelector = DefaultUserSelector
	}
	if c.PasswordSelector == "" {
		c.PasswordSelector = DefaultPasswordSelector
	}
	if c.SubmitSelector == "" {
		c.SubmitSelector = DefaultSubmitSelector
	}
	return c
}

// Login fills in and submits the login form at creds.LoginURL, then keeps
// the browser's cookies for every later navigation.
func (b *Browser) Login(ctx context.Context, creds Credentials) error {
	if b.closed {
		return ErrBrowserClosed
	}
	creds = creds.withDefaults()

	if err := b.Navigate(ctx, creds.LoginURL); err != nil {
		return &LoginError{URL: creds.LoginURL, Err: err}
	}

	callCtx, cancel := b.callContext(ctx)
	defer cancel()

	err := b.runAndSettle(callCtx,
		chromedp.WaitVisible(creds.UserSelector, chromedp.ByQuery),
		chromedp.SendKeys(creds.UserSelector, creds.User, chromedp.ByQuery),
		chromedp.SendKeys(creds.PasswordSelector, creds.Password, chromedp.ByQuery),
		chromedp.Click(creds.SubmitSelector, chromedp.ByQuery),
	)
	if err != nil {
		return &LoginError{URL: creds.LoginURL, Err: contextCause(ctx, err)}
	}

	var cookies []*network.Cookie
	err = chromedp.Run(callCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return &LoginError{URL: creds.LoginURL, Err: err}
	}

	b.cookies = cookieParams(cookies)
	b.opts.logger.Info("logged in", "url", creds.LoginURL, "cookies", len(b.cookies))
	return nil
}

// contextCause prefers the caller's cancellation over the error chromedp
// reports for the derived context.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
