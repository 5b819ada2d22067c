package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// ChromeHandle drives a single Chrome tab over CDP. The browser is either
// launched locally or reached through a remote websocket endpoint.
type ChromeHandle struct {
	config  browser.Config
	backend string
	log     *slog.Logger

	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	stealthInjected bool
	onClose         func() error
}

// NewChrome launches a local Chrome and opens one tab.
func NewChrome(ctx context.Context, cfg browser.Config) (*ChromeHandle, error) {
	opts := execAllocatorOptions(cfg.Headless, cfg.Stealth)
	if chromePath := FindChromePath(cfg.ChromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	return startChrome(ctx, cfg, browser.BackendChrome, allocCtx, cancelAlloc)
}

// NewRemoteChrome attaches to a browser already running behind a CDP
// websocket URL, such as a broker session.
func NewRemoteChrome(ctx context.Context, cfg browser.Config, wsURL string) (*ChromeHandle, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), wsURL, chromedp.NoModifyURL)
	return startChrome(ctx, cfg, browser.BackendBrowserbase, allocCtx, cancelAlloc)
}

func startChrome(ctx context.Context, cfg browser.Config, backend string, allocCtx context.Context, cancelAlloc context.CancelFunc) (*ChromeHandle, error) {
	log := logger.For(backend)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	h := &ChromeHandle{
		config:      cfg,
		backend:     backend,
		log:         log,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// The first Run starts the browser (or attaches) and must use the tab
	// context itself so the browser lives as long as the handle.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-ctx.Done():
		h.Close()
		return nil, ctx.Err()
	}

	log.Debug("browser session started", "headless", cfg.Headless, "stealth", cfg.Stealth)
	return h, nil
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (h *ChromeHandle) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = h.config.Timeout
	}
	runCtx, cancel := context.WithTimeout(h.tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads targetURL and waits for the load event.
func (h *ChromeHandle) Navigate(ctx context.Context, targetURL string) error {
	var actions []chromedp.Action
	if h.config.Stealth && !h.stealthInjected {
		actions = append(actions, injectStealthScript())
	}

	var title, html string
	actions = append(actions,
		chromedp.Navigate(targetURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := h.run(ctx, h.config.Timeout, actions...); err != nil {
		h.saveDebugScreenshot()
		return fmt.Errorf("browser navigation failed: %w", err)
	}
	h.stealthInjected = h.stealthInjected || h.config.Stealth

	if challenge := detectChallengePage(title, html); challenge != "" {
		h.log.Warn("challenge page detected", "url", targetURL, "type", challenge)
	}
	h.log.Debug("navigated", "url", targetURL, "title", title)
	return nil
}

// WaitForElement waits for the first node matching selector.
func (h *ChromeHandle) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	var nodes []*cdp.Node
	err := h.run(ctx, timeout, chromedp.Nodes(selector, &nodes, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
		}
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return &chromeElement{handle: h, node: nodes[0]}, nil
}

// FindAll returns every node currently matching selector without waiting.
func (h *ChromeHandle) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return h.queryAll(ctx, selector)
}

func (h *ChromeHandle) queryAll(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]browser.Element, error) {
	var nodes []*cdp.Node
	opts = append(opts, chromedp.ByQueryAll, chromedp.AtLeast(0))
	if err := h.run(ctx, h.config.Timeout, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}
	elements := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromeElement{handle: h, node: n})
	}
	return elements, nil
}

// Evaluate runs a JavaScript expression in the page.
func (h *ChromeHandle) Evaluate(ctx context.Context, script string, out any) error {
	return h.run(ctx, h.config.Timeout, chromedp.Evaluate(script, out))
}

// Close closes the tab and the browser, then releases any remote session.
func (h *ChromeHandle) Close() error {
	if h.cancelTab != nil {
		h.cancelTab()
	}
	if h.cancelAlloc != nil {
		h.cancelAlloc()
	}
	if h.onClose != nil {
		err := h.onClose()
		h.onClose = nil
		return err
	}
	return nil
}

// Backend returns the backend name.
func (h *ChromeHandle) Backend() string {
	return h.backend
}

// saveDebugScreenshot writes the current viewport to the temp dir when debug
// logging is enabled.
func (h *ChromeHandle) saveDebugScreenshot() {
	if !h.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	screenshot := captureScreenshot(h.tabCtx)
	if screenshot == nil {
		return
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("statscrape-debug-%d.png", time.Now().UnixNano()))
	if err := os.WriteFile(path, screenshot, 0644); err == nil {
		h.log.Debug("debug screenshot saved", "path", path)
	}
}

type chromeElement struct {
	handle *ChromeHandle
	node   *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// Text returns the node's text content, including text that is not
// currently painted.
func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.handle.run(ctx, e.handle.config.Timeout, chromedp.TextContent(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

// Attr reads from the node snapshot taken when the element was queried.
func (e *chromeElement) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.node.Attribute(name)
	return v, ok, nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.handle.run(ctx, e.handle.config.Timeout, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *chromeElement) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return e.handle.queryAll(ctx, selector, chromedp.FromNode(e.node))
}
