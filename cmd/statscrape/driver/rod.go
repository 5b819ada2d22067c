package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// RodHandle drives one page of a locally launched browser through go-rod.
type RodHandle struct {
	config   browser.Config
	log      *slog.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewRod launches a browser and opens a page. With cfg.Stealth the page is
// created through go-rod/stealth.
func NewRod(cfg browser.Config) (*RodHandle, error) {
	log := logger.For(browser.BackendRod)

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true)
	if bin := FindChromePath(cfg.ChromePath); bin != "" {
		l = l.Bin(bin)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("window-size"), "1920,1080")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	log.Debug("browser launched", "control_url", controlURL)

	h := &RodHandle{config: cfg, log: log, launcher: l}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	h.browser = b

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	h.page = page

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			log.Warn("could not set user agent", "error", err)
		}
	}
	return h, nil
}

// bound returns the page scoped to ctx and timeout.
func (h *RodHandle) bound(ctx context.Context, timeout time.Duration) *rod.Page {
	if timeout <= 0 {
		timeout = h.config.Timeout
	}
	return h.page.Context(ctx).Timeout(timeout)
}

// Navigate loads targetURL and waits for the load event.
func (h *RodHandle) Navigate(ctx context.Context, targetURL string) error {
	p := h.bound(ctx, h.config.Timeout)
	if err := p.Navigate(targetURL); err != nil {
		return fmt.Errorf("browser navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for page load: %w", err)
	}

	info, err := p.Info()
	if err == nil {
		html, _ := p.HTML()
		if challenge := detectChallengePage(info.Title, html); challenge != "" {
			h.log.Warn("challenge page detected", "url", targetURL, "type", challenge)
		}
	}
	h.log.Debug("navigated", "url", targetURL)
	return nil
}

// WaitForElement waits for the first element matching selector.
func (h *RodHandle) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	el, err := h.bound(ctx, timeout).Element(selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
		}
		return nil, err
	}
	return &rodElement{handle: h, el: el}, nil
}

// FindAll returns every element currently matching selector without waiting.
func (h *RodHandle) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	els, err := h.bound(ctx, h.config.Timeout).Elements(selector)
	if err != nil {
		return nil, err
	}
	return h.wrap(els), nil
}

// Evaluate runs a JavaScript expression and decodes its value into out.
func (h *RodHandle) Evaluate(ctx context.Context, script string, out any) error {
	res, err := h.bound(ctx, h.config.Timeout).Eval(fmt.Sprintf("() => (%s)", script))
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Value.Unmarshal(out)
}

// Close closes the browser and kills the launched process.
func (h *RodHandle) Close() error {
	var err error
	if h.browser != nil {
		err = h.browser.Close()
		h.browser = nil
	}
	if h.launcher != nil {
		h.launcher.Kill()
		h.launcher.Cleanup()
		h.launcher = nil
	}
	return err
}

// Backend returns the backend name.
func (h *RodHandle) Backend() string {
	return browser.BackendRod
}

func (h *RodHandle) wrap(els rod.Elements) []browser.Element {
	elements := make([]browser.Element, 0, len(els))
	for _, el := range els {
		elements = append(elements, &rodElement{handle: h, el: el})
	}
	return elements
}

type rodElement struct {
	handle *RodHandle
	el     *rod.Element
}

func (e *rodElement) bound(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Timeout(e.handle.config.Timeout)
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.bound(ctx).Text()
}

func (e *rodElement) Attr(ctx context.Context, name string) (string, bool, error) {
	v, err := e.bound(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.bound(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	els, err := e.bound(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return e.handle.wrap(els), nil
}
