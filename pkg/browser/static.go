package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/statscrape/internal/logger"
)

// StaticHandle serves pages that render their table server-side. It fetches
// HTML with Colly and queries it with goquery. Clicking only works on
// elements carrying an href, which covers link-based pagination.
type StaticHandle struct {
	config Config
	doc    *goquery.Document
	url    *url.URL
}

// NewStatic creates a static handle with no document loaded.
func NewStatic(cfg Config) *StaticHandle {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &StaticHandle{config: cfg}
}

// NewStaticFromHTML creates a static handle preloaded with html as if it had
// been fetched from baseURL.
func NewStaticFromHTML(html, baseURL string) (*StaticHandle, error) {
	h := NewStatic(Config{Backend: BackendStatic})
	if err := h.load(html, baseURL); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *StaticHandle) load(html, pageURL string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	h.doc = doc
	h.url = u
	return nil
}

// Navigate fetches targetURL and replaces the current document.
func (h *StaticHandle) Navigate(ctx context.Context, targetURL string) error {
	logger.Debug("static navigate", "url", targetURL)

	c := colly.NewCollector(
		colly.UserAgent(h.config.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(h.config.Timeout)
	if h.config.ProxyURL != "" {
		if err := c.SetProxy(h.config.ProxyURL); err != nil {
			return fmt.Errorf("failed to set proxy: %w", err)
		}
	}

	var (
		body     string
		finalURL = targetURL
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
		finalURL = r.Request.URL.String()
		logger.Debug("static response received", "status", r.StatusCode, "body_size", len(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error (status %d): %w", status, err)
	})

	if err := c.Visit(targetURL); err != nil {
		if fetchErr != nil {
			return fetchErr
		}
		return fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return fetchErr
	}
	return h.load(body, finalURL)
}

// WaitForElement returns the first match. A static document never changes
// after load, so there is nothing to wait for.
func (h *StaticHandle) WaitForElement(_ context.Context, selector string, _ time.Duration) (Element, error) {
	if h.doc == nil {
		return nil, ErrNotFound
	}
	sel := h.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, ErrNotFound
	}
	return &staticElement{handle: h, sel: sel}, nil
}

// FindAll returns every match in document order.
func (h *StaticHandle) FindAll(_ context.Context, selector string) ([]Element, error) {
	if h.doc == nil {
		return nil, nil
	}
	return h.wrap(h.doc.Find(selector)), nil
}

// Evaluate is not available without a script engine.
func (h *StaticHandle) Evaluate(context.Context, string, any) error {
	return ErrUnsupported
}

// Close releases resources.
func (h *StaticHandle) Close() error {
	h.doc = nil
	return nil
}

// Backend returns the backend name.
func (h *StaticHandle) Backend() string {
	return BackendStatic
}

func (h *StaticHandle) wrap(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &staticElement{handle: h, sel: s})
	})
	return elements
}

type staticElement struct {
	handle *StaticHandle
	sel    *goquery.Selection
}

func (e *staticElement) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e *staticElement) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// Followable reports whether the static backend can click an element with
// this href: fragment-only and javascript: links need a browser.
func Followable(href string) bool {
	href = strings.TrimSpace(href)
	return href != "" &&
		!strings.HasPrefix(href, "#") &&
		!strings.HasPrefix(strings.ToLower(href), "javascript:")
}

// Click follows the element's href.
func (e *staticElement) Click(ctx context.Context) error {
	href, _ := e.sel.Attr("href")
	if !Followable(href) {
		return fmt.Errorf("%w: click on element without href", ErrUnsupported)
	}
	link, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("invalid href %q: %w", href, err)
	}
	if !link.IsAbs() && e.handle.url != nil {
		link = e.handle.url.ResolveReference(link)
	}
	return e.handle.Navigate(ctx, link.String())
}

func (e *staticElement) FindAll(_ context.Context, selector string) ([]Element, error) {
	return e.handle.wrap(e.sel.Find(selector)), nil
}
