package table

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/statscrape/pkg/browser"
)

// fakeHandle serves a fixed list of HTML pages. Clicking an element with
// data-action="next" moves to the following page; data-action="deny" closes
// every .overlay element for the rest of the run.
type fakeHandle struct {
	pages      []string
	current    int
	maxVisited int
	dismissed  bool
	stuck      bool // next clicks are accepted but do nothing

	navigateErr error
	readyState  string
	clicks      []string
	closed      bool
}

func newFakeHandle(pages ...string) *fakeHandle {
	return &fakeHandle{pages: pages, readyState: "complete"}
}

func (h *fakeHandle) doc() (*goquery.Document, error) {
	if h.current >= len(h.pages) {
		return nil, errors.New("no page loaded")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(h.pages[h.current]))
	if err != nil {
		return nil, err
	}
	if h.dismissed {
		doc.Find(".overlay").Remove()
	}
	return doc, nil
}

func (h *fakeHandle) Navigate(_ context.Context, url string) error {
	if h.navigateErr != nil {
		return h.navigateErr
	}
	h.current = 0
	return nil
}

func (h *fakeHandle) WaitForElement(_ context.Context, selector string, _ time.Duration) (browser.Element, error) {
	doc, err := h.doc()
	if err != nil {
		return nil, err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, browser.ErrNotFound
	}
	return &fakeElement{h: h, sel: sel}, nil
}

func (h *fakeHandle) FindAll(_ context.Context, selector string) ([]browser.Element, error) {
	doc, err := h.doc()
	if err != nil {
		return nil, err
	}
	return h.wrap(doc.Find(selector)), nil
}

func (h *fakeHandle) Evaluate(_ context.Context, script string, out any) error {
	if script != "document.readyState" {
		return browser.ErrUnsupported
	}
	p, ok := out.(*string)
	if !ok {
		return fmt.Errorf("unexpected out type %T", out)
	}
	*p = h.readyState
	return nil
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func (h *fakeHandle) Backend() string { return "fake" }

func (h *fakeHandle) wrap(sel *goquery.Selection) []browser.Element {
	var out []browser.Element
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &fakeElement{h: h, sel: s})
	})
	return out
}

type fakeElement struct {
	h   *fakeHandle
	sel *goquery.Selection
}

func (e *fakeElement) Text(context.Context) (string, error) { return e.sel.Text(), nil }

func (e *fakeElement) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *fakeElement) Click(context.Context) error {
	e.h.clicks = append(e.h.clicks, strings.TrimSpace(e.sel.Text()))
	switch action, _ := e.sel.Attr("data-action"); action {
	case "next":
		if e.h.stuck {
			return nil
		}
		if e.h.current+1 >= len(e.h.pages) {
			return errors.New("no next page")
		}
		e.h.current++
		if e.h.current > e.h.maxVisited {
			e.h.maxVisited = e.h.current
		}
	case "deny":
		e.h.dismissed = true
	}
	return nil
}

func (e *fakeElement) FindAll(_ context.Context, selector string) ([]browser.Element, error) {
	return e.h.wrap(e.sel.Find(selector)), nil
}

// --- page builders ---

type pageFixture struct {
	indicator string   // e.g. "Page 1 of 3"; empty for none
	rows      []string // <tr> markup
	next      bool
	overlay   bool
}

func (p pageFixture) html() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if p.overlay {
		b.WriteString(`<div class="overlay"><p>We value your privacy</p>` +
			`<button>Accept all</button><button data-action="deny">Deny all</button></div>`)
	}
	b.WriteString("<table><thead><tr><th>Player</th></tr></thead><tbody>")
	for _, r := range p.rows {
		b.WriteString(r)
	}
	b.WriteString("</tbody></table>")
	if p.indicator != "" {
		b.WriteString("<span>" + p.indicator + "</span>")
	}
	b.WriteString(`<button aria-label="<">&lt;</button>`)
	if p.next {
		b.WriteString(`<button data-action="next">&gt;</button>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// goodRow renders a ten-cell row whose stats derive from name.
func goodRow(name string) string {
	var b strings.Builder
	b.WriteString("<tr><td> <a href=\"/player\"> " + name + " </a> </td>")
	for i := 1; i < 10; i++ {
		fmt.Fprintf(&b, "<td> %s-%d </td>", name, i)
	}
	b.WriteString("</tr>")
	return b.String()
}

func shortRow(cells int) string {
	var b strings.Builder
	b.WriteString("<tr><td><a>Short Row</a></td>")
	for i := 1; i < cells; i++ {
		b.WriteString("<td>x</td>")
	}
	b.WriteString("</tr>")
	return b.String()
}

func goodRows(prefix string, n int) []string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = goodRow(fmt.Sprintf("%s-%02d", prefix, i))
	}
	return rows
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LoadTimeout = 50 * time.Millisecond
	cfg.ConsentTimeout = 30 * time.Millisecond
	cfg.RowTimeout = 30 * time.Millisecond
	cfg.SettleTimeout = 30 * time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	return cfg
}

func names(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.PlayerName
	}
	return out
}
