package driver

import (
	"context"
	"strings"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/internal/table"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// Target describes the page used to choose a backend in auto mode. Table
// supplies the row, indicator and next-control selectors the scrape will use.
type Target struct {
	URL   string
	Table table.Config
}

// openAuto fetches target.URL without a browser. If the HTML already contains
// table rows, shows no sign of client-side rendering and can be paged by
// following links, the static handle is kept; otherwise a local Chrome is
// started.
func openAuto(ctx context.Context, cfg browser.Config, target Target) (browser.Handle, error) {
	log := logger.For(browser.BackendAuto)

	if target.URL != "" && target.Table.RowSelector != "" {
		static := browser.NewStatic(cfg)
		usable, reason := staticSufficient(ctx, static, target)
		if usable {
			log.Info("table is server-rendered, using static backend", "url", target.URL)
			return static, nil
		}
		log.Info("static target insufficient, using chrome", "url", target.URL, "reason", reason)
		static.Close()
	}

	cfg.Backend = browser.BackendChrome
	return asHandle(NewChrome(ctx, cfg))
}

func staticSufficient(ctx context.Context, h *browser.StaticHandle, target Target) (bool, string) {
	if err := h.Navigate(ctx, target.URL); err != nil {
		return false, err.Error()
	}

	rows, err := h.FindAll(ctx, target.Table.RowSelector)
	if err != nil || len(rows) == 0 {
		return false, "no table rows in HTML"
	}

	roots, _ := h.FindAll(ctx, appRootSelector)
	for _, el := range roots {
		if t, _ := el.Text(ctx); strings.TrimSpace(t) == "" {
			return false, "empty client-side app root"
		}
	}

	var body, noscript string
	if els, _ := h.FindAll(ctx, "body"); len(els) > 0 {
		body, _ = els[0].Text(ctx)
	}
	notes, _ := h.FindAll(ctx, "noscript")
	for _, el := range notes {
		t, _ := el.Text(ctx)
		noscript += t + " "
	}
	if needsJavaScript(body, noscript) {
		return false, "page asks for JavaScript"
	}

	if table.TotalPages(ctx, h, target.Table) > 1 {
		next := table.FindNextControl(ctx, h, target.Table)
		if next == nil {
			return false, "pagination needs a browser"
		}
		if href, _, _ := next.Attr(ctx, "href"); !browser.Followable(href) {
			return false, "pagination needs a browser"
		}
	}
	return true, ""
}

// appRootSelector matches the mount points of common SPA frameworks.
const appRootSelector = "#root, #app, #__next, #__nuxt, app-root, [data-reactroot], [ng-app], [v-cloak]"

// needsJavaScript checks if a page's visible text or noscript content says it
// requires JS rendering.
func needsJavaScript(text, noscript string) bool {
	text = strings.ToLower(text)
	noscript = strings.ToLower(noscript)

	// Very little text usually means an app shell still loading
	if len(strings.TrimSpace(text)) < 100 {
		for _, indicator := range []string{"loading", "please wait", "javascript required", "enable javascript"} {
			if strings.Contains(text, indicator) {
				return true
			}
		}
	}

	for _, indicator := range []string{"javascript", "enable", "required", "browser"} {
		if strings.Contains(noscript, indicator) {
			return true
		}
	}
	return false
}
