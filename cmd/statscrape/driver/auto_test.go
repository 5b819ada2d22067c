package driver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/statscrape/internal/table"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

func TestNeedsJavaScript(t *testing.T) {
	long := strings.Repeat("Mohamed Salah 10 goals ", 10)

	tests := []struct {
		name     string
		text     string
		noscript string
		want     bool
	}{
		{name: "server rendered", text: long, want: false},
		{name: "loading shell", text: "Loading...", want: true},
		{name: "enable javascript", text: "Please enable JavaScript", want: true},
		{name: "short but no indicator", text: "Stats", want: false},
		{name: "noscript notice", text: long, noscript: "You need to enable JavaScript to run this app.", want: true},
		{name: "noscript tracking pixel", text: long, noscript: "<img src=pixel.gif>", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsJavaScript(tt.text, tt.noscript); got != tt.want {
				t.Errorf("needsJavaScript() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaticSufficient(t *testing.T) {
	var rows strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&rows, "<tr><td><a>Player %d</a></td><td>%d</td></tr>", i, i)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/server", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "<html><body><table><tbody>%s</tbody></table></body></html>", rows.String())
	})
	mux.HandleFunc("/spa", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><div id="root"></div><noscript>You need to enable JavaScript</noscript></body></html>`)
	})
	mux.HandleFunc("/shell", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><div id="__next"></div><table><tbody>%s</tbody></table></body></html>`, rows.String())
	})
	mux.HandleFunc("/paged-button", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><table><tbody>%s</tbody></table>`+
			`<span>Page 1 of 5</span><button>&lt;</button><button>&gt;</button></body></html>`, rows.String())
	})
	mux.HandleFunc("/paged-fragment", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><table><tbody>%s</tbody></table>`+
			`<span>Page 1 of 5</span><a rel="next" href="#">&gt;</a></body></html>`, rows.String())
	})
	mux.HandleFunc("/paged-link", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><table><tbody>%s</tbody></table>`+
			`<span>Page 1 of 5</span><a rel="next" href="/paged-link?page=2">&gt;</a></body></html>`, rows.String())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		path   string
		usable bool
		reason string
	}{
		{path: "/server", usable: true},
		{path: "/spa", usable: false},
		{path: "/shell", usable: false, reason: "empty client-side app root"},
		{path: "/missing", usable: false},
		{path: "/paged-button", usable: false, reason: "pagination needs a browser"},
		{path: "/paged-fragment", usable: false, reason: "pagination needs a browser"},
		{path: "/paged-link", usable: true},
	}

	cfg := table.DefaultConfig()
	cfg.NextSelector = `button, a[rel="next"]`

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h := browser.NewStatic(browser.DefaultConfig())
			defer h.Close()

			target := Target{URL: srv.URL + tt.path, Table: cfg}
			usable, reason := staticSufficient(context.Background(), h, target)
			if usable != tt.usable {
				t.Errorf("staticSufficient() = %v (%s), want %v", usable, reason, tt.usable)
			}
			if !usable && reason == "" {
				t.Error("expected a reason when static is rejected")
			}
			if tt.reason != "" && reason != tt.reason {
				t.Errorf("reason = %q, want %q", reason, tt.reason)
			}
		})
	}
}

func TestOpenAuto_ChoosesStatic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body><table><tbody>"+
			strings.Repeat("<tr><td><a>Bukayo Saka</a></td><td>7</td></tr>", 8)+
			"</tbody></table></body></html>")
	}))
	defer srv.Close()

	cfg := browser.DefaultConfig()
	cfg.Backend = browser.BackendAuto

	h, err := Open(context.Background(), cfg, WithTarget(srv.URL, table.DefaultConfig()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer h.Close()
	if h.Backend() != browser.BackendStatic {
		t.Errorf("Backend() = %q, want %q", h.Backend(), browser.BackendStatic)
	}
}
