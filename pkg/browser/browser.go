// Package browser defines the automation handle used to drive a rendered page.
// Backends (local Chrome, a remote session broker, go-rod, or a static HTML
// document) implement Handle so that table extraction is written once.
package browser

import (
	"context"
	"errors"
	"time"
)

// Handle is one mutable page session. It is not safe for concurrent use:
// navigation on the same handle from two goroutines would race on the
// current page.
type Handle interface {
	// Navigate loads url in the page.
	Navigate(ctx context.Context, url string) error

	// WaitForElement blocks until an element matching selector exists or
	// timeout elapses, in which case it returns ErrNotFound.
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// FindAll returns every element matching selector in document order.
	// No match is an empty slice, not an error.
	FindAll(ctx context.Context, selector string) ([]Element, error)

	// Evaluate runs a JavaScript expression and decodes its result into out.
	// Backends without a script engine return ErrUnsupported.
	Evaluate(ctx context.Context, script string, out any) error

	// Close releases the page and any browser process or remote session.
	Close() error

	// Backend names the implementation (e.g. "chrome", "rod").
	Backend() string
}

// Element is a node inside a Handle's current document.
type Element interface {
	Text(ctx context.Context) (string, error)
	Attr(ctx context.Context, name string) (string, bool, error)
	Click(ctx context.Context) error
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

// Error types for distinguishing handle failures.
// Check with errors.Is(err, browser.ErrNotFound).
var (
	// ErrNotFound indicates no element matched before the deadline.
	ErrNotFound = errors.New("element not found")
	// ErrUnsupported indicates the backend cannot perform the operation.
	ErrUnsupported = errors.New("operation not supported by backend")
	// ErrMissingCredentials indicates a remote backend was selected without
	// the API key or project it needs.
	ErrMissingCredentials = errors.New("missing automation backend credentials")
)

// Backend identifiers.
const (
	BackendChrome      = "chrome"
	BackendRod         = "rod"
	BackendBrowserbase = "browserbase"
	BackendStatic      = "static"
	BackendAuto        = "auto" // static when the table is server-rendered, else chrome
)

// Config is the explicit setup for acquiring a Handle. It is built once at
// startup and passed to the backend factory.
type Config struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=chrome rod browserbase static auto"`

	// Remote session broker
	APIKey        string `mapstructure:"api_key" validate:"required_if=Backend browserbase"`
	ProjectID     string `mapstructure:"project_id" validate:"required_if=Backend browserbase"`
	// ModelEndpoint is informational only: it is recorded as session
	// metadata so runs can be traced to the agent that launched them, and
	// changes nothing about how the table is scraped.
	ModelEndpoint string `mapstructure:"model_endpoint"`
	BrokerURL     string `mapstructure:"broker_url" validate:"omitempty,url"`

	// Local browser
	Headless   bool   `mapstructure:"headless"`
	Stealth    bool   `mapstructure:"stealth"`
	ChromePath string `mapstructure:"chrome_path"`
	ProxyURL   string `mapstructure:"proxy" validate:"omitempty,url"`

	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// Chrome user agent for better compatibility
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendChrome,
		Headless:  true,
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
	}
}
