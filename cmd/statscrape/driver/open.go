package driver

import (
	"context"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/internal/table"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// OpenOption configures Open.
type OpenOption func(*openOptions)

type openOptions struct {
	target Target
}

// WithTarget sets the page auto mode inspects to choose a backend, read with
// the selectors in cfg. Without a target, auto falls back to chrome.
func WithTarget(url string, cfg table.Config) OpenOption {
	return func(o *openOptions) {
		o.target = Target{URL: url, Table: cfg}
	}
}

// Open validates cfg and acquires a Handle for the selected backend. The
// caller owns the handle and must Close it.
func Open(ctx context.Context, cfg browser.Config, opts ...OpenOption) (browser.Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger.Debug("opening browser handle",
		"backend", cfg.Backend,
		"headless", cfg.Headless,
		"stealth", cfg.Stealth,
		"timeout", cfg.Timeout)

	var (
		h   browser.Handle
		err error
	)
	switch cfg.Backend {
	case browser.BackendStatic:
		h = browser.NewStatic(cfg)
	case browser.BackendRod:
		h, err = asHandle(NewRod(cfg))
	case browser.BackendBrowserbase:
		h, err = asHandle(NewBrowserbase(ctx, cfg))
	case browser.BackendAuto:
		h, err = openAuto(ctx, cfg, o.target)
	default:
		h, err = asHandle(NewChrome(ctx, cfg))
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// asHandle avoids returning a typed nil inside a non-nil interface.
func asHandle[T browser.Handle](h T, err error) (browser.Handle, error) {
	if err != nil {
		return nil, err
	}
	return h, nil
}
