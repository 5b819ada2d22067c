package table

import (
	"context"
	"strings"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// DismissOverlay closes the consent dialog if one is showing. It returns
// false when no matching control appears within cfg.ConsentTimeout, which is
// the common case once the dialog has been answered. Errors are logged and
// reported as false.
func DismissOverlay(ctx context.Context, h browser.Handle, cfg Config) bool {
	log := logger.For("overlay")

	var control browser.Element
	found := waitUntil(ctx, cfg.ConsentTimeout, cfg.PollInterval, func(ctx context.Context) bool {
		control = findConsentControl(ctx, h, cfg)
		return control != nil
	})
	if !found {
		log.Info("consent dialog not found or already closed")
		return false
	}

	if err := control.Click(ctx); err != nil {
		log.Warn("consent dialog click failed", "error", err)
		return false
	}

	gone := waitUntil(ctx, cfg.SettleTimeout, cfg.PollInterval, func(ctx context.Context) bool {
		return findConsentControl(ctx, h, cfg) == nil
	})
	log.Info("consent dialog closed", "settled", gone)
	return true
}

func findConsentControl(ctx context.Context, h browser.Handle, cfg Config) browser.Element {
	candidates, err := h.FindAll(ctx, cfg.ConsentSelector)
	if err != nil {
		logger.Debug("consent lookup failed", "error", err)
		return nil
	}
	for _, el := range candidates {
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		if containsAnyFold(text, cfg.ConsentPhrases) {
			return el
		}
	}
	return nil
}

func containsAnyFold(s string, phrases []string) bool {
	s = strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
