package table

import (
	"context"
	"time"
)

// waitUntil polls cond every interval until it returns true, timeout
// elapses, or ctx is done. It reports whether cond was satisfied.
func waitUntil(ctx context.Context, timeout, interval time.Duration, cond func(context.Context) bool) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if cond(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
