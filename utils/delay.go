package utils

import (
	"context"
	"time"
)

// Wait sleeps for d or until ctx is done, whichever comes first.
// A non-positive d returns immediately.
//
//	if err := utils.Wait(ctx, 3*time.Second); err != nil {
//	    return err // ctx expired while the page settled
//	}
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Truncate cuts s to at most max runes, appending "..." when it cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
