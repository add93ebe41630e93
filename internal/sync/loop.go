package sync

import (
	"context"
	"runtime/debug"
	"time"
)

// Run scans until ctx is canceled. After each scan it waits for
// interval to elapse or for a value on wake, whichever comes
// first. A panicking scan is logged and the loop carries on
// with the next cycle. wake may be nil.
func (e *Engine) Run(
	ctx context.Context, interval time.Duration, wake <-chan struct{},
) {
	e.logger.Info("scan loop started",
		"root", e.root, "interval", interval)
	for {
		e.safeScan(ctx)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.logger.Info("scan loop stopped")
			return
		case <-timer.C:
		case <-wake:
			timer.Stop()
			e.logger.Debug("scan woken early")
		}
	}
}

func (e *Engine) safeScan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("scan panicked",
				"panic", r, "stack", string(debug.Stack()))
		}
	}()
	if ctx.Err() != nil {
		return
	}
	e.ScanOnce(ctx)
}
