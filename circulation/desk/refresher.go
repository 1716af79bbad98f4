package desk

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
)

const (
	logMsgAnalyticsRefreshed     = "analytics refreshed"
	logMsgAnalyticsRefreshFailed = "analytics refresh failed"
	logMsgRefresherStopped       = "analytics refresher stopped"
	logAttrDurationMS            = "duration_ms"
	logAttrError                 = "error"
	logAttrInterval              = "interval"
)

// Refresher recomputes the cached analytics of a Desk on a fixed interval,
// so librarians rarely wait for a computation.
type Refresher struct {
	desk     *Desk
	interval time.Duration
}

// NewRefresher creates a Refresher. A non-positive interval falls back to DefaultAnalyticsMaxAge.
func NewRefresher(desk *Desk, interval time.Duration) Refresher {
	if interval <= 0 {
		interval = DefaultAnalyticsMaxAge
	}

	return Refresher{desk: desk, interval: interval}
}

// Run refreshes once right away and then on every tick until ctx is done.
// A failed refresh is logged and retried on the next tick.
func (r Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			shell.LogInfo(ctx, r.desk.logger, r.desk.contextualLogger, logMsgRefresherStopped, logAttrInterval, r.interval.String())
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r Refresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	start := time.Now()

	if err := r.desk.RefreshAnalytics(ctx); err != nil {
		shell.LogError(ctx, r.desk.logger, r.desk.contextualLogger, logMsgAnalyticsRefreshFailed, logAttrError, err.Error())
		return
	}

	shell.LogInfo(
		ctx,
		r.desk.logger,
		r.desk.contextualLogger,
		logMsgAnalyticsRefreshed,
		logAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
	)
}
