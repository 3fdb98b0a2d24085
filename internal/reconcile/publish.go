package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
)

// publish announces sum. Failures are logged and counted; the summary is
// already stored and stays current.
func publish(ctx context.Context, publisher SummaryPublisher, sum domain.DailySummary, logger *slog.Logger, metrics *observability.Metrics) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishSummary(ctx, sum); err != nil {
		metrics.PublishErrors.Inc()
		logger.Warn("publish summary failed",
			"day", sum.Date.Format(time.DateOnly),
			"source_id", sum.SourceID,
			"error", err,
		)
	}
}
