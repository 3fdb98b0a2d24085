package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// RevalidateAge is how old a fetched version must be before it is checked
	// against the feed again.
	RevalidateAge = 8 * 24 * time.Hour

	sourceSPC = "spc"
)

// Poller moves one SPC weather day through
// fetched -> details stored -> summary current.
type Poller struct {
	source    ContentSource
	repo      PollRepository
	publisher SummaryPublisher
	clock     clockwork.Clock
	delay     DelayFunc
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPoller creates a Poller. publisher may be nil.
func NewPoller(source ContentSource, repo PollRepository, publisher SummaryPublisher, clock clockwork.Clock, delay DelayFunc, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		source:    source,
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		delay:     delay,
		logger:    logger,
		metrics:   metrics,
	}
}

// GetLatest returns the most recently refreshed version for day, or nil.
func GetLatest(day time.Time, inventory []domain.PollInventory) *domain.PollInventory {
	var latest *domain.PollInventory
	for i := range inventory {
		inv := &inventory[i]
		if !inv.Date.Equal(day) {
			continue
		}
		if latest == nil || inv.UpdatedAt.After(latest.UpdatedAt) {
			latest = inv
		}
	}
	return latest
}

// SourceInventory returns the version of day to work on, downloading it when
// the day has never been fetched and revalidating it otherwise. A nil
// inventory looks the latest version up in the store.
func (p *Poller) SourceInventory(ctx context.Context, day time.Time, inventory []domain.PollInventory) (*domain.PollInventory, error) {
	var latest *domain.PollInventory
	if inventory != nil {
		latest = GetLatest(day, inventory)
	} else {
		var err error
		if latest, err = p.repo.LatestPollInventory(ctx, day); err != nil {
			return nil, err
		}
	}

	if latest == nil {
		return p.DownloadNew(ctx, day)
	}
	return p.DownloadUpdate(ctx, latest)
}

// DownloadNew fetches day unconditionally and records the first version.
func (p *Poller) DownloadNew(ctx context.Context, day time.Time) (*domain.PollInventory, error) {
	var body, etag string
	err := Retry(ctx, p.retryDelay, func(ctx context.Context) error {
		var err error
		body, etag, err = p.source.Fetch(ctx, day)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", day.Format(time.DateOnly), err)
	}

	inv := p.newVersion(day, body, etag)
	if err := p.repo.CreatePollInventory(ctx, inv); err != nil {
		return nil, err
	}
	p.logger.Info("spc day downloaded", "day", day.Format(time.DateOnly), "etag", etag, "rows", len(inv.Rows))
	return inv, nil
}

// DownloadUpdate revalidates existing when it is at least RevalidateAge old
// and recorded tornadoes; otherwise it is returned untouched. An unchanged
// feed refreshes UpdatedAt, as does a full response carrying the same ETag.
// Changed content becomes a new version with its flags reset; the old version
// is kept. Content that returns to an earlier ETag replaces that version.
func (p *Poller) DownloadUpdate(ctx context.Context, existing *domain.PollInventory) (*domain.PollInventory, error) {
	if p.clock.Since(existing.UpdatedAt) < RevalidateAge || !existing.IsTornadoDay {
		return existing, nil
	}

	var (
		body, etag string
		changed    bool
	)
	err := Retry(ctx, p.retryDelay, func(ctx context.Context) error {
		var err error
		body, etag, changed, err = p.source.FetchIfChanged(ctx, existing.Date, existing.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("revalidate %s: %w", existing.Date.Format(time.DateOnly), err)
	}

	if !changed || etag == existing.ID {
		existing.UpdatedAt = p.clock.Now().UTC()
		if err := p.repo.UpdatePollInventory(ctx, existing); err != nil {
			return nil, err
		}
		p.logger.Debug("spc day unchanged", "day", existing.Date.Format(time.DateOnly), "etag", existing.ID)
		return existing, nil
	}

	inv := p.newVersion(existing.Date, body, etag)
	if err := p.repo.CreatePollInventory(ctx, inv); err != nil {
		return nil, err
	}
	p.logger.Info("spc day revised",
		"day", existing.Date.Format(time.DateOnly),
		"old_etag", existing.ID,
		"etag", etag,
	)
	return inv, nil
}

// AddDailyDetail replaces the stored details of inv's version with records
// and marks the version detail-complete.
func (p *Poller) AddDailyDetail(ctx context.Context, records []domain.DailyDetail, inv *domain.PollInventory) error {
	if inv.IsDailyDetailComplete {
		return nil
	}

	if err := p.repo.DeleteDailyDetails(ctx, inv.Date, inv.ID); err != nil {
		return err
	}
	if err := p.repo.InsertDailyDetails(ctx, inv.ID, records); err != nil {
		return err
	}

	inv.IsDailyDetailComplete = true
	inv.UpdatedAt = p.clock.Now().UTC()
	return p.repo.UpdatePollInventory(ctx, inv)
}

// AddDailySummary makes aggregate the day's current summary. Every other
// current summary for the day is flipped first. A nil aggregate or an
// already complete version is a no-op.
func (p *Poller) AddDailySummary(ctx context.Context, inv *domain.PollInventory, aggregate *domain.DailySummary) error {
	if inv.IsDailySummaryComplete || aggregate == nil {
		return nil
	}

	summaries, err := p.repo.ListDailySummaries(ctx, inv.Date)
	if err != nil {
		return err
	}

	var own *domain.DailySummary
	for i := range summaries {
		s := &summaries[i]
		if s.SourceID == inv.ID {
			own = s
			continue
		}
		if !s.IsCurrent {
			continue
		}
		s.IsCurrent = false
		if err := p.repo.UpdateDailySummary(ctx, s); err != nil {
			return err
		}
	}

	sum := *aggregate
	sum.Date = inv.Date
	sum.SourceID = inv.ID
	sum.IsCurrent = true
	// A previous run may have stored this version's summary before failing.
	if own != nil {
		err = p.repo.UpdateDailySummary(ctx, &sum)
	} else {
		err = p.repo.CreateDailySummary(ctx, &sum)
	}
	if err != nil {
		return err
	}
	p.metrics.SummariesCurrent.WithLabelValues(sourceSPC).Inc()
	publish(ctx, p.publisher, sum, p.logger, p.metrics)

	inv.IsDailySummaryComplete = true
	inv.IsTornadoDay = sum.Tornadoes() > 0
	return p.repo.UpdatePollInventory(ctx, inv)
}

// Aggregate rolls records up into the day's single summary. It returns nil
// for no records and ErrConsistency when they span more than one day.
func (p *Poller) Aggregate(records []domain.DailyDetail) (*domain.DailySummary, error) {
	summaries, err := domain.AggregateByDate(records)
	if err != nil {
		return nil, err
	}
	switch len(summaries) {
	case 0:
		return nil, nil
	case 1:
		return &summaries[0], nil
	default:
		p.metrics.ConsistencyErrors.Inc()
		return nil, fmt.Errorf("%w: records span %d weather days", domain.ErrConsistency, len(summaries))
	}
}

// ShouldSkip reports whether inv has been fully processed.
func ShouldSkip(inv *domain.PollInventory) bool {
	return inv.IsDailyDetailComplete && inv.IsDailySummaryComplete
}

func (p *Poller) newVersion(day time.Time, body, etag string) *domain.PollInventory {
	return &domain.PollInventory{
		ID:        etag,
		Date:      day,
		Rows:      splitLines(body),
		UpdatedAt: p.clock.Now().UTC(),
	}
}

func (p *Poller) retryDelay(ctx context.Context, attempt int) error {
	p.metrics.RetryAttempts.Inc()
	p.logger.Warn("retrying spc fetch", "attempt", attempt)
	if p.delay == nil {
		return nil
	}
	return p.delay(ctx, attempt)
}

func splitLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}
