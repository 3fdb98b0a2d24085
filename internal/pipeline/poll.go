// Package pipeline drives the reconcilers over ranges of work: the daily SPC
// feed one weather day at a time, yearly Storm Events archives in throttled
// steps, and a scheduler that repeats the daily poll for the serve command.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/couchcryptid/storm-data-reconciler/internal/reconcile"
	"github.com/jonboulle/clockwork"
)

// Days newer than today minus cutoffDays may still be written by the feed.
const cutoffDays = 2

// FeedParser turns the stored rows of one feed version into detail records.
type FeedParser interface {
	Parse(day time.Time, lines []string) ([]domain.DailyDetail, error)
}

// DayReconciler is the per-day state machine implemented by reconcile.Poller.
type DayReconciler interface {
	SourceInventory(ctx context.Context, day time.Time, inventory []domain.PollInventory) (*domain.PollInventory, error)
	Aggregate(records []domain.DailyDetail) (*domain.DailySummary, error)
	AddDailyDetail(ctx context.Context, records []domain.DailyDetail, inv *domain.PollInventory) error
	AddDailySummary(ctx context.Context, inv *domain.PollInventory, aggregate *domain.DailySummary) error
}

// PollInventoryLister loads the known feed versions of a year.
type PollInventoryLister interface {
	ListPollInventory(ctx context.Context, year int) ([]domain.PollInventory, error)
}

// DailyPollDriver walks the days of a year through the daily feed
// reconciler.
type DailyPollDriver struct {
	poller    DayReconciler
	inventory PollInventoryLister
	parser    FeedParser
	locator   domain.RadarLocator
	clock     clockwork.Clock
	startYear int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewDailyPollDriver creates a driver that leaves years before startYear to
// the archive backfill. locator may be nil.
func NewDailyPollDriver(poller DayReconciler, inventory PollInventoryLister, parser FeedParser, locator domain.RadarLocator, clock clockwork.Clock, startYear int, logger *slog.Logger, metrics *observability.Metrics) *DailyPollDriver {
	return &DailyPollDriver{
		poller:    poller,
		inventory: inventory,
		parser:    parser,
		locator:   locator,
		clock:     clock,
		startYear: startYear,
		logger:    logger,
		metrics:   metrics,
	}
}

// FirstDayNumber returns the zero-based day of year polling starts at.
// Years before the start year return math.MaxInt so nothing is polled.
func (d *DailyPollDriver) FirstDayNumber(year int) int {
	if year < d.startYear {
		return math.MaxInt
	}
	return 0
}

// LastDayNumber returns the zero-based day number of December 31.
func LastDayNumber(year int) int {
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	return int(dec31.Sub(jan1).Hours() / 24)
}

// RunYears polls every year in [first, last] in order and stops at the
// first failure.
func (d *DailyPollDriver) RunYears(ctx context.Context, first, last int) error {
	start := d.clock.Now()
	defer func() {
		d.metrics.RunDuration.WithLabelValues("poll").Observe(d.clock.Since(start).Seconds())
	}()

	for year := first; year <= last; year++ {
		n, err := d.RunYear(ctx, year)
		if err != nil {
			return err
		}
		if n > 0 {
			d.logger.Info("poll year complete", "year", year, "days", n)
		}
	}
	return nil
}

// RunYear processes each day of year up to two days before today. It
// returns the number of days that were summarized; quiet days are not
// counted.
func (d *DailyPollDriver) RunYear(ctx context.Context, year int) (int, error) {
	start, stop := d.FirstDayNumber(year), LastDayNumber(year)
	if start > stop {
		return 0, nil
	}

	inventory, err := d.inventory.ListPollInventory(ctx, year)
	if err != nil {
		return 0, err
	}
	if inventory == nil {
		inventory = []domain.PollInventory{}
	}

	now := d.clock.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -cutoffDays)
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)

	done := 0
	for n := start; n <= stop; n++ {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		day := jan1.AddDate(0, 0, n)
		if day.After(cutoff) {
			break
		}

		outcome, err := d.processDay(ctx, day, inventory)
		if err != nil {
			d.metrics.DaysProcessed.WithLabelValues("spc", "failed").Inc()
			return done, fmt.Errorf("day %s: %w", day.Format(time.DateOnly), err)
		}
		d.metrics.DaysProcessed.WithLabelValues("spc", string(outcome)).Inc()
		if outcome == daySummarized {
			done++
		}
	}
	return done, nil
}

// RunDay processes a single weather day, looking its latest version up in
// the store. It reports whether any work was done.
func (d *DailyPollDriver) RunDay(ctx context.Context, day time.Time) (bool, error) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	outcome, err := d.processDay(ctx, day, nil)
	if err != nil {
		return false, fmt.Errorf("day %s: %w", day.Format(time.DateOnly), err)
	}
	return outcome != daySkipped, nil
}

// dayOutcome labels the DaysProcessed metric.
type dayOutcome string

const (
	daySkipped    dayOutcome = "skipped"
	daySummarized dayOutcome = "summarized"
	// Quiet days have no eligible reports and so no summary. They stay
	// incomplete and are parsed again on every pass.
	dayQuiet dayOutcome = "quiet"
)

func (d *DailyPollDriver) processDay(ctx context.Context, day time.Time, inventory []domain.PollInventory) (dayOutcome, error) {
	inv, err := d.poller.SourceInventory(ctx, day, inventory)
	if err != nil {
		return "", err
	}
	if reconcile.ShouldSkip(inv) {
		return daySkipped, nil
	}

	records, err := d.parser.Parse(day, inv.Rows)
	if err != nil {
		return "", err
	}
	d.metrics.RecordsParsed.WithLabelValues("spc").Add(float64(len(records)))

	if err := domain.AssignRadars(ctx, records, d.locator, d.logger); err != nil {
		return "", err
	}

	aggregate, err := d.poller.Aggregate(records)
	if err != nil {
		return "", err
	}
	if err := d.poller.AddDailyDetail(ctx, records, inv); err != nil {
		return "", err
	}
	if err := d.poller.AddDailySummary(ctx, inv, aggregate); err != nil {
		return "", err
	}

	d.logger.Debug("spc day reconciled", "day", day.Format(time.DateOnly), "records", len(records), "etag", inv.ID)
	if aggregate == nil {
		return dayQuiet, nil
	}
	return daySummarized, nil
}
