package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/archive"
	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/couchcryptid/storm-data-reconciler/internal/stormevents"
)

const (
	// MaxDaysPerRun bounds the days one Run may process before handing back.
	MaxDaysPerRun = 31

	sourceStormEvents = "storm_events"
)

// Backfiller promotes authoritative Storm Events data over whatever summary
// is current for each day of a yearly archive file.
type Backfiller struct {
	lister    ArchiveLister
	store     ArchiveStore
	repo      BackfillRepository
	parser    ArchiveParser
	locator   domain.RadarLocator
	publisher SummaryPublisher
	minYear   int
	delay     DelayFunc
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// BackfillerDeps groups the collaborators of a Backfiller. Locator and
// Publisher may be nil.
type BackfillerDeps struct {
	Lister    ArchiveLister
	Store     ArchiveStore
	Repo      BackfillRepository
	Parser    ArchiveParser
	Locator   domain.RadarLocator
	Publisher SummaryPublisher
	Delay     DelayFunc
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// NewBackfiller creates a Backfiller that ignores archive years before minYear.
func NewBackfiller(deps BackfillerDeps, minYear int) *Backfiller {
	return &Backfiller{
		lister:    deps.Lister,
		store:     deps.Store,
		repo:      deps.Repo,
		parser:    deps.Parser,
		locator:   deps.Locator,
		publisher: deps.Publisher,
		minYear:   minYear,
		delay:     deps.Delay,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// Discover archives every listed (year, revision) not yet in the file
// inventory and records it as inactive with no row count. It returns the
// number of new revisions.
func (b *Backfiller) Discover(ctx context.Context) (int, error) {
	var files []stormevents.ArchiveFile
	err := Retry(ctx, b.retryDelay, func(ctx context.Context) error {
		var err error
		files, err = b.lister.ListFiles(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list archive files: %w", err)
	}

	known, err := b.repo.ListFileInventory(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(known))
	for _, inv := range known {
		seen[inventoryKey(inv.Year, inv.Revision)] = true
	}

	added := 0
	for _, f := range files {
		if f.Year < b.minYear || seen[inventoryKey(f.Year, f.Revision)] {
			continue
		}
		if err := b.archiveFile(ctx, f); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (b *Backfiller) archiveFile(ctx context.Context, f stormevents.ArchiveFile) error {
	var data []byte
	err := Retry(ctx, b.retryDelay, func(ctx context.Context) error {
		var err error
		data, err = b.lister.FetchBytes(ctx, f.Name)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", f.Name, err)
	}

	local, err := b.store.WriteTemp(data, ".csv.gz")
	if err != nil {
		return err
	}
	defer b.deleteLocal(local)

	key := archive.Key(f.Name)
	if err := b.store.Upload(ctx, key, local); err != nil {
		return err
	}

	inv := &domain.FileInventory{Year: f.Year, Revision: f.Revision, Path: key}
	if err := b.repo.CreateFileInventory(ctx, inv); err != nil {
		return err
	}
	b.logger.Info("archive file discovered", "year", f.Year, "revision", f.Revision, "bytes", len(data))
	return nil
}

// Load downloads, decompresses, and parses the archived file of inv.
func (b *Backfiller) Load(ctx context.Context, inv *domain.FileInventory) ([]domain.DailyDetail, error) {
	local, err := b.store.DownloadToLocal(ctx, inv.Path)
	if err != nil {
		return nil, err
	}
	defer b.deleteLocal(local)

	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", local, err)
	}
	defer f.Close()

	records, err := b.parser.ParseGzip(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", inv.Path, err)
	}
	b.metrics.RecordsParsed.WithLabelValues(sourceStormEvents).Add(float64(len(records)))
	return records, nil
}

// Run processes the days of one archive revision. It returns true when at
// least one day was processed and more may remain. When nothing was left to
// do the revision is marked active and false is returned.
func (b *Backfiller) Run(ctx context.Context, year int, revision string) (bool, error) {
	inv, err := b.repo.GetFileInventory(ctx, year, revision)
	if err != nil {
		return false, err
	}

	records, err := b.Load(ctx, inv)
	if err != nil {
		return false, err
	}

	if inv.RowCount == 0 {
		inv.RowCount = len(records)
		if err := b.repo.UpdateFileInventory(ctx, inv); err != nil {
			return false, err
		}
	}

	byDay := groupByDay(records, year)
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	tally := 0
	for _, day := range days {
		processed, err := b.processDay(ctx, day, revision, byDay[day])
		if err != nil {
			b.metrics.DaysProcessed.WithLabelValues(sourceStormEvents, "failed").Inc()
			return false, fmt.Errorf("day %s: %w", day.Format(time.DateOnly), err)
		}
		if !processed {
			b.metrics.DaysProcessed.WithLabelValues(sourceStormEvents, "skipped").Inc()
			continue
		}
		b.metrics.DaysProcessed.WithLabelValues(sourceStormEvents, "summarized").Inc()
		tally++
		if tally > MaxDaysPerRun {
			return true, nil
		}
	}

	if tally > 0 {
		return true, nil
	}

	inv.IsActive = true
	if err := b.repo.UpdateFileInventory(ctx, inv); err != nil {
		return false, err
	}
	b.logger.Info("archive file complete", "year", year, "revision", revision)
	return false, nil
}

// processDay makes sourceID the day's current summary. It reports whether a
// summary was promoted or inserted.
func (b *Backfiller) processDay(ctx context.Context, day time.Time, sourceID string, records []domain.DailyDetail) (bool, error) {
	summaries, err := b.repo.ListDailySummaries(ctx, day)
	if err != nil {
		return false, err
	}

	var own *domain.DailySummary
	for i := range summaries {
		s := &summaries[i]
		if s.SourceID == sourceID {
			own = s
			continue
		}
		if !s.IsCurrent {
			continue
		}
		s.IsCurrent = false
		if err := b.repo.UpdateDailySummary(ctx, s); err != nil {
			return false, err
		}
	}

	switch {
	case own != nil && own.IsCurrent:
		return false, nil
	case own != nil:
		return true, b.promote(ctx, own)
	default:
		return true, b.insert(ctx, day, sourceID, records)
	}
}

func (b *Backfiller) promote(ctx context.Context, sum *domain.DailySummary) error {
	n, err := b.repo.CountDailyDetails(ctx, sum.Date, sum.SourceID)
	if err != nil {
		return err
	}
	if n != sum.RowCount {
		b.metrics.ConsistencyErrors.Inc()
		return fmt.Errorf("%w: summary %s/%s expects %d rows, store has %d",
			domain.ErrConsistency, sum.Date.Format(time.DateOnly), sum.SourceID, sum.RowCount, n)
	}

	sum.IsCurrent = true
	if err := b.repo.UpdateDailySummary(ctx, sum); err != nil {
		return err
	}
	b.becameCurrent(ctx, *sum)
	return nil
}

func (b *Backfiller) insert(ctx context.Context, day time.Time, sourceID string, records []domain.DailyDetail) error {
	if err := b.repo.DeleteDailyDetails(ctx, day, sourceID); err != nil {
		return err
	}
	if err := domain.AssignRadars(ctx, records, b.locator, b.logger); err != nil {
		return err
	}
	if err := b.repo.InsertDailyDetails(ctx, sourceID, records); err != nil {
		return err
	}

	summaries, err := domain.AggregateByDate(records)
	if err != nil {
		return err
	}
	if len(summaries) != 1 {
		b.metrics.ConsistencyErrors.Inc()
		return fmt.Errorf("%w: expected one aggregate, got %d", domain.ErrConsistency, len(summaries))
	}

	sum := summaries[0]
	sum.SourceID = sourceID
	sum.IsCurrent = true
	if err := b.repo.CreateDailySummary(ctx, &sum); err != nil {
		return err
	}
	b.becameCurrent(ctx, sum)
	return nil
}

func (b *Backfiller) becameCurrent(ctx context.Context, sum domain.DailySummary) {
	b.metrics.SummariesCurrent.WithLabelValues(sourceStormEvents).Inc()
	b.logger.Info("storm events summary current",
		"day", sum.Date.Format(time.DateOnly),
		"source_id", sum.SourceID,
		"rows", sum.RowCount,
	)
	publish(ctx, b.publisher, sum, b.logger, b.metrics)
}

func (b *Backfiller) retryDelay(ctx context.Context, attempt int) error {
	b.metrics.RetryAttempts.Inc()
	b.logger.Warn("retrying archive fetch", "attempt", attempt)
	if b.delay == nil {
		return nil
	}
	return b.delay(ctx, attempt)
}

func (b *Backfiller) deleteLocal(path string) {
	if err := b.store.DeleteLocal(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.logger.Warn("delete local copy failed", "path", path, "error", err)
	}
}

// groupByDay buckets records by weather day, dropping those before noon UTC
// on January 1 of year.
func groupByDay(records []domain.DailyDetail, year int) map[time.Time][]domain.DailyDetail {
	start := time.Date(year, 1, 1, 12, 0, 0, 0, time.UTC)
	out := make(map[time.Time][]domain.DailyDetail)
	for _, r := range records {
		if r.EffectiveTime.Before(start) {
			continue
		}
		day := r.Day()
		out[day] = append(out[day], r)
	}
	return out
}

func inventoryKey(year int, revision string) string {
	return fmt.Sprintf("%d/%s", year, revision)
}
