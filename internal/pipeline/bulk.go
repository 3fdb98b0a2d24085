package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ArchiveBackfiller is implemented by reconcile.Backfiller.
type ArchiveBackfiller interface {
	Discover(ctx context.Context) (int, error)
	Run(ctx context.Context, year int, revision string) (bool, error)
}

// FileInventoryLister loads every archived revision.
type FileInventoryLister interface {
	ListFileInventory(ctx context.Context) ([]domain.FileInventory, error)
}

// BulkImportDriver feeds archive revisions to the backfiller until none has
// work left.
type BulkImportDriver struct {
	backfiller ArchiveBackfiller
	files      FileInventoryLister
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewBulkImportDriver creates a BulkImportDriver.
func NewBulkImportDriver(backfiller ArchiveBackfiller, files FileInventoryLister, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *BulkImportDriver {
	return &BulkImportDriver{
		backfiller: backfiller,
		files:      files,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Pending returns the newest revision of each year that is not yet active,
// oldest year first. Older revisions of a year are superseded and never
// processed.
func (d *BulkImportDriver) Pending(ctx context.Context) ([]domain.FileInventory, error) {
	files, err := d.files.ListFileInventory(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[int]domain.FileInventory)
	for _, f := range files {
		if cur, ok := latest[f.Year]; !ok || f.Revision > cur.Revision {
			latest[f.Year] = f
		}
	}

	var pending []domain.FileInventory
	for _, f := range latest {
		if !f.IsActive {
			pending = append(pending, f)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Year < pending[j].Year })
	return pending, nil
}

// Step runs the backfiller once against the first pending revision. It
// reports whether another step has work to do.
func (d *BulkImportDriver) Step(ctx context.Context) (bool, error) {
	pending, err := d.Pending(ctx)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}

	target := pending[0]
	more, err := d.backfiller.Run(ctx, target.Year, target.Revision)
	if err != nil {
		return false, err
	}
	d.logger.Info("backfill step complete",
		"year", target.Year,
		"revision", target.Revision,
		"more", more,
	)
	return more || len(pending) > 1, nil
}

// Run discovers new archive revisions and then steps until no work remains.
// With once set only a single step is taken.
func (d *BulkImportDriver) Run(ctx context.Context, once bool) error {
	start := d.clock.Now()
	d.metrics.PipelineRunning.Set(1)
	defer func() {
		d.metrics.PipelineRunning.Set(0)
		d.metrics.RunDuration.WithLabelValues("backfill").Observe(d.clock.Since(start).Seconds())
	}()

	added, err := d.backfiller.Discover(ctx)
	if err != nil {
		return err
	}
	d.logger.Info("archive discovery complete", "new_revisions", added)

	for steps := 1; ; steps++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := d.Step(ctx)
		if err != nil {
			return err
		}
		if !more || once {
			d.logger.Info("backfill finished", "steps", steps, "more", more)
			return nil
		}
	}
}

// RunRevision steps a single named revision until it is complete, the way
// an operator replays one archive file.
func (d *BulkImportDriver) RunRevision(ctx context.Context, year int, revision string, once bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := d.backfiller.Run(ctx, year, revision)
		if err != nil {
			return err
		}
		if !more || once {
			return nil
		}
	}
}
