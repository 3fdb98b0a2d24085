package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	kafkaadapter "github.com/couchcryptid/storm-data-reconciler/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-reconciler/internal/archive"
	"github.com/couchcryptid/storm-data-reconciler/internal/config"
	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/couchcryptid/storm-data-reconciler/internal/pipeline"
	"github.com/couchcryptid/storm-data-reconciler/internal/radar"
	"github.com/couchcryptid/storm-data-reconciler/internal/reconcile"
	"github.com/couchcryptid/storm-data-reconciler/internal/spc"
	"github.com/couchcryptid/storm-data-reconciler/internal/storage"
	"github.com/couchcryptid/storm-data-reconciler/internal/stormevents"
	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
)

// commandContext carries the configuration shared by every subcommand.
type commandContext struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (c *commandContext) loadConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	c.logger = observability.NewLogger(cfg)
	return nil
}

// app is the wired set of components for one run. It holds the run lock
// until closed.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	lock      *flock.Flock
	store     *storage.Store
	publisher *kafkaadapter.Publisher
}

// openApp takes the run lock and opens the store. Two processes working the
// same day would race on the current-summary flip, so a second one fails.
func (c *commandContext) openApp(ctx context.Context) (*app, error) {
	if err := os.MkdirAll(c.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	lock := flock.New(c.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another stormrecon run holds " + c.cfg.LockPath())
	}

	clock := clockwork.NewRealClock()
	store, err := storage.Open(ctx, c.cfg.DatabasePath(), clock)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	a := &app{
		cfg:     c.cfg,
		logger:  c.logger,
		metrics: observability.NewMetrics(),
		clock:   clock,
		lock:    lock,
		store:   store,
	}
	if c.cfg.KafkaEnabled {
		a.publisher = kafkaadapter.NewPublisher(c.cfg, c.logger, a.metrics)
		c.logger.Info("summary publishing enabled", "topic", c.cfg.KafkaTopic)
	}
	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("store close error", "error", err)
	}
	if err := a.lock.Unlock(); err != nil {
		a.logger.Warn("release run lock", "error", err)
	}
}

// summaryPublisher returns nil when publishing is disabled.
func (a *app) summaryPublisher() reconcile.SummaryPublisher {
	if a.publisher == nil {
		return nil
	}
	return a.publisher
}

// radarLocator returns nil when no radar sites have been loaded.
func (a *app) radarLocator(ctx context.Context) (domain.RadarLocator, error) {
	sites, err := a.store.ListRadarSites(ctx)
	if err != nil {
		return nil, err
	}
	locator := radar.NewLocator(sites)
	if locator.Len() == 0 {
		a.logger.Warn("no radar sites loaded; closest radar left blank")
		return nil, nil
	}
	return radar.NewCachedLocator(locator, a.cfg.RadarCacheSize, a.metrics), nil
}

func (a *app) delay() reconcile.DelayFunc {
	return reconcile.BackoffDelay(a.clock, a.cfg.RetryBaseDelay)
}

func (a *app) pollDriver(ctx context.Context) (*pipeline.DailyPollDriver, error) {
	locator, err := a.radarLocator(ctx)
	if err != nil {
		return nil, err
	}
	client := spc.NewClient(a.cfg.SPCBaseURL, a.cfg.HTTPTimeout, a.metrics, a.logger)
	poller := reconcile.NewPoller(client, a.store, a.summaryPublisher(), a.clock, a.delay(), a.logger, a.metrics)
	return pipeline.NewDailyPollDriver(poller, a.store, spc.Parser{}, locator, a.clock, a.cfg.PollStartYear, a.logger, a.metrics), nil
}

func (a *app) backfiller(ctx context.Context) (*reconcile.Backfiller, error) {
	locator, err := a.radarLocator(ctx)
	if err != nil {
		return nil, err
	}
	bucket, err := archive.NewDirStore(a.cfg.ArchiveDir(), "")
	if err != nil {
		return nil, err
	}
	return reconcile.NewBackfiller(reconcile.BackfillerDeps{
		Lister:    stormevents.NewClient(a.cfg.StormEventsBaseURL, a.cfg.HTTPTimeout, a.metrics, a.logger),
		Store:     bucket,
		Repo:      a.store,
		Parser:    stormevents.NewParser(domain.DefaultStates()),
		Locator:   locator,
		Publisher: a.summaryPublisher(),
		Delay:     a.delay(),
		Logger:    a.logger,
		Metrics:   a.metrics,
	}, a.cfg.BackfillMinYear), nil
}

func (a *app) bulkDriver(ctx context.Context) (*pipeline.BulkImportDriver, error) {
	b, err := a.backfiller(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewBulkImportDriver(b, a.store, a.clock, a.logger, a.metrics), nil
}
