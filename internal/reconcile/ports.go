// Package reconcile keeps exactly one current daily summary per weather day
// while preliminary SPC reports are polled and the authoritative Storm Events
// archive is backfilled over them.
//
// Each unit of work (one day, or one archive file) is a sequence of awaited
// store and network calls. Completeness flags on the inventory rows are the
// only checkpoint: a failed or cancelled unit is resumed by the next run.
//
// The flip of the previous current summary is a read-then-write against the
// store and is not guarded against a second concurrent process working the
// same day. Callers serialize runs (the CLI holds a file lock).
package reconcile

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_ports.go -package=mocks github.com/couchcryptid/storm-data-reconciler/internal/reconcile ContentSource,ArchiveLister,SummaryPublisher

import (
	"context"
	"io"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/stormevents"
)

// ContentSource serves the SPC daily report for a weather day.
type ContentSource interface {
	Fetch(ctx context.Context, day time.Time) (body, etag string, err error)
	FetchIfChanged(ctx context.Context, day time.Time, etag string) (body, newETag string, changed bool, err error)
}

// ArchiveLister lists and downloads the yearly Storm Events files.
type ArchiveLister interface {
	ListFiles(ctx context.Context) ([]stormevents.ArchiveFile, error)
	FetchBytes(ctx context.Context, name string) ([]byte, error)
}

// ArchiveStore keeps the raw archive files and stages local working copies.
type ArchiveStore interface {
	WriteTemp(data []byte, suffix string) (string, error)
	Upload(ctx context.Context, key, localPath string) error
	DownloadToLocal(ctx context.Context, key string) (string, error)
	DeleteLocal(localPath string) error
}

// ArchiveParser decodes a gzipped Storm Events details file.
type ArchiveParser interface {
	ParseGzip(r io.Reader) ([]domain.DailyDetail, error)
}

// SummaryPublisher announces a summary that has just become current.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, sum domain.DailySummary) error
}

// DetailRepository stores detail records per (day, source).
type DetailRepository interface {
	InsertDailyDetails(ctx context.Context, sourceID string, records []domain.DailyDetail) error
	DeleteDailyDetails(ctx context.Context, day time.Time, sourceID string) error
	CountDailyDetails(ctx context.Context, day time.Time, sourceID string) (int, error)
}

// SummaryRepository stores daily summaries across sources.
type SummaryRepository interface {
	ListDailySummaries(ctx context.Context, day time.Time) ([]domain.DailySummary, error)
	CreateDailySummary(ctx context.Context, sum *domain.DailySummary) error
	UpdateDailySummary(ctx context.Context, sum *domain.DailySummary) error
}

// PollRepository is the store surface used by the Poller.
type PollRepository interface {
	DetailRepository
	SummaryRepository
	LatestPollInventory(ctx context.Context, day time.Time) (*domain.PollInventory, error)
	CreatePollInventory(ctx context.Context, inv *domain.PollInventory) error
	UpdatePollInventory(ctx context.Context, inv *domain.PollInventory) error
}

// BackfillRepository is the store surface used by the Backfiller.
type BackfillRepository interface {
	DetailRepository
	SummaryRepository
	GetFileInventory(ctx context.Context, year int, revision string) (*domain.FileInventory, error)
	ListFileInventory(ctx context.Context) ([]domain.FileInventory, error)
	CreateFileInventory(ctx context.Context, inv *domain.FileInventory) error
	UpdateFileInventory(ctx context.Context, inv *domain.FileInventory) error
}
