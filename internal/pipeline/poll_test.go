package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/couchcryptid/storm-data-reconciler/internal/pipeline"
	"github.com/couchcryptid/storm-data-reconciler/internal/radar"
	"github.com/couchcryptid/storm-data-reconciler/internal/reconcile"
	"github.com/couchcryptid/storm-data-reconciler/internal/spc"
	"github.com/couchcryptid/storm-data-reconciler/internal/storage"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan1 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jan2 = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
)

const quietBody = "Time,F_Scale,Location,County,State,Lat,Lon,Comments\n" +
	"Time,Speed,Location,County,State,Lat,Lon,Comments\n" +
	"Time,Size,Location,County,State,Lat,Lon,Comments\n"

var stormyBody = strings.Join([]string{
	"Time,F_Scale,Location,County,State,Lat,Lon,Comments",
	"2110,UNK,3 S Wichita Falls,Wichita,TX,33.86,-98.49,Brief EF1 tornado. (OUN)",
	"Time,Speed,Location,County,State,Lat,Lon,Comments",
	"0105,65,Moore,Cleveland,OK,35.33,-97.48,Trees down. (OUN)",
	"Time,Size,Location,County,State,Lat,Lon,Comments",
	"2230,175,Dodge City,Ford,KS,37.75,-100.02,Golf ball hail. (DDC)",
}, "\n") + "\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// feedServer serves one report per file name and counts requests per file.
type feedServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

func newFeedServer(t *testing.T, bodies map[string]string) *feedServer {
	t.Helper()
	f := &feedServer{bodies: bodies, hits: make(map[string]int)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		f.mu.Lock()
		f.hits[name]++
		body, ok := f.bodies[name]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("ETag", `"`+name+`"`)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *feedServer) hitsFor(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[name]
}

func (f *feedServer) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, h := range f.hits {
		n += h
	}
	return n
}

type pollFixture struct {
	driver  *pipeline.DailyPollDriver
	store   *storage.Store
	feed    *feedServer
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newPollFixture(t *testing.T, now time.Time, bodies map[string]string) *pollFixture {
	t.Helper()
	f := &pollFixture{
		feed:    newFeedServer(t, bodies),
		clock:   clockwork.NewFakeClockAt(now),
		metrics: observability.NewMetricsForTesting(),
	}

	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "storm.db"), f.clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	f.store = store

	logger := discardLogger()
	client := spc.NewClient(f.feed.URL+"/", 5*time.Second, f.metrics, logger)
	poller := reconcile.NewPoller(client, store, nil, f.clock, nil, logger, f.metrics)
	locator := radar.NewLocator([]domain.RadarSite{
		{ID: "KTLX", Lat: 35.333, Lon: -97.278},
		{ID: "KDDC", Lat: 37.761, Lon: -99.969},
		{ID: "KFDR", Lat: 34.362, Lon: -98.977},
	})
	f.driver = pipeline.NewDailyPollDriver(poller, store, spc.Parser{}, locator, f.clock, 2026, logger, f.metrics)
	return f
}

func TestFirstDayNumber(t *testing.T) {
	d := pipeline.NewDailyPollDriver(nil, nil, nil, nil, clockwork.NewFakeClock(), 2025, discardLogger(), observability.NewMetricsForTesting())

	tests := []struct {
		year int
		want int
	}{
		{year: 2010, want: math.MaxInt},
		{year: 2024, want: math.MaxInt},
		{year: 2025, want: 0},
		{year: 2026, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.FirstDayNumber(tt.year), "year %d", tt.year)
	}
}

func TestLastDayNumber(t *testing.T) {
	tests := []struct {
		name string
		year int
		want int
	}{
		{name: "common year", year: 2025, want: 364},
		{name: "leap year", year: 2024, want: 365},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pipeline.LastDayNumber(tt.year)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.December, time.Date(tt.year, 1, 1+got, 0, 0, 0, 0, time.UTC).Month())
			assert.Equal(t, 31, time.Date(tt.year, 1, 1+got, 0, 0, 0, 0, time.UTC).Day())
		})
	}
}

func TestDailyPollDriver_RunYear(t *testing.T) {
	ctx := context.Background()
	// Two days before 2026-01-04 is the last day the feed is trusted.
	f := newPollFixture(t, time.Date(2026, 1, 4, 0, 30, 0, 0, time.UTC), map[string]string{
		"260101_rpts_filtered.csv": stormyBody,
		"260102_rpts_filtered.csv": quietBody,
		"260103_rpts_filtered.csv": stormyBody,
	})

	n, err := f.driver.RunYear(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the quiet day has nothing to summarize")
	assert.Equal(t, 0, f.feed.hitsFor("260103_rpts_filtered.csv"))

	summaries, err := f.store.ListDailySummaries(ctx, jan1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	sum := summaries[0]
	assert.True(t, sum.IsCurrent)
	assert.Equal(t, `"260101_rpts_filtered.csv"`, sum.SourceID)
	assert.Equal(t, 3, sum.RowCount)
	assert.Equal(t, 1, sum.Tornadoes())

	details, err := f.store.ListDailyDetails(ctx, jan1, sum.SourceID)
	require.NoError(t, err)
	radars := make(map[string]string)
	for _, d := range details {
		radars[d.State] = d.ClosestRadar
	}
	assert.Equal(t, map[string]string{"TX": "KFDR", "OK": "KTLX", "KS": "KDDC"}, radars)

	quiet, err := f.store.ListDailySummaries(ctx, jan2)
	require.NoError(t, err)
	assert.Empty(t, quiet)

	inv, err := f.store.LatestPollInventory(ctx, jan1)
	require.NoError(t, err)
	assert.True(t, reconcile.ShouldSkip(inv))
	assert.True(t, inv.IsTornadoDay)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.DaysProcessed.WithLabelValues("spc", "summarized")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.DaysProcessed.WithLabelValues("spc", "quiet")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(f.metrics.RecordsParsed.WithLabelValues("spc")), 0)
}

func TestDailyPollDriver_RunYear_Resumes(t *testing.T) {
	ctx := context.Background()
	f := newPollFixture(t, time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC), map[string]string{
		"260101_rpts_filtered.csv": stormyBody,
		"260102_rpts_filtered.csv": quietBody,
	})

	_, err := f.driver.RunYear(ctx, 2026)
	require.NoError(t, err)
	hits := f.feed.totalHits()

	// The stormy day is complete. The quiet day has no summary to write, so
	// it is parsed again from the stored rows without touching the feed.
	n, err := f.driver.RunYear(ctx, 2026)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, hits, f.feed.totalHits())
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.DaysProcessed.WithLabelValues("spc", "skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.DaysProcessed.WithLabelValues("spc", "summarized")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.DaysProcessed.WithLabelValues("spc", "quiet")), 0)

	summaries, err := f.store.ListDailySummaries(ctx, jan1)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestDailyPollDriver_RunYear_BeforeStartYear(t *testing.T) {
	f := newPollFixture(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), nil)

	n, err := f.driver.RunYear(context.Background(), 2025)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.feed.totalHits())
}

func TestDailyPollDriver_RunYear_StopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	f := newPollFixture(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), map[string]string{
		"260101_rpts_filtered.csv": stormyBody,
	})

	n, err := f.driver.RunYear(ctx, 2026)
	require.ErrorIs(t, err, domain.ErrProtocol)
	assert.Contains(t, err.Error(), "2026-01-02")
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, f.feed.hitsFor("260103_rpts_filtered.csv"))
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.DaysProcessed.WithLabelValues("spc", "failed")), 0)
}

func TestDailyPollDriver_RunYears(t *testing.T) {
	f := newPollFixture(t, time.Date(2026, 1, 3, 8, 0, 0, 0, time.UTC), map[string]string{
		"260101_rpts_filtered.csv": stormyBody,
	})

	require.NoError(t, f.driver.RunYears(context.Background(), 2024, 2026))
	assert.Equal(t, 1, f.feed.totalHits())
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.RunDuration))
}

func TestDailyPollDriver_RunDay(t *testing.T) {
	ctx := context.Background()
	f := newPollFixture(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), map[string]string{
		"260101_rpts_filtered.csv": stormyBody,
	})

	done, err := f.driver.RunDay(ctx, time.Date(2026, 1, 1, 18, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.True(t, done)

	done, err = f.driver.RunDay(ctx, jan1)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, f.feed.totalHits())
}

func TestDailyPollDriver_RunYear_Cancelled(t *testing.T) {
	f := newPollFixture(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.driver.RunYear(ctx, 2026)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.feed.totalHits())
}
