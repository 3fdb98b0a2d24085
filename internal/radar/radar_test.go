package radar

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/domain/mocks"
	"github.com/couchcryptid/storm-data-reconciler/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var reportTime = time.Date(2010, 7, 10, 21, 10, 0, 0, time.UTC)

// stationLine lays fields out at the station list's fixed offsets.
func stationLine(icao, name, state, lat, lon string) string {
	b := []byte(strings.Repeat(" ", 191))
	copy(b[0:], "30001795")
	copy(b[9:], icao)
	copy(b[20:], name)
	copy(b[51:], "UNITED STATES")
	copy(b[72:], state)
	copy(b[106:], lat)
	copy(b[116:], lon)
	copy(b[127:], "5951   -7    NEXRAD")
	return string(b)
}

func testSites() []domain.RadarSite {
	return []domain.RadarSite{
		{ID: "KTLX", State: "OK", Lat: 35.333, Lon: -97.278},
		{ID: "KDDC", State: "KS", Lat: 37.761, Lon: -99.969},
		{ID: "KFWS", State: "TX", Lat: 32.573, Lon: -97.303},
		{ID: "TOKC", State: "OK", Lat: 35.276, Lon: -97.510},
	}
}

// --- ParseSites ---

func TestParseSites(t *testing.T) {
	input := strings.Join([]string{
		stationLine("ICAO", "NAME", "ST", "LAT", "LON"),
		stationLine("----", "------------------------------", "--", "---------", "----------"),
		stationLine("KABR", "ABERDEEN", "", "45.455833", "-98.413333"),
		stationLine("KABX", "ALBUQUERQUE", "NM", "35.149722", "-106.82388"),
		"",
	}, "\r\n")

	sites, err := ParseSites(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, domain.RadarSite{ID: "KABX", Name: "ALBUQUERQUE", State: "NM", Lat: 35.149722, Lon: -106.82388}, sites[0])
}

func TestParseSites_Errors(t *testing.T) {
	header := stationLine("ICAO", "NAME", "ST", "LAT", "LON") + "\n" + stationLine("-", "-", "--", "-", "-") + "\n"

	tests := []struct {
		name string
		line string
	}{
		{name: "short line", line: "30001795 KABX"},
		{name: "bad latitude", line: stationLine("KABX", "ALBUQUERQUE", "NM", "north", "-106.82388")},
		{name: "bad longitude", line: stationLine("KABX", "ALBUQUERQUE", "NM", "35.149722", "west")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSites(strings.NewReader(header + tt.line + "\n"))
			assert.ErrorIs(t, err, domain.ErrFormat)
		})
	}
}

// --- Locator ---

func TestLocator_ClosestRadar(t *testing.T) {
	loc := NewLocator(testSites())
	assert.Equal(t, 3, loc.Len(), "non-K sites are dropped")

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{name: "norman ok", lat: 35.22, lon: -97.44, want: "KTLX"},
		{name: "garden city ks", lat: 37.97, lon: -100.87, want: "KDDC"},
		{name: "waco tx", lat: 31.55, lon: -97.15, want: "KFWS"},
		{name: "missing coordinates", lat: math.NaN(), lon: -97.0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loc.ClosestRadar(context.Background(), reportTime, tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocator_NoSites(t *testing.T) {
	got, err := NewLocator(nil).ClosestRadar(context.Background(), reportTime, 35, -97)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- CachedLocator ---

func TestCachedLocator_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockRadarLocator(ctrl)
	inner.EXPECT().ClosestRadar(gomock.Any(), reportTime, 35.22, -97.44).Return("KTLX", nil).Times(1)

	metrics := observability.NewMetricsForTesting()
	cached := NewCachedLocator(inner, 10, metrics)

	for range 3 {
		id, err := cached.ClosestRadar(context.Background(), reportTime, 35.22, -97.44)
		require.NoError(t, err)
		assert.Equal(t, "KTLX", id)
	}
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RadarCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RadarCache.WithLabelValues("miss")), 0)
}

func TestCachedLocator_KeysOnWeatherDay(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockRadarLocator(ctrl)
	sameDay := reportTime.Add(10 * time.Hour) // 07:10 next morning, same weather day
	nextDay := reportTime.Add(24 * time.Hour)
	gomock.InOrder(
		inner.EXPECT().ClosestRadar(gomock.Any(), reportTime, 35.22, -97.44).Return("KTLX", nil),
		inner.EXPECT().ClosestRadar(gomock.Any(), nextDay, 35.22, -97.44).Return("KCRI", nil),
	)

	cached := NewCachedLocator(inner, 10, observability.NewMetricsForTesting())

	tests := []struct {
		at   time.Time
		want string
	}{
		{at: reportTime, want: "KTLX"},
		{at: sameDay, want: "KTLX"},
		{at: nextDay, want: "KCRI"},
	}
	for _, tt := range tests {
		id, err := cached.ClosestRadar(context.Background(), tt.at, 35.22, -97.44)
		require.NoError(t, err)
		assert.Equal(t, tt.want, id, "at %s", tt.at)
	}
}

func TestCachedLocator_DoesNotCacheBlankOrErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockRadarLocator(ctrl)
	gomock.InOrder(
		inner.EXPECT().ClosestRadar(gomock.Any(), gomock.Any(), 1.0, 2.0).Return("", errors.New("boom")),
		inner.EXPECT().ClosestRadar(gomock.Any(), gomock.Any(), 1.0, 2.0).Return("", nil),
		inner.EXPECT().ClosestRadar(gomock.Any(), gomock.Any(), 1.0, 2.0).Return("KABX", nil),
	)

	cached := NewCachedLocator(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ClosestRadar(context.Background(), reportTime, 1, 2)
	require.Error(t, err)

	id, err := cached.ClosestRadar(context.Background(), reportTime, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, id)

	id, err = cached.ClosestRadar(context.Background(), reportTime, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "KABX", id)
	assert.Equal(t, 1, cached.cache.len())
}

func TestCachedLocator_WithAssignRadars(t *testing.T) {
	cached := NewCachedLocator(NewLocator(testSites()), 10, observability.NewMetricsForTesting())
	records := []domain.DailyDetail{
		{Lat: 35.22, Lon: -97.44},
		{Lat: math.NaN(), Lon: math.NaN()},
		{Lat: 37.97, Lon: -100.87},
	}

	require.NoError(t, domain.AssignRadars(context.Background(), records, cached, nil))
	assert.Equal(t, "KTLX", records[0].ClosestRadar)
	assert.Empty(t, records[1].ClosestRadar)
	assert.Equal(t, "KDDC", records[2].ClosestRadar)
}

// --- lruCache ---

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", "KAAA")
	c.put("b", "KBBB")

	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", "KCCC")

	_, ok = c.get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", "KAAA")
	c.put("a", "KZZZ")

	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "KZZZ", v)
	assert.Equal(t, 1, c.len())
}
