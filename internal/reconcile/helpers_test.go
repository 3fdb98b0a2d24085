package reconcile_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/couchcryptid/storm-data-reconciler/internal/storage"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var (
	// 2010-07-10 is the weather day used across these tests.
	day0710 = time.Date(2010, 7, 10, 0, 0, 0, 0, time.UTC)
	testNow = time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
)

const (
	spcTornadoHeader = "Time,F_Scale,Location,County,State,Lat,Lon,Comments"
	spcWindHeader    = "Time,Speed,Location,County,State,Lat,Lon,Comments"
	spcHailHeader    = "Time,Size,Location,County,State,Lat,Lon,Comments"

	bulkHeader = "BEGIN_YEARMONTH,EPISODE_ID,EVENT_ID,STATE,EVENT_TYPE,CZ_NAME,BEGIN_DATE_TIME,CZ_TIMEZONE,WFO,MAGNITUDE,TOR_F_SCALE,BEGIN_LOCATION,BEGIN_LAT,BEGIN_LON,EVENT_NARRATIVE"
)

// spcBody is a preliminary report for 2010-07-10 with one report of each type.
var spcBody = strings.Join([]string{
	spcTornadoHeader,
	"2110,UNK,3 S Wichita Falls,Wichita,TX,33.86,-98.49,Brief EF1 tornado. (OUN)",
	spcWindHeader,
	"0105,65,Moore,Cleveland,OK,35.33,-97.48,Trees down. (OUN)",
	spcHailHeader,
	"2230,175,Dodge City,Ford,KS,37.75,-100.02,Golf ball hail. (DDC)",
}, "\n") + "\n"

// bulkRows is the authoritative version of the same three reports.
var bulkRows = []string{
	`201007,1,10,KANSAS,Hail,FORD,10-JUL-10 16:30:00,CST-6,DDC,1.75,,DODGE CITY,37.75,-100.02,Golf ball hail.`,
	`201007,1,11,OKLAHOMA,Thunderstorm Wind,CLEVELAND,10-JUL-10 19:05:00,CST-6,OUN,65,,MOORE,35.33,-97.48,Trees down.`,
	`201007,1,12,TEXAS,Tornado,WICHITA,10-JUL-10 16:10:00,CST-6,OUN,,EF1,WICHITA FALLS,33.86,-98.49,Brief tornado.`,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T, clock clockwork.Clock) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "storm.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func gzipCSV(t *testing.T, rows ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(bulkHeader + "\n" + strings.Join(rows, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func summaryBySource(t *testing.T, summaries []domain.DailySummary, sourceID string) domain.DailySummary {
	t.Helper()
	for _, s := range summaries {
		if s.SourceID == sourceID {
			return s
		}
	}
	require.Failf(t, "summary not found", "source %q", sourceID)
	return domain.DailySummary{}
}

func countCurrent(summaries []domain.DailySummary) int {
	n := 0
	for _, s := range summaries {
		if s.IsCurrent {
			n++
		}
	}
	return n
}
