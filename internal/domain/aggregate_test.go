package domain

import (
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailAt(ts time.Time, typ EventType, mag string) DailyDetail {
	return DailyDetail{EffectiveTime: ts, EventType: typ, Magnitude: mag}
}

func TestAggregateByDate(t *testing.T) {
	day1 := time.Date(2010, 7, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2010, 7, 11, 0, 0, 0, 0, time.UTC)
	headline := time.Date(2010, 7, 10, 20, 30, 0, 0, time.UTC)

	records := []DailyDetail{
		// 2010-07-11 13:00 is day 2.
		detailAt(time.Date(2010, 7, 11, 13, 0, 0, 0, time.UTC), EventHail, "1.00"),
		detailAt(time.Date(2010, 7, 10, 19, 0, 0, 0, time.UTC), EventHail, "1.75"),
		detailAt(time.Date(2010, 7, 10, 22, 0, 0, 0, time.UTC), EventWind, "65"),
		detailAt(headline, EventTornado, "EF2"),
		detailAt(time.Date(2010, 7, 10, 23, 0, 0, 0, time.UTC), EventTornado, "EF2"),
		detailAt(time.Date(2010, 7, 11, 2, 0, 0, 0, time.UTC), EventTornado, "EF0"),
		detailAt(time.Date(2010, 7, 10, 13, 0, 0, 0, time.UTC), EventTornado, "EF4"),
		detailAt(time.Date(2010, 7, 10, 21, 0, 0, 0, time.UTC), EventOther, ""),
	}

	got, err := AggregateByDate(records)
	require.NoError(t, err)

	want := []DailySummary{
		{
			Date:              day1,
			Hail:              1,
			Wind:              1,
			F1:                1,
			F2:                2,
			F4:                1,
			HeadlineEventTime: &headline,
			RowCount:          6,
		},
		{
			Date:     day2,
			Hail:     1,
			RowCount: 1,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateByDate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateByDate_Idempotent(t *testing.T) {
	records := []DailyDetail{
		detailAt(time.Date(2010, 7, 12, 20, 0, 0, 0, time.UTC), EventWind, "70"),
		detailAt(time.Date(2010, 7, 10, 21, 15, 0, 0, time.UTC), EventTornado, "EF3"),
		detailAt(time.Date(2010, 7, 11, 1, 0, 0, 0, time.UTC), EventHail, "2.00"),
		detailAt(time.Date(2010, 7, 11, 18, 40, 0, 0, time.UTC), EventTornado, "EFU"),
		detailAt(time.Date(2010, 7, 12, 3, 0, 0, 0, time.UTC), EventHail, "1.00"),
		detailAt(time.Date(2010, 7, 12, 14, 0, 0, 0, time.UTC), EventOther, ""),
	}
	input := slices.Clone(records)

	first, err := AggregateByDate(records)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := AggregateByDate(records)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second aggregation differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(input, records); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestAggregateByDate_CountInvariant(t *testing.T) {
	base := time.Date(2010, 7, 10, 18, 0, 0, 0, time.UTC)
	mags := []string{"EF0", "EF1", "EFU", "EF2", "EF3", "EF4", "EF5"}

	var records []DailyDetail
	for i, m := range mags {
		records = append(records, detailAt(base.Add(time.Duration(i)*time.Minute), EventTornado, m))
	}
	records = append(records, detailAt(base, EventHail, "Unknown"), detailAt(base, EventWind, "Unknown"))

	got, err := AggregateByDate(records)
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, 3, s.F1)
	assert.Equal(t, s.Hail+s.Wind+s.F1+s.F2+s.F3+s.F4+s.F5, s.RowCount)
	require.NotNil(t, s.HeadlineEventTime)
	assert.Equal(t, base.Add(6*time.Minute), *s.HeadlineEventTime, "EF5 wins regardless of time")
}

func TestAggregateByDate_OnlyIneligibleEvents(t *testing.T) {
	records := []DailyDetail{
		detailAt(time.Date(2010, 7, 10, 14, 0, 0, 0, time.UTC), EventTornado, "EF3"),
		detailAt(time.Date(2010, 7, 11, 4, 0, 0, 0, time.UTC), EventHail, "1.00"),
	}

	got, err := AggregateByDate(records)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].HeadlineEventTime)
	assert.Equal(t, 1, got[0].F3)
}

func TestAggregateByDate_TieBreaksOnEarliest(t *testing.T) {
	early := time.Date(2010, 7, 10, 19, 0, 0, 0, time.UTC)
	records := []DailyDetail{
		detailAt(early.Add(time.Hour), EventWind, "60"),
		detailAt(early, EventWind, "70"),
	}

	got, err := AggregateByDate(records)
	require.NoError(t, err)
	require.NotNil(t, got[0].HeadlineEventTime)
	assert.Equal(t, early, *got[0].HeadlineEventTime)
}

func TestAggregateByDate_RejectsNonUTC(t *testing.T) {
	chicago := time.FixedZone("CST", -6*3600)
	records := []DailyDetail{
		detailAt(time.Date(2010, 7, 10, 19, 0, 0, 0, chicago), EventHail, "1.00"),
	}

	_, err := AggregateByDate(records)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAggregateByDate_Empty(t *testing.T) {
	got, err := AggregateByDate(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
