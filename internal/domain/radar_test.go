package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLocator struct {
	id    string
	err   error
	calls int
	times []time.Time
}

func (m *mockLocator) ClosestRadar(_ context.Context, at time.Time, _, _ float64) (string, error) {
	m.calls++
	m.times = append(m.times, at)
	return m.id, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAssignRadars(t *testing.T) {
	reported := time.Date(2010, 7, 10, 21, 10, 0, 0, time.UTC)
	records := []DailyDetail{
		{EffectiveTime: reported, Lat: 35.2, Lon: -97.4},
		{EffectiveTime: reported, Lat: math.NaN(), Lon: math.NaN()},
	}
	loc := &mockLocator{id: "KTLX"}

	err := AssignRadars(context.Background(), records, loc, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, "KTLX", records[0].ClosestRadar)
	assert.Empty(t, records[1].ClosestRadar)
	assert.Equal(t, 1, loc.calls)
	assert.Equal(t, []time.Time{reported}, loc.times, "lookup uses the report time")
}

func TestAssignRadars_NilLocator(t *testing.T) {
	records := []DailyDetail{{Lat: 35.2, Lon: -97.4}}

	err := AssignRadars(context.Background(), records, nil, discardLogger())

	require.NoError(t, err)
	assert.Empty(t, records[0].ClosestRadar)
}

func TestAssignRadars_LookupFailureIsSkipped(t *testing.T) {
	records := []DailyDetail{{Lat: 35.2, Lon: -97.4}}
	loc := &mockLocator{err: errors.New("boom")}

	err := AssignRadars(context.Background(), records, loc, discardLogger())

	require.NoError(t, err)
	assert.Empty(t, records[0].ClosestRadar)
}

func TestAssignRadars_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := AssignRadars(ctx, []DailyDetail{{Lat: 1, Lon: 1}}, &mockLocator{}, discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
}
