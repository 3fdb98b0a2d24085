package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/google/uuid"
)

const detailColumns = "effective_time, state, county, city, event_type, magnitude, forecast_office, narrative, lat, lon, closest_radar"

// InsertDailyDetails stores records under sourceID in one transaction. Each
// record is keyed by its own weather day.
func (s *Store) InsertDailyDetails(ctx context.Context, sourceID string, records []domain.DailyDetail) error {
	if len(records) == 0 {
		return nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO daily_detail (id, date, source_id, "+detailColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range records {
			r := &records[i]
			if _, err := stmt.ExecContext(ctx,
				uuid.NewString(),
				formatDate(r.Day()),
				sourceID,
				formatTime(r.EffectiveTime),
				r.State,
				r.County,
				r.City,
				string(r.EventType),
				r.Magnitude,
				r.ForecastOffice,
				r.Narrative,
				nullableFloat(r.Lat),
				nullableFloat(r.Lon),
				r.ClosestRadar,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert %d daily details for %s: %w", len(records), sourceID, err)
	}
	return nil
}

// DeleteDailyDetails removes the records stored for day under sourceID.
func (s *Store) DeleteDailyDetails(ctx context.Context, day time.Time, sourceID string) error {
	if _, err := s.exec(ctx, "DELETE FROM daily_detail WHERE date = ? AND source_id = ?", formatDate(day), sourceID); err != nil {
		return fmt.Errorf("delete daily details %s/%s: %w", formatDate(day), sourceID, err)
	}
	return nil
}

// CountDailyDetails returns how many records are stored for day under sourceID.
func (s *Store) CountDailyDetails(ctx context.Context, day time.Time, sourceID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_detail WHERE date = ? AND source_id = ?",
		formatDate(day), sourceID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count daily details %s/%s: %w", formatDate(day), sourceID, err)
	}
	return n, nil
}

// ListDailyDetails returns the records for day under sourceID ordered by time.
func (s *Store) ListDailyDetails(ctx context.Context, day time.Time, sourceID string) ([]domain.DailyDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+detailColumns+" FROM daily_detail WHERE date = ? AND source_id = ? ORDER BY effective_time",
		formatDate(day), sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily details %s/%s: %w", formatDate(day), sourceID, err)
	}
	defer rows.Close()

	var out []domain.DailyDetail
	for rows.Next() {
		var (
			d         domain.DailyDetail
			tsRaw     string
			eventType string
			lat, lon  sql.NullFloat64
		)
		if err := rows.Scan(&tsRaw, &d.State, &d.County, &d.City, &eventType, &d.Magnitude,
			&d.ForecastOffice, &d.Narrative, &lat, &lon, &d.ClosestRadar); err != nil {
			return nil, fmt.Errorf("scan daily detail: %w", err)
		}
		ts, err := parseTime(tsRaw)
		if err != nil {
			return nil, fmt.Errorf("scan daily detail: %w", err)
		}
		d.EffectiveTime = ts
		d.EventType = domain.EventType(eventType)
		d.Lat = floatOrNaN(lat)
		d.Lon = floatOrNaN(lon)
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
