package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

const summaryColumns = "date, source_id, hail, wind, f1, f2, f3, f4, f5, headline_event_time, row_count, is_current, updated_at"

// ListDailySummaries returns every summary recorded for day, across sources.
func (s *Store) ListDailySummaries(ctx context.Context, day time.Time) ([]domain.DailySummary, error) {
	return s.querySummaries(ctx,
		"SELECT "+summaryColumns+" FROM daily_summary WHERE date = ? ORDER BY updated_at",
		formatDate(day),
	)
}

// ListDailySummariesForYear returns every summary for days in year, ordered
// by day.
func (s *Store) ListDailySummariesForYear(ctx context.Context, year int) ([]domain.DailySummary, error) {
	from, to := yearBounds(year)
	return s.querySummaries(ctx,
		"SELECT "+summaryColumns+" FROM daily_summary WHERE date >= ? AND date < ? ORDER BY date, updated_at",
		from, to,
	)
}

// CreateDailySummary inserts a summary and stamps UpdatedAt.
func (s *Store) CreateDailySummary(ctx context.Context, sum *domain.DailySummary) error {
	sum.UpdatedAt = s.clock.Now().UTC()
	_, err := s.exec(ctx,
		"INSERT INTO daily_summary ("+summaryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		formatDate(sum.Date),
		sum.SourceID,
		sum.Hail, sum.Wind, sum.F1, sum.F2, sum.F3, sum.F4, sum.F5,
		nullableTime(sum.HeadlineEventTime),
		sum.RowCount,
		boolToInt(sum.IsCurrent),
		formatTime(sum.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create daily summary %s/%s: %w", formatDate(sum.Date), sum.SourceID, err)
	}
	return nil
}

// UpdateDailySummary saves an existing summary and stamps UpdatedAt.
func (s *Store) UpdateDailySummary(ctx context.Context, sum *domain.DailySummary) error {
	sum.UpdatedAt = s.clock.Now().UTC()
	res, err := s.exec(ctx,
		`UPDATE daily_summary
		    SET hail = ?, wind = ?, f1 = ?, f2 = ?, f3 = ?, f4 = ?, f5 = ?,
		        headline_event_time = ?, row_count = ?, is_current = ?, updated_at = ?
		  WHERE date = ? AND source_id = ?`,
		sum.Hail, sum.Wind, sum.F1, sum.F2, sum.F3, sum.F4, sum.F5,
		nullableTime(sum.HeadlineEventTime),
		sum.RowCount,
		boolToInt(sum.IsCurrent),
		formatTime(sum.UpdatedAt),
		formatDate(sum.Date),
		sum.SourceID,
	)
	if err != nil {
		return fmt.Errorf("update daily summary %s/%s: %w", formatDate(sum.Date), sum.SourceID, err)
	}
	return requireAffected(res, "daily summary "+formatDate(sum.Date)+"/"+sum.SourceID)
}

func (s *Store) querySummaries(ctx context.Context, query string, args ...any) ([]domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		var (
			sum         domain.DailySummary
			dateRaw     string
			headlineRaw sql.NullString
			updatedRaw  string
		)
		if err := rows.Scan(&dateRaw, &sum.SourceID, &sum.Hail, &sum.Wind,
			&sum.F1, &sum.F2, &sum.F3, &sum.F4, &sum.F5,
			&headlineRaw, &sum.RowCount, &sum.IsCurrent, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		if sum.Date, err = parseDate(dateRaw); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		if sum.UpdatedAt, err = parseTime(updatedRaw); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		if headlineRaw.Valid {
			ts, err := parseTime(headlineRaw.String)
			if err != nil {
				return nil, fmt.Errorf("scan daily summary: %w", err)
			}
			sum.HeadlineEventTime = &ts
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
