package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

const pollColumns = "date, id, content, updated_at, is_daily_detail_complete, is_daily_summary_complete, is_tornado_day"

// LatestPollInventory returns the most recently refreshed content version
// for day, or nil when the day has never been downloaded.
func (s *Store) LatestPollInventory(ctx context.Context, day time.Time) (*domain.PollInventory, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+pollColumns+" FROM poll_inventory WHERE date = ? ORDER BY updated_at DESC LIMIT 1",
		formatDate(day),
	)
	inv, err := scanPollInventory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest poll inventory %s: %w", formatDate(day), err)
	}
	return inv, nil
}

// ListPollInventory returns every content version whose day falls in year.
func (s *Store) ListPollInventory(ctx context.Context, year int) ([]domain.PollInventory, error) {
	from, to := yearBounds(year)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pollColumns+" FROM poll_inventory WHERE date >= ? AND date < ? ORDER BY date, updated_at",
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list poll inventory %d: %w", year, err)
	}
	defer rows.Close()

	var out []domain.PollInventory
	for rows.Next() {
		inv, err := scanPollInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan poll inventory: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// CreatePollInventory stores a content version. A version with the same
// (date, id) is overwritten: the feed can return to an earlier ETag, and that
// content then replaces the stored rows and flags. UpdatedAt is set to now
// when zero.
func (s *Store) CreatePollInventory(ctx context.Context, inv *domain.PollInventory) error {
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = s.clock.Now().UTC()
	}
	_, err := s.exec(ctx,
		"INSERT INTO poll_inventory ("+pollColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"+
			` ON CONFLICT (date, id) DO UPDATE SET
			    content = excluded.content,
			    updated_at = excluded.updated_at,
			    is_daily_detail_complete = excluded.is_daily_detail_complete,
			    is_daily_summary_complete = excluded.is_daily_summary_complete,
			    is_tornado_day = excluded.is_tornado_day`,
		formatDate(inv.Date),
		inv.ID,
		strings.Join(inv.Rows, "\n"),
		formatTime(inv.UpdatedAt),
		boolToInt(inv.IsDailyDetailComplete),
		boolToInt(inv.IsDailySummaryComplete),
		boolToInt(inv.IsTornadoDay),
	)
	if err != nil {
		return fmt.Errorf("create poll inventory %s/%s: %w", formatDate(inv.Date), inv.ID, err)
	}
	return nil
}

// UpdatePollInventory saves the flags and freshness of an existing version.
func (s *Store) UpdatePollInventory(ctx context.Context, inv *domain.PollInventory) error {
	res, err := s.exec(ctx,
		`UPDATE poll_inventory
		    SET updated_at = ?, is_daily_detail_complete = ?, is_daily_summary_complete = ?, is_tornado_day = ?
		  WHERE date = ? AND id = ?`,
		formatTime(inv.UpdatedAt),
		boolToInt(inv.IsDailyDetailComplete),
		boolToInt(inv.IsDailySummaryComplete),
		boolToInt(inv.IsTornadoDay),
		formatDate(inv.Date),
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update poll inventory %s/%s: %w", formatDate(inv.Date), inv.ID, err)
	}
	return requireAffected(res, "poll inventory "+formatDate(inv.Date)+"/"+inv.ID)
}

func scanPollInventory(scanner interface{ Scan(dest ...any) error }) (*domain.PollInventory, error) {
	var (
		dateRaw, id, content, updatedRaw string
		detail, summary, tornado         bool
	)
	if err := scanner.Scan(&dateRaw, &id, &content, &updatedRaw, &detail, &summary, &tornado); err != nil {
		return nil, err
	}

	date, err := parseDate(dateRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}

	var rows []string
	if content != "" {
		rows = strings.Split(content, "\n")
	}
	return &domain.PollInventory{
		ID:                     id,
		Date:                   date,
		Rows:                   rows,
		UpdatedAt:              updated,
		IsDailyDetailComplete:  detail,
		IsDailySummaryComplete: summary,
		IsTornadoDay:           tornado,
	}, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return nil
}
