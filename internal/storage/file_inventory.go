package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

const fileColumns = "year, revision, path, row_count, is_active, updated_at"

// GetFileInventory returns the record for one archive revision, or an error
// wrapping domain.ErrNotFound.
func (s *Store) GetFileInventory(ctx context.Context, year int, revision string) (*domain.FileInventory, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM file_inventory WHERE year = ? AND revision = ?",
		year, revision,
	)
	inv, err := scanFileInventory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: file inventory %d/%s", domain.ErrNotFound, year, revision)
	}
	if err != nil {
		return nil, fmt.Errorf("get file inventory %d/%s: %w", year, revision, err)
	}
	return inv, nil
}

// ListFileInventory returns every archive revision ordered by year then revision.
func (s *Store) ListFileInventory(ctx context.Context) ([]domain.FileInventory, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+fileColumns+" FROM file_inventory ORDER BY year, revision")
	if err != nil {
		return nil, fmt.Errorf("list file inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.FileInventory
	for rows.Next() {
		inv, err := scanFileInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file inventory: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// CreateFileInventory inserts a new archive revision and stamps UpdatedAt.
func (s *Store) CreateFileInventory(ctx context.Context, inv *domain.FileInventory) error {
	inv.UpdatedAt = s.clock.Now().UTC()
	_, err := s.exec(ctx,
		"INSERT INTO file_inventory ("+fileColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		inv.Year, inv.Revision, inv.Path, inv.RowCount, boolToInt(inv.IsActive), formatTime(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create file inventory %d/%s: %w", inv.Year, inv.Revision, err)
	}
	return nil
}

// UpdateFileInventory saves RowCount and IsActive and stamps UpdatedAt.
func (s *Store) UpdateFileInventory(ctx context.Context, inv *domain.FileInventory) error {
	inv.UpdatedAt = s.clock.Now().UTC()
	res, err := s.exec(ctx,
		"UPDATE file_inventory SET path = ?, row_count = ?, is_active = ?, updated_at = ? WHERE year = ? AND revision = ?",
		inv.Path, inv.RowCount, boolToInt(inv.IsActive), formatTime(inv.UpdatedAt), inv.Year, inv.Revision,
	)
	if err != nil {
		return fmt.Errorf("update file inventory %d/%s: %w", inv.Year, inv.Revision, err)
	}
	return requireAffected(res, fmt.Sprintf("file inventory %d/%s", inv.Year, inv.Revision))
}

func scanFileInventory(scanner interface{ Scan(dest ...any) error }) (*domain.FileInventory, error) {
	var (
		inv        domain.FileInventory
		updatedRaw string
	)
	if err := scanner.Scan(&inv.Year, &inv.Revision, &inv.Path, &inv.RowCount, &inv.IsActive, &updatedRaw); err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	inv.UpdatedAt = updated
	return &inv, nil
}
