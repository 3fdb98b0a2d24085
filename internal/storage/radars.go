package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

// ReplaceRadarSites swaps the stored station list for sites.
func (s *Store) ReplaceRadarSites(ctx context.Context, sites []domain.RadarSite) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM radar_site"); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO radar_site (id, name, state, lat, lon) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, site := range sites {
			if _, err := stmt.ExecContext(ctx, site.ID, site.Name, site.State, site.Lat, site.Lon); err != nil {
				return fmt.Errorf("site %s: %w", site.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace radar sites: %w", err)
	}
	return nil
}

// ListRadarSites returns the stored stations ordered by ID.
func (s *Store) ListRadarSites(ctx context.Context) ([]domain.RadarSite, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, state, lat, lon FROM radar_site ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list radar sites: %w", err)
	}
	defer rows.Close()

	var out []domain.RadarSite
	for rows.Next() {
		var site domain.RadarSite
		if err := rows.Scan(&site.ID, &site.Name, &site.State, &site.Lat, &site.Lon); err != nil {
			return nil, fmt.Errorf("scan radar site: %w", err)
		}
		out = append(out, site)
	}
	return out, rows.Err()
}
