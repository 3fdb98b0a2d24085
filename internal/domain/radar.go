package domain

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_radar_locator.go -package=mocks github.com/couchcryptid/storm-data-reconciler/internal/domain RadarLocator

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// RadarSite is a NEXRAD station.
type RadarSite struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// RadarLocator finds the radar closest to a point at the time of a report.
type RadarLocator interface {
	// ClosestRadar returns the site ID nearest to lat/lon among the sites
	// operating at at, or "" when the point is unknown.
	ClosestRadar(ctx context.Context, at time.Time, lat, lon float64) (string, error)
}

// AssignRadars sets ClosestRadar on each record in place. Records without
// coordinates are left blank. A nil locator leaves every record untouched.
// Lookup failures are logged and skipped; only cancellation is returned.
func AssignRadars(ctx context.Context, records []DailyDetail, locator RadarLocator, logger *slog.Logger) error {
	if locator == nil {
		return nil
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		r := &records[i]
		if math.IsNaN(r.Lat) || math.IsNaN(r.Lon) {
			continue
		}

		id, err := locator.ClosestRadar(ctx, r.EffectiveTime, r.Lat, r.Lon)
		if err != nil {
			logger.Warn("radar lookup failed",
				"time", r.EffectiveTime,
				"lat", r.Lat,
				"lon", r.Lon,
				"error", err,
			)
			continue
		}
		r.ClosestRadar = id
	}
	return nil
}
