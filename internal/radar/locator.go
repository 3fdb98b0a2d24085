// Package radar assigns each report the NEXRAD site closest to it.
package radar

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

// Locator finds the nearest primary radar by straight-line distance in
// degrees. It is immutable once built and safe for concurrent use.
type Locator struct {
	sites []domain.RadarSite
}

// NewLocator keeps the primary (K-prefixed) sites from sites.
func NewLocator(sites []domain.RadarSite) *Locator {
	primary := make([]domain.RadarSite, 0, len(sites))
	for _, s := range sites {
		if strings.HasPrefix(s.ID, "K") {
			primary = append(primary, s)
		}
	}
	return &Locator{sites: primary}
}

// Len returns the number of primary sites.
func (l *Locator) Len() int {
	return len(l.sites)
}

// ClosestRadar returns the ID of the nearest site, or "" when the point has no
// coordinates or no sites are loaded. The station list carries no service
// dates, so every loaded site is a candidate whatever the report time.
func (l *Locator) ClosestRadar(_ context.Context, _ time.Time, lat, lon float64) (string, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || len(l.sites) == 0 {
		return "", nil
	}

	best := -1
	bestDist := math.Inf(1)
	for i, s := range l.sites {
		d := math.Hypot(s.Lat-lat, s.Lon-lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return l.sites[best].ID, nil
}
