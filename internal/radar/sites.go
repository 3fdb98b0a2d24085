package radar

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

// Layout of the fixed-width NCEI station list.
const (
	headerLines = 2
	minLineLen  = 126
)

// ParseSites reads the NCEI NEXRAD station list. The two header lines and
// blank lines are skipped, as are stations without a state.
func ParseSites(r io.Reader) ([]domain.RadarSite, error) {
	var sites []domain.RadarSite
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo <= headerLines || strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < minLineLen {
			return nil, fmt.Errorf("%w: station line %d is %d chars", domain.ErrFormat, lineNo, len(line))
		}

		state := strings.TrimSpace(line[72:74])
		if state == "" {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(line[106:115]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: station line %d lat: %v", domain.ErrFormat, lineNo, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(line[116:126]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: station line %d lon: %v", domain.ErrFormat, lineNo, err)
		}

		sites = append(sites, domain.RadarSite{
			ID:    strings.TrimSpace(line[9:13]),
			Name:  strings.TrimSpace(line[20:50]),
			State: state,
			Lat:   lat,
			Lon:   lon,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read station list: %w", err)
	}
	return sites, nil
}
