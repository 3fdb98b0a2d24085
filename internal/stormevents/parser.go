// Package stormevents reads the NCEI Storm Events Database yearly bulk files.
package stormevents

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
	"github.com/klauspost/pgzip"
)

// BeginTimeLayout is the local-standard-time format of BEGIN_DATE_TIME.
const BeginTimeLayout = "02-Jan-06 15:04:05"

// Column names read from the header row.
const (
	colState     = "STATE"
	colCounty    = "CZ_NAME"
	colCity      = "BEGIN_LOCATION"
	colEventType = "EVENT_TYPE"
	colOffice    = "WFO"
	colBegin     = "BEGIN_DATE_TIME"
	colTimeZone  = "CZ_TIMEZONE"
	colMagnitude = "MAGNITUDE"
	colFScale    = "TOR_F_SCALE"
	colLat       = "BEGIN_LAT"
	colLon       = "BEGIN_LON"
	colNarrative = "EVENT_NARRATIVE"
)

var requiredColumns = []string{
	colState, colCounty, colCity, colEventType, colOffice, colBegin,
	colTimeZone, colMagnitude, colFScale, colLat, colLon, colNarrative,
}

// stripTimeZoneRe removes everything but the signed offset from "CST-6".
var stripTimeZoneRe = regexp.MustCompile(`[^0-9-]+`)

// Parser converts bulk CSV rows into DailyDetail records. Only hail,
// thunderstorm wind, and tornado rows are kept.
type Parser struct {
	states *domain.StateTable
}

// NewParser creates a parser that normalizes full state names with states.
// A nil table keeps state names as published.
func NewParser(states *domain.StateTable) *Parser {
	return &Parser{states: states}
}

// ParseGzip decompresses r and parses the CSV inside.
func (p *Parser) ParseGzip(r io.Reader) ([]domain.DailyDetail, error) {
	zr, err := pgzip.NewReaderN(r, 256*1024, runtime.NumCPU())
	if err != nil {
		return nil, fmt.Errorf("%w: open gzip: %v", domain.ErrFormat, err)
	}
	defer zr.Close()

	return p.Parse(zr)
}

// Parse reads CSV with a header row from r.
func (p *Parser) Parse(r io.Reader) ([]domain.DailyDetail, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrFormat, err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var out []domain.DailyDetail
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", domain.ErrFormat, err)
		}

		d, keep, err := p.parseRow(cols, rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if keep {
			out = append(out, d)
		}
	}
	return out, nil
}

func (p *Parser) parseRow(cols map[string]int, rec []string) (domain.DailyDetail, bool, error) {
	field := func(name string) string { return rec[cols[name]] }

	eventType := domain.ParseEventType(field(colEventType))
	var magnitude string
	switch eventType {
	case domain.EventHail:
		if v, ok := parseOptionalFloat(field(colMagnitude)); ok {
			magnitude = fmt.Sprintf("%.2f", v)
		}
	case domain.EventWind:
		if v, ok := parseOptionalFloat(field(colMagnitude)); ok {
			magnitude = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case domain.EventTornado:
		magnitude = field(colFScale)
	default:
		return domain.DailyDetail{}, false, nil
	}

	ts, err := parseBeginTime(field(colBegin), field(colTimeZone))
	if err != nil {
		return domain.DailyDetail{}, false, err
	}

	lat, ok := parseOptionalFloat(field(colLat))
	if !ok {
		lat = math.NaN()
	}
	lon, ok := parseOptionalFloat(field(colLon))
	if !ok {
		lon = math.NaN()
	}

	return domain.DailyDetail{
		EffectiveTime:  ts,
		State:          p.normalizeState(field(colState)),
		County:         field(colCounty),
		City:           field(colCity),
		EventType:      eventType,
		Magnitude:      magnitude,
		ForecastOffice: field(colOffice),
		Narrative:      field(colNarrative),
		Lat:            lat,
		Lon:            lon,
	}, true, nil
}

func (p *Parser) normalizeState(name string) string {
	if p.states == nil {
		return name
	}
	abbr, _ := p.states.Abbreviation(name)
	return abbr
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", domain.ErrFormat, name)
		}
	}
	return cols, nil
}

// parseBeginTime converts a local standard time to UTC using the row's zone,
// e.g. "CST-6". Zones without a numeric offset fall back to the abbreviation.
func parseBeginTime(value, zone string) (time.Time, error) {
	local, err := time.Parse(BeginTimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: begin time %q", domain.ErrFormat, value)
	}

	offset, err := zoneOffset(zone)
	if err != nil {
		return time.Time{}, err
	}
	return local.Add(-time.Duration(offset) * time.Hour), nil
}

func zoneOffset(zone string) (int, error) {
	stripped := stripTimeZoneRe.ReplaceAllString(zone, "")
	if strings.ContainsAny(stripped, "0123456789") {
		n, err := strconv.Atoi(stripped)
		if err != nil {
			return 0, fmt.Errorf("%w: time zone %q", domain.ErrFormat, zone)
		}
		return n, nil
	}

	n, err := domain.TzOffsetHours(zone)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrFormat, err)
	}
	return n, nil
}

func parseOptionalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
