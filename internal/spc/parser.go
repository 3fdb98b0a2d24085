// Package spc reads the Storm Prediction Center daily "filtered" storm report
// files and converts them into domain records.
package spc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

const fieldCount = 8

// tornadoRatingRe finds an Enhanced Fujita rating such as "EF2" or "EF-2"
// inside a comment.
var tornadoRatingRe = regexp.MustCompile(`EF-?\d`)

// Parser converts the lines of a daily report file into DailyDetail records.
type Parser struct{}

// Parse reads lines for the weather day starting at day (midnight UTC).
// Section headers select the event type of the rows that follow. Rows with
// unparsable coordinates are dropped.
func (Parser) Parse(day time.Time, lines []string) ([]domain.DailyDetail, error) {
	var (
		out       []domain.DailyDetail
		eventType domain.EventType
	)

	for n, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.SplitN(line, ",", fieldCount)
		if len(parts) != fieldCount {
			return nil, fmt.Errorf("%w: line %d: expected %d fields, got %d: %q", domain.ErrFormat, n+1, fieldCount, len(parts), line)
		}

		if parts[0] == "Time" {
			t, err := sectionType(parts[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			eventType = t
			continue
		}
		if eventType == "" {
			return nil, fmt.Errorf("%w: line %d: data row before any section header", domain.ErrFormat, n+1)
		}

		comments := parts[7]
		narrative, office := splitOffice(comments)

		magnitude, err := parseMagnitude(eventType, parts[1], narrative)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[6]), 64)
		if err != nil {
			continue
		}

		ts, err := parseReportTime(day, parts[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}

		out = append(out, domain.DailyDetail{
			EffectiveTime:  ts,
			State:          parts[4],
			County:         parts[3],
			City:           parts[2],
			EventType:      eventType,
			Magnitude:      magnitude,
			ForecastOffice: office,
			Narrative:      narrative,
			Lat:            lat,
			Lon:            lon,
		})
	}

	return out, nil
}

func sectionType(column string) (domain.EventType, error) {
	switch column {
	case "F_Scale":
		return domain.EventTornado, nil
	case "Speed":
		return domain.EventWind, nil
	case "Size":
		return domain.EventHail, nil
	default:
		return "", fmt.Errorf("%w: unexpected magnitude column %q", domain.ErrFormat, column)
	}
}

// splitOffice separates the trailing " (OUN)" office suffix from a comment.
// Comments too short to carry a suffix, or ending in non-ASCII text, are
// returned whole.
func splitOffice(comments string) (narrative, office string) {
	n := len(comments)
	if n <= 6 {
		return comments, ""
	}
	for i := n - 5; i < n; i++ {
		if comments[i] >= utf8.RuneSelf {
			return comments, ""
		}
	}
	return strings.TrimSpace(comments[:n-5]), comments[n-4 : n-1]
}

func parseMagnitude(eventType domain.EventType, raw, narrative string) (string, error) {
	switch eventType {
	case domain.EventHail:
		if raw == "UNK" {
			return "Unknown", nil
		}
		size, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return "", fmt.Errorf("%w: hail size %q", domain.ErrFormat, raw)
		}
		return fmt.Sprintf("%.2f", size/100), nil
	case domain.EventWind:
		if raw == "UNK" {
			return "Unknown", nil
		}
		speed, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("%w: wind speed %q", domain.ErrFormat, raw)
		}
		return strconv.Itoa(speed), nil
	case domain.EventTornado:
		if m := tornadoRatingRe.FindString(narrative); m != "" {
			return strings.ReplaceAll(m, "-", ""), nil
		}
		return "EFU", nil
	default:
		return "", fmt.Errorf("%w: no magnitude rule for %q", domain.ErrFormat, eventType)
	}
}

// parseReportTime places an HHMM clock on the report's weather day. Hours
// before noon belong to the following calendar date.
func parseReportTime(day time.Time, hhmm string) (time.Time, error) {
	hhmm = strings.TrimSpace(hhmm)
	if len(hhmm) < 4 {
		hhmm = strings.Repeat("0", 4-len(hhmm)) + hhmm
	}
	if len(hhmm) != 4 {
		return time.Time{}, fmt.Errorf("%w: time %q", domain.ErrFormat, hhmm)
	}

	hour, errH := strconv.Atoi(hhmm[:2])
	mins, errM := strconv.Atoi(hhmm[2:])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || mins < 0 || mins > 59 {
		return time.Time{}, fmt.Errorf("%w: time %q", domain.ErrFormat, hhmm)
	}

	base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if hour < 12 {
		base = base.AddDate(0, 0, 1)
	}
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(mins)*time.Minute), nil
}
