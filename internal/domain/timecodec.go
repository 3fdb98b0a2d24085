package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScoreTimeLayout is the lexically sortable timestamp appended to headline scores.
const ScoreTimeLayout = "2006-01-02 15:04:05Z"

// noHeadline is the score prefix for events that can never be a day's headline.
const noHeadline = "9"

// headlineHour is the first UTC hour at which an event is headline-eligible.
const headlineHour = 18

var tzOffsets = map[string]int{
	"UTC": 0,
	"EDT": -4,
	"EST": -5,
	"CDT": -5,
	"CST": -6,
	"MDT": -6,
	"MST": -7,
	"PDT": -7,
	"PST": -8,
}

// DayBoundary returns the weather day for ts: midnight UTC of the calendar
// date twelve hours earlier.
func DayBoundary(ts time.Time) time.Time {
	shifted := ts.UTC().Add(-12 * time.Hour)
	return time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)
}

// TzOffsetHours resolves a US time zone abbreviation to its UTC offset in hours.
func TzOffsetHours(abbr string) (int, error) {
	offset, ok := tzOffsets[strings.ToUpper(strings.TrimSpace(abbr))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTimeZone, abbr)
	}
	return offset, nil
}

// ParseNarrativeDatestamp parses an issuance line such as
// "0101 PM CDT Fri Mar 14 2025" into a UTC timestamp.
func ParseNarrativeDatestamp(line string) (time.Time, error) {
	fields := strings.Fields(line)
	if len(fields) != 7 {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: want 7 fields, got %d", ErrFormat, line, len(fields))
	}

	clock := fields[0]
	if len(clock) != 4 {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: bad clock %q", ErrFormat, line, clock)
	}
	hour, err := strconv.Atoi(clock[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: %v", ErrFormat, line, err)
	}
	minute, err := strconv.Atoi(clock[2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: %v", ErrFormat, line, err)
	}
	if hour > 12 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: clock out of range", ErrFormat, line)
	}

	switch fields[1] {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return time.Time{}, fmt.Errorf("%w: datestamp %q: bad meridiem %q", ErrFormat, line, fields[1])
	}

	offset, err := TzOffsetHours(fields[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: %v", ErrFormat, line, err)
	}

	month, err := time.Parse("Jan", fields[4])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: bad month %q", ErrFormat, line, fields[4])
	}
	day, err := strconv.Atoi(fields[5])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: bad day %q", ErrFormat, line, fields[5])
	}
	year, err := strconv.Atoi(fields[6])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datestamp %q: bad year %q", ErrFormat, line, fields[6])
	}

	local := time.Date(year, month.Month(), day, hour, minute, 0, 0, time.UTC)
	return local.Add(-time.Duration(offset) * time.Hour), nil
}

// EncodeHeadlineScore ranks a report for headline selection. The smallest
// score across a day is its headline: a severity prefix followed by the
// timestamp, so equal severities order by time. Reports before 18:00 UTC
// score "9" and are never eligible.
func EncodeHeadlineScore(d DailyDetail) string {
	ts := d.EffectiveTime.UTC()
	if ts.Hour() < headlineHour {
		return noHeadline
	}
	return severityPrefix(d) + ts.Format(ScoreTimeLayout)
}

// DecodeHeadlineScore returns the timestamp carried by score, or nil when the
// score is blank or not headline-eligible.
func DecodeHeadlineScore(score string) (*time.Time, error) {
	if strings.TrimSpace(score) == "" || strings.HasPrefix(score, noHeadline) {
		return nil, nil
	}
	ts, err := time.Parse(ScoreTimeLayout, score[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: headline score %q: %v", ErrFormat, score, err)
	}
	return &ts, nil
}

func severityPrefix(d DailyDetail) string {
	switch d.EventType {
	case EventTornado:
		switch d.Magnitude {
		case "EF5":
			return "0"
		case "EF4", "EF3":
			return "2"
		case "EF2":
			return "3"
		default:
			return "4"
		}
	case EventWind:
		return "6"
	case EventHail:
		return "7"
	default:
		return "8"
	}
}
