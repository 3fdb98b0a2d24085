package domain

import (
	"fmt"
	"sort"
	"time"
)

// AggregateByDate rolls records up into one summary per weather day, ordered
// by day. Every timestamp must be in UTC.
func AggregateByDate(records []DailyDetail) ([]DailySummary, error) {
	type bucket struct {
		summary DailySummary
		best    string
	}

	buckets := make(map[time.Time]*bucket)
	for i := range records {
		r := records[i]
		if r.EffectiveTime.Location() != time.UTC {
			return nil, fmt.Errorf("%w: record %d timestamp %s is not UTC", ErrInvalidInput, i, r.EffectiveTime)
		}

		day := r.Day()
		b, ok := buckets[day]
		if !ok {
			b = &bucket{summary: DailySummary{Date: day}}
			buckets[day] = b
		}
		tally(&b.summary, r)

		score := EncodeHeadlineScore(r)
		if b.best == "" || score < b.best {
			b.best = score
		}
	}

	out := make([]DailySummary, 0, len(buckets))
	for _, b := range buckets {
		headline, err := DecodeHeadlineScore(b.best)
		if err != nil {
			return nil, err
		}
		s := b.summary
		s.HeadlineEventTime = headline
		s.RowCount = s.Hail + s.Wind + s.Tornadoes()
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func tally(s *DailySummary, r DailyDetail) {
	switch r.EventType {
	case EventHail:
		s.Hail++
	case EventWind:
		s.Wind++
	case EventTornado:
		switch r.Magnitude {
		case "EF5":
			s.F5++
		case "EF4":
			s.F4++
		case "EF3":
			s.F3++
		case "EF2":
			s.F2++
		case "EF1", "EF0", "EFU":
			s.F1++
		}
	}
}
