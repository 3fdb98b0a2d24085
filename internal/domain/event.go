package domain

import (
	"time"
)

// EventType is the report category shared by both sources.
type EventType string

const (
	EventHail    EventType = "Hail"
	EventWind    EventType = "Thunderstorm Wind"
	EventTornado EventType = "Tornado"
	EventOther   EventType = "Other"
)

// ParseEventType maps an upstream event label to an EventType. Unknown labels
// map to EventOther.
func ParseEventType(s string) EventType {
	switch EventType(s) {
	case EventHail, EventWind, EventTornado:
		return EventType(s)
	default:
		return EventOther
	}
}

// DailyDetail is one storm report in the uniform model produced by both parsers.
type DailyDetail struct {
	EffectiveTime  time.Time `json:"effective_time"`
	State          string    `json:"state"`
	County         string    `json:"county"`
	City           string    `json:"city"`
	EventType      EventType `json:"event_type"`
	Magnitude      string    `json:"magnitude"`
	ForecastOffice string    `json:"forecast_office"`
	Narrative      string    `json:"narrative"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`

	// ClosestRadar is filled in after parsing by AssignRadars.
	ClosestRadar string `json:"closest_radar,omitempty"`
}

// Day returns the weather day the report belongs to.
func (d DailyDetail) Day() time.Time {
	return DayBoundary(d.EffectiveTime)
}

// DailySummary is the per-day severity roll-up for one source.
type DailySummary struct {
	Date              time.Time  `json:"date"`
	SourceID          string     `json:"source_id"`
	Hail              int        `json:"hail"`
	Wind              int        `json:"wind"`
	F1                int        `json:"f1"`
	F2                int        `json:"f2"`
	F3                int        `json:"f3"`
	F4                int        `json:"f4"`
	F5                int        `json:"f5"`
	HeadlineEventTime *time.Time `json:"headline_event_time,omitempty"`
	RowCount          int        `json:"row_count"`
	IsCurrent         bool       `json:"is_current"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Tornadoes returns the total tornado count across all rating buckets.
func (s DailySummary) Tornadoes() int {
	return s.F1 + s.F2 + s.F3 + s.F4 + s.F5
}

// PollInventory tracks one content version of an SPC daily file.
// ID is the strong validator (ETag) returned with the content.
type PollInventory struct {
	ID                     string
	Date                   time.Time
	Rows                   []string
	UpdatedAt              time.Time
	IsDailyDetailComplete  bool
	IsDailySummaryComplete bool
	IsTornadoDay           bool
}

// FileInventory tracks one revision of a yearly Storm Events archive file.
type FileInventory struct {
	Year      int
	Revision  string
	Path      string
	RowCount  int
	IsActive  bool
	UpdatedAt time.Time
}
