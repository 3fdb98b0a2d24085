package domain

import "time"

// RunStatus describes the scheduled poll runs of a serving process.
type RunStatus struct {
	LastStart   time.Time `json:"last_start"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
	Runs        int       `json:"runs"`
	Failures    int       `json:"failures"`
}
