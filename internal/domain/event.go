package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Event is one maximal run of observations satisfying a rule. For periodic
// data every flagged sample is its own event with zero duration.
type Event struct {
	ID            string        `json:"id"`
	Station       string        `json:"station"`
	Parameter     string        `json:"parameter"`
	Rule          Rule          `json:"rule"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Duration      time.Duration `json:"-"`
	DurationHours float64       `json:"duration_hours"`
	Samples       int           `json:"samples"`
}

func newEvent(station string, rule Rule, start, end time.Time, samples int) Event {
	d := end.Sub(start)
	return Event{
		ID:            generateID(station, rule, start),
		Station:       station,
		Parameter:     rule.Parameter,
		Rule:          rule,
		Start:         start,
		End:           end,
		Duration:      d,
		DurationHours: d.Hours(),
		Samples:       samples,
	}
}

// generateID produces a deterministic ID from station, rule and start time so
// rerunning an analysis yields the same event IDs.
func generateID(station string, rule Rule, start time.Time) string {
	input := fmt.Sprintf("%s|%s|%s", station, rule, start.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	return rule.Parameter + "-" + hex.EncodeToString(hash[:8])
}

// EventTable is the detector output for one series.
type EventTable struct {
	Station   string       `json:"station"`
	Category  DataCategory `json:"category"`
	SpanStart time.Time    `json:"span_start"`
	SpanEnd   time.Time    `json:"span_end"`
	Events    []Event      `json:"events"`
	Warnings  []Warning    `json:"warnings,omitempty"`
}
