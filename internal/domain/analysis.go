package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps AnalyzedAt. Tests and fixture generators freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the analysis time source. Pass nil for the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// Analysis is a complete request: rules and minimum duration for the
// detector, granularity and seasons for the aggregator.
type Analysis struct {
	Rules   []Rule
	Detect  DetectOptions
	Summary SummaryOptions
}

// Result bundles the event table with its temporal summary.
type Result struct {
	ID         string       `json:"id,omitempty"`
	Station    string       `json:"station"`
	Category   DataCategory `json:"category"`
	Rules      []Rule       `json:"rules"`
	MinHours   float64      `json:"min_duration_hours,omitempty"`
	SpanStart  time.Time    `json:"span_start"`
	SpanEnd    time.Time    `json:"span_end"`
	Events     []Event      `json:"events"`
	Summary    Summary      `json:"summary"`
	Warnings   []Warning    `json:"warnings,omitempty"`
	AnalyzedAt time.Time    `json:"analyzed_at"`
}

// Analyze runs the detector then the aggregator over one series.
func Analyze(s *Series, a Analysis) (Result, error) {
	table, err := Detect(s, a.Rules, a.Detect)
	if err != nil {
		return Result{}, err
	}
	summary, err := Summarize(table, a.Summary)
	if err != nil {
		return Result{}, err
	}

	warnings := make([]Warning, 0, len(table.Warnings)+len(summary.Warnings))
	warnings = append(warnings, table.Warnings...)
	warnings = append(warnings, summary.Warnings...)

	return Result{
		Station:    table.Station,
		Category:   table.Category,
		Rules:      a.Rules,
		MinHours:   a.Detect.MinDuration.Hours(),
		SpanStart:  table.SpanStart,
		SpanEnd:    table.SpanEnd,
		Events:     table.Events,
		Summary:    summary,
		Warnings:   warnings,
		AnalyzedAt: clock.Now().UTC(),
	}, nil
}
