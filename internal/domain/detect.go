package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DetectOptions controls event extraction. A zero MinDuration disables the
// duration filter.
type DetectOptions struct {
	MinDuration time.Duration
}

// Detect flags observations violating each rule and groups them into events.
//
// For continuous data an event spans a maximal run of flagged samples: it
// starts at the first flagged timestamp and ends at the last one, so its
// duration is (samples-1) steps. Runs shorter than MinDuration are dropped.
// Periodic data skips run merging and the duration filter; each flagged grab
// sample is reported.
//
// All rules are validated against the series schema before any evaluation,
// so an unknown parameter returns ErrInvalidParameter and no events.
func Detect(s *Series, rules []Rule, opts DetectOptions) (EventTable, error) {
	if s == nil {
		return EventTable{}, fmt.Errorf("%w: nil series", ErrInvalidSeries)
	}
	if opts.MinDuration < 0 {
		return EventTable{}, fmt.Errorf("%w: negative minimum duration %s", ErrInvalidParameter, opts.MinDuration)
	}

	rules = UniqueRules(rules)
	columns := make([][]float64, len(rules))
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return EventTable{}, err
		}
		col, err := s.Column(r.Parameter)
		if err != nil {
			return EventTable{}, err
		}
		columns[i] = col
	}

	start, end := s.Span()
	table := EventTable{
		Station:   s.Station,
		Category:  s.Category,
		SpanStart: start,
		SpanEnd:   end,
		Events:    []Event{},
	}
	if s.HasQualityFlags() {
		table.Warnings = append(table.Warnings, Warning{
			Kind:    WarningDataQuality,
			Message: fmt.Sprintf("QAQC columns present for %s; quality control not applied before analysis", s.Station),
		})
	}

	for i, r := range rules {
		flags := flagSamples(columns[i], r)
		if s.Category.Continuous() {
			table.Events = append(table.Events, continuousEvents(s, r, flags, opts.MinDuration)...)
		} else {
			table.Events = append(table.Events, periodicEvents(s, r, flags)...)
		}
	}

	sort.SliceStable(table.Events, func(a, b int) bool {
		ea, eb := table.Events[a], table.Events[b]
		if ea.Parameter != eb.Parameter {
			return ea.Parameter < eb.Parameter
		}
		return ea.Start.Before(eb.Start)
	})

	return table, nil
}

// flagSamples evaluates the rule per observation. Missing values are never flagged.
func flagSamples(values []float64, r Rule) []bool {
	flags := make([]bool, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		flags[i] = r.Operator.Compare(v, r.Threshold)
	}
	return flags
}

// Run is a half-open index range [From, To) of consecutive flagged samples.
type Run struct {
	From int
	To   int
}

// Runs returns the maximal runs of true values in order.
func Runs(flags []bool) []Run {
	var runs []Run
	from := -1
	for i, f := range flags {
		switch {
		case f && from < 0:
			from = i
		case !f && from >= 0:
			runs = append(runs, Run{From: from, To: i})
			from = -1
		}
	}
	if from >= 0 {
		runs = append(runs, Run{From: from, To: len(flags)})
	}
	return runs
}

func continuousEvents(s *Series, r Rule, flags []bool, minDuration time.Duration) []Event {
	var events []Event
	for _, run := range Runs(flags) {
		ev := newEvent(s.Station, r, s.Times[run.From], s.Times[run.To-1], run.To-run.From)
		if minDuration > 0 && ev.Duration < minDuration {
			continue
		}
		events = append(events, ev)
	}
	return events
}

func periodicEvents(s *Series, r Rule, flags []bool) []Event {
	var events []Event
	for i, f := range flags {
		if f {
			events = append(events, newEvent(s.Station, r, s.Times[i], s.Times[i], 1))
		}
	}
	return events
}
