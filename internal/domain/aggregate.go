package domain

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the calendar bucket size used to count events.
type Granularity string

const (
	GranularityMonth  Granularity = "month"
	GranularitySeason Granularity = "season"
	GranularityYear   Granularity = "year"
)

// ParseGranularity accepts "month", "season" or "year" in any case.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GranularityMonth, GranularitySeason, GranularityYear:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// SummaryOptions controls aggregation. Seasons defaults to
// DefaultSeasonPolicy when nil.
type SummaryOptions struct {
	Granularity       Granularity
	Seasons           *SeasonPolicy
	AbbreviateSeasons bool
}

// Bucket is the event count for one (year, label) cell. Label is empty for
// yearly aggregation, the month abbreviation for monthly and the season
// label for seasonal.
type Bucket struct {
	Year  int    `json:"year"`
	Label string `json:"label,omitempty"`
	Month int    `json:"month,omitempty"`
	Count int    `json:"count"`
}

// Summary is the complete bucket grid: every label for every year in the
// observed span, zero-filled where no event started.
type Summary struct {
	Granularity Granularity `json:"granularity"`
	Labels      []string    `json:"labels,omitempty"`
	Years       []int       `json:"years"`
	Buckets     []Bucket    `json:"buckets"`
	Total       int         `json:"total"`
	Warnings    []Warning   `json:"-"`
}

type bucketKey struct {
	year  int
	label int
}

// Summarize counts events by the start timestamp's month, season or year.
// The year range covers the table's observed span, so years without events
// still appear with zero counts.
func Summarize(table EventTable, opts SummaryOptions) (Summary, error) {
	g := opts.Granularity
	if g == "" {
		g = GranularityYear
	}
	if _, err := ParseGranularity(string(g)); err != nil {
		return Summary{}, err
	}

	seasons := opts.Seasons
	if seasons == nil {
		seasons = DefaultSeasonPolicy()
	}

	sum := Summary{Granularity: g, Buckets: []Bucket{}}
	if g == GranularityMonth && table.Category == CategoryNutrient {
		sum.Warnings = append(sum.Warnings, Warning{
			Kind:    WarningGranularityMismatch,
			Message: fmt.Sprintf("monthly aggregation of %s data does not align with periodic sampling", table.Category),
		})
	}

	var labelOf func(t time.Time) int
	switch g {
	case GranularityMonth:
		for m := time.January; m <= time.December; m++ {
			sum.Labels = append(sum.Labels, m.String()[:3])
		}
		labelOf = func(t time.Time) int { return int(t.Month()) - 1 }
	case GranularitySeason:
		if err := seasons.Validate(opts.AbbreviateSeasons); err != nil {
			return Summary{}, err
		}
		sum.Labels = seasons.Labels(opts.AbbreviateSeasons)
		index := make(map[string]int, len(sum.Labels))
		for i, l := range sum.Labels {
			index[l] = i
		}
		labelOf = func(t time.Time) int { return index[seasons.Season(t, opts.AbbreviateSeasons)] }
	default:
		labelOf = func(time.Time) int { return 0 }
	}

	counts := make(map[bucketKey]int, len(table.Events))
	for _, ev := range table.Events {
		counts[bucketKey{year: ev.Start.Year(), label: labelOf(ev.Start)}]++
	}

	sum.Years = observedYears(table)
	width := len(sum.Labels)
	if width == 0 {
		width = 1
	}
	for _, y := range sum.Years {
		for i := 0; i < width; i++ {
			b := Bucket{Year: y, Count: counts[bucketKey{year: y, label: i}]}
			switch g {
			case GranularityMonth:
				b.Month = i + 1
				b.Label = sum.Labels[i]
			case GranularitySeason:
				b.Label = sum.Labels[i]
			}
			sum.Total += b.Count
			sum.Buckets = append(sum.Buckets, b)
		}
	}
	return sum, nil
}

// observedYears returns every calendar year from the earliest to the latest
// of the span and event start times.
func observedYears(table EventTable) []int {
	lo, hi := 0, 0
	include := func(t time.Time) {
		if t.IsZero() {
			return
		}
		y := t.Year()
		if lo == 0 || y < lo {
			lo = y
		}
		if hi == 0 || y > hi {
			hi = y
		}
	}
	include(table.SpanStart)
	include(table.SpanEnd)
	for _, ev := range table.Events {
		include(ev.Start)
	}
	if lo == 0 {
		return []int{}
	}

	years := make([]int, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		years = append(years, y)
	}
	return years
}

// YearLabelStep returns how many years apart x-axis labels should be for a
// chart covering the given number of years.
func YearLabelStep(years int) int {
	switch {
	case years > 20:
		return 4
	case years > 10:
		return 2
	default:
		return 1
	}
}

// YearTicks returns the years that carry an axis label, starting at the
// first year and thinned by YearLabelStep.
func YearTicks(years []int) []int {
	if len(years) == 0 {
		return nil
	}
	step := YearLabelStep(len(years))
	ticks := make([]int, 0, len(years)/step+1)
	for i := 0; i < len(years); i += step {
		ticks = append(ticks, years[i])
	}
	return ticks
}
