package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DataCategory identifies how a station samples.
type DataCategory string

const (
	CategoryWaterQuality   DataCategory = "wq"
	CategoryMeteorological DataCategory = "met"
	CategoryNutrient       DataCategory = "nut"
)

// Continuous reports whether the category is a regularly stepped sensor
// record. Nutrient grabs are periodic and have no meaningful duration.
func (c DataCategory) Continuous() bool {
	return c == CategoryWaterQuality || c == CategoryMeteorological
}

// Valid returns true when the category is supported.
func (c DataCategory) Valid() bool {
	switch c {
	case CategoryWaterQuality, CategoryMeteorological, CategoryNutrient:
		return true
	default:
		return false
	}
}

// CategoryFromStation derives the category from a NERRS station code suffix,
// e.g. "gndbhwq" -> wq, "apaebmet" -> met, "gndblnut" -> nut.
func CategoryFromStation(station string) DataCategory {
	s := strings.ToLower(strings.TrimSpace(station))
	for _, c := range []DataCategory{CategoryWaterQuality, CategoryMeteorological, CategoryNutrient} {
		if strings.HasSuffix(s, string(c)) {
			return c
		}
	}
	return ""
}

// Series is a normalized observation table for one station. Timestamps are
// strictly increasing; each parameter column has one value per timestamp and
// NaN marks a missing value.
type Series struct {
	Station  string
	Category DataCategory
	Step     time.Duration
	Times    []time.Time
	Columns  map[string][]float64

	// Flags holds unresolved quality flag columns keyed by the parameter they
	// qualify. A non-empty map means QA/QC has not been applied.
	Flags map[string][]string
}

// NewSeries validates the column lengths and ordering and returns a Series.
func NewSeries(station string, category DataCategory, step time.Duration, times []time.Time, columns map[string][]float64) (*Series, error) {
	s := &Series{
		Station:  station,
		Category: category,
		Step:     step,
		Times:    times,
		Columns:  columns,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the schema invariants once, at entry.
func (s *Series) Validate() error {
	if !s.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSeries, s.Category)
	}
	if s.Step < 0 {
		return fmt.Errorf("%w: negative step %s", ErrInvalidSeries, s.Step)
	}
	for i := 1; i < len(s.Times); i++ {
		if !s.Times[i].After(s.Times[i-1]) {
			return fmt.Errorf("%w: timestamps not strictly increasing at row %d", ErrInvalidSeries, i)
		}
	}
	for name, col := range s.Columns {
		if len(col) != len(s.Times) {
			return fmt.Errorf("%w: column %q has %d values for %d timestamps", ErrInvalidSeries, name, len(col), len(s.Times))
		}
	}
	for name, col := range s.Flags {
		if len(col) != len(s.Times) {
			return fmt.Errorf("%w: flag column %q has %d values for %d timestamps", ErrInvalidSeries, name, len(col), len(s.Times))
		}
	}
	return nil
}

// Column returns the values for a parameter, or ErrInvalidParameter when the
// parameter is not part of the schema.
func (s *Series) Column(name string) ([]float64, error) {
	col, ok := s.Columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q not in %s (have %s)", ErrInvalidParameter, name, s.Station, strings.Join(s.Parameters(), ", "))
	}
	return col, nil
}

// Parameters returns the parameter names in sorted order.
func (s *Series) Parameters() []string {
	names := make([]string, 0, len(s.Columns))
	for name := range s.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasQualityFlags reports whether unresolved flag columns are present.
func (s *Series) HasQualityFlags() bool {
	return len(s.Flags) > 0
}

// Span returns the first and last observation timestamps.
func (s *Series) Span() (time.Time, time.Time) {
	if len(s.Times) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Times[0], s.Times[len(s.Times)-1]
}

// Missing is the value stored for an absent observation.
func Missing() float64 { return math.NaN() }
