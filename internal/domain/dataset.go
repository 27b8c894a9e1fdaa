package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	timeColumn = "datetimestamp"
	flagPrefix = "f_"
)

// Dataset is the wire form of one station's observations as published by the
// upstream QA/QC and resampling step.
type Dataset struct {
	Station      string                       `json:"station"`
	Category     string                       `json:"category,omitempty"`
	Step         string                       `json:"step,omitempty"`
	Observations []map[string]json.RawMessage `json:"observations"`
}

// ParseDataset decodes a JSON dataset into a validated Series.
//
// Each observation carries a "datetimestamp" (RFC 3339), numeric parameter
// columns and optional "f_<param>" quality flag columns. A JSON null or an
// absent key is a missing value. Rows are sorted by time; duplicate
// timestamps are rejected.
func ParseDataset(data []byte) (*Series, error) {
	var ds Dataset
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return ds.Series()
}

// Series converts the wire form into a Series.
func (ds Dataset) Series() (*Series, error) {
	category := DataCategory(strings.ToLower(strings.TrimSpace(ds.Category)))
	if category == "" {
		category = CategoryFromStation(ds.Station)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: cannot determine data category for station %q", ErrInvalidSeries, ds.Station)
	}

	rows, err := decodeRows(ds.Observations)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })

	times := make([]time.Time, len(rows))
	for i, r := range rows {
		if i > 0 && r.at.Equal(rows[i-1].at) {
			return nil, fmt.Errorf("%w: duplicate timestamp %s", ErrInvalidSeries, r.at.Format(time.RFC3339))
		}
		times[i] = r.at
	}

	columns := make(map[string][]float64)
	flags := make(map[string][]string)
	for i, r := range rows {
		for name, v := range r.values {
			col, ok := columns[name]
			if !ok {
				col = newMissingColumn(len(rows))
				columns[name] = col
			}
			col[i] = v
		}
		for name, f := range r.flags {
			col, ok := flags[name]
			if !ok {
				col = make([]string, len(rows))
				flags[name] = col
			}
			col[i] = f
		}
	}

	step, err := parseStep(ds.Step, times)
	if err != nil {
		return nil, err
	}

	s := &Series{
		Station:  ds.Station,
		Category: category,
		Step:     step,
		Times:    times,
		Columns:  columns,
	}
	if len(flags) > 0 {
		s.Flags = flags
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

type row struct {
	at     time.Time
	values map[string]float64
	flags  map[string]string
}

func decodeRows(observations []map[string]json.RawMessage) ([]row, error) {
	rows := make([]row, 0, len(observations))
	for i, obs := range observations {
		r := row{values: make(map[string]float64), flags: make(map[string]string)}

		rawTime, ok := obs[timeColumn]
		if !ok {
			return nil, fmt.Errorf("%w: observation %d has no %s", ErrInvalidSeries, i, timeColumn)
		}
		if err := json.Unmarshal(rawTime, &r.at); err != nil {
			return nil, fmt.Errorf("%w: observation %d: %v", ErrInvalidSeries, i, err)
		}

		for key, raw := range obs {
			if key == timeColumn {
				continue
			}
			if strings.HasPrefix(key, flagPrefix) {
				var f string
				if !isNull(raw) {
					if err := json.Unmarshal(raw, &f); err != nil {
						return nil, fmt.Errorf("%w: observation %d flag %s: %v", ErrInvalidSeries, i, key, err)
					}
				}
				r.flags[strings.TrimPrefix(key, flagPrefix)] = f
				continue
			}

			v := Missing()
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &v); err != nil {
					return nil, fmt.Errorf("%w: observation %d column %s: %v", ErrInvalidSeries, i, key, err)
				}
			}
			r.values[key] = v
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func newMissingColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = Missing()
	}
	return col
}

// parseStep uses the declared step when present, otherwise the first
// interval between observations.
func parseStep(declared string, times []time.Time) (time.Duration, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" {
		d, err := time.ParseDuration(declared)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("%w: invalid step %q", ErrInvalidSeries, declared)
		}
		return d, nil
	}
	if len(times) < 2 {
		return 0, nil
	}
	return times[1].Sub(times[0]), nil
}
