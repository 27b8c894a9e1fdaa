package domain

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStation    = "gndbhwq"
	testNutStation = "gndblnut"
	testParam      = "do_mgl"
)

var baseTime = time.Date(2016, time.July, 1, 0, 0, 0, 0, time.UTC)

func hourlySeries(t *testing.T, station string, values []float64) *Series {
	t.Helper()
	times := make([]time.Time, len(values))
	for i := range values {
		times[i] = baseTime.Add(time.Duration(i) * time.Hour)
	}
	s, err := NewSeries(station, CategoryFromStation(station), time.Hour, times, map[string][]float64{testParam: values})
	require.NoError(t, err)
	return s
}

// tenHourDO has readings 3-6 (1-indexed) below 2 mg/L.
func tenHourDO() []float64 {
	return []float64{6.1, 5.4, 1.9, 1.2, 0.8, 1.5, 4.0, 5.5, 6.3, 7.0}
}

func lowDO() Rule {
	return Rule{Parameter: testParam, Threshold: 2, Operator: OperatorLess}
}

func TestDetect_SingleRunKeptAboveMinimum(t *testing.T) {
	s := hourlySeries(t, testStation, tenHourDO())

	table, err := Detect(s, []Rule{lowDO()}, DetectOptions{MinDuration: 2 * time.Hour})
	require.NoError(t, err)
	require.Len(t, table.Events, 1)

	ev := table.Events[0]
	assert.Equal(t, baseTime.Add(2*time.Hour), ev.Start)
	assert.Equal(t, baseTime.Add(5*time.Hour), ev.End)
	assert.Equal(t, 3*time.Hour, ev.Duration)
	assert.Equal(t, 3.0, ev.DurationHours)
	assert.Equal(t, 4, ev.Samples)
	assert.Equal(t, testParam, ev.Parameter)
	assert.Equal(t, testStation, ev.Station)
	assert.Empty(t, table.Warnings)
}

func TestDetect_RunBelowMinimumDropped(t *testing.T) {
	s := hourlySeries(t, testStation, tenHourDO())

	table, err := Detect(s, []Rule{lowDO()}, DetectOptions{MinDuration: 4 * time.Hour})
	require.NoError(t, err)
	assert.Empty(t, table.Events)
}

func TestDetect_RepeatedRuleYieldsUniqueIDs(t *testing.T) {
	s := hourlySeries(t, testStation, tenHourDO())
	stricter := Rule{Parameter: testParam, Threshold: 1.6, Operator: OperatorLess}

	table, err := Detect(s, []Rule{lowDO(), stricter, lowDO()}, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, table.Events, 2)

	ids := map[string]bool{}
	for _, ev := range table.Events {
		assert.False(t, ids[ev.ID], "duplicate event id %s", ev.ID)
		ids[ev.ID] = true
	}
}

func TestDetect_UnknownParameter(t *testing.T) {
	s := hourlySeries(t, testStation, tenHourDO())
	rules := []Rule{lowDO(), {Parameter: "turbidity", Threshold: 25, Operator: OperatorGreater}}

	table, err := Detect(s, rules, DetectOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	assert.Contains(t, err.Error(), "turbidity")
	assert.Empty(t, table.Events)
}

func TestDetect_MissingValuesNeverFlagged(t *testing.T) {
	nan := math.NaN()
	s := hourlySeries(t, testStation, []float64{1, nan, 1, 5, nan, nan})

	table, err := Detect(s, []Rule{lowDO()}, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, table.Events, 2)
	assert.Equal(t, 1, table.Events[0].Samples)
	assert.Equal(t, 1, table.Events[1].Samples)

	notEqual := Rule{Parameter: testParam, Threshold: 5, Operator: OperatorNotEqual}
	table, err = Detect(s, []Rule{notEqual}, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, table.Events, 2, "NaN != 5 must not flag")
}

func TestDetect_PeriodicDataBypassesDurationFilter(t *testing.T) {
	values := []float64{0.02, 0.15, 0.2, 0.01, 0.3}
	times := make([]time.Time, len(values))
	for i := range values {
		times[i] = baseTime.AddDate(0, i, 0)
	}
	s, err := NewSeries(testNutStation, CategoryNutrient, 0, times, map[string][]float64{"po4f": values})
	require.NoError(t, err)

	rule := Rule{Parameter: "po4f", Threshold: 0.1, Operator: OperatorGreaterOrEqual}
	for _, d := range []time.Duration{0, time.Hour, 24 * 365 * time.Hour} {
		table, err := Detect(s, []Rule{rule}, DetectOptions{MinDuration: d})
		require.NoError(t, err)
		require.Len(t, table.Events, 3, "min duration %s", d)
		for _, ev := range table.Events {
			assert.Equal(t, ev.Start, ev.End)
			assert.Zero(t, ev.Duration)
		}
	}
}

func TestDetect_QualityFlagsWarn(t *testing.T) {
	s := hourlySeries(t, testStation, tenHourDO())
	s.Flags = map[string][]string{testParam: make([]string, len(s.Times))}

	table, err := Detect(s, []Rule{lowDO()}, DetectOptions{})
	require.NoError(t, err)
	require.Len(t, table.Warnings, 1)
	assert.Equal(t, WarningDataQuality, table.Warnings[0].Kind)
	assert.Len(t, table.Events, 1)
}

func TestDetect_SortedByParameterThenStart(t *testing.T) {
	times := make([]time.Time, 6)
	for i := range times {
		times[i] = baseTime.Add(time.Duration(i) * 15 * time.Minute)
	}
	s, err := NewSeries(testStation, CategoryWaterQuality, 15*time.Minute, times, map[string][]float64{
		"temp":   {31, 32, 25, 26, 33, 20},
		"do_mgl": {1, 5, 1, 5, 5, 1},
	})
	require.NoError(t, err)

	rules := []Rule{
		{Parameter: "temp", Threshold: 30, Operator: OperatorGreater},
		lowDO(),
	}
	table, err := Detect(s, rules, DetectOptions{})
	require.NoError(t, err)

	type key struct {
		Param string
		Start time.Time
	}
	got := make([]key, len(table.Events))
	for i, ev := range table.Events {
		got[i] = key{ev.Parameter, ev.Start}
	}
	want := []key{
		{"do_mgl", times[0]},
		{"do_mgl", times[2]},
		{"do_mgl", times[5]},
		{"temp", times[0]},
		{"temp", times[4]},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	s := hourlySeries(t, testStation, tenHourDO())
	opts := DetectOptions{MinDuration: time.Hour}

	first, err := Detect(s, []Rule{lowDO()}, opts)
	require.NoError(t, err)
	second, err := Detect(s, []Rule{lowDO()}, opts)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestDetect_NegativeMinimum(t *testing.T) {
	s := hourlySeries(t, testStation, tenHourDO())
	_, err := Detect(s, []Rule{lowDO()}, DetectOptions{MinDuration: -time.Hour})
	require.Error(t, err)
}

func TestDetect_RandomSequencesCoverFlaggedSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(60)
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(rng.Intn(4))
		}
		s := hourlySeries(t, testStation, values)

		flags := flagSamples(values, lowDO())
		runs := Runs(flags)

		table, err := Detect(s, []Rule{lowDO()}, DetectOptions{})
		require.NoError(t, err)
		require.Len(t, table.Events, len(runs))

		covered := make([]int, n)
		for _, ev := range table.Events {
			for i, ts := range s.Times {
				if !ts.Before(ev.Start) && !ts.After(ev.End) {
					covered[i]++
				}
			}
		}
		for i, f := range flags {
			if f {
				assert.Equal(t, 1, covered[i], "trial %d sample %d", trial, i)
			} else {
				assert.Equal(t, 0, covered[i], "trial %d sample %d", trial, i)
			}
		}

		minDur := time.Duration(rng.Intn(5)) * time.Hour
		filtered, err := Detect(s, []Rule{lowDO()}, DetectOptions{MinDuration: minDur})
		require.NoError(t, err)
		for _, ev := range filtered.Events {
			assert.GreaterOrEqual(t, ev.Duration, minDur)
		}
	}
}

func TestRuns(t *testing.T) {
	tests := []struct {
		name  string
		flags []bool
		want  []Run
	}{
		{"empty", nil, nil},
		{"all false", []bool{false, false}, nil},
		{"all true", []bool{true, true, true}, []Run{{0, 3}}},
		{"leading and trailing", []bool{true, false, false, true}, []Run{{0, 1}, {3, 4}}},
		{"middle", []bool{false, true, true, false}, []Run{{1, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Runs(tt.flags))
		})
	}
}

func TestGenerateID(t *testing.T) {
	r := lowDO()
	id1 := generateID(testStation, r, baseTime)
	id2 := generateID(testStation, r, baseTime)
	id3 := generateID(testStation, r, baseTime.Add(time.Minute))

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Regexp(t, `^do_mgl-[0-9a-f]{16}$`, id1)
}
