package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataset(t *testing.T) {
	t.Run("water quality with flags", func(t *testing.T) {
		data := []byte(`{"station":"gndbhwq","step":"15m","observations":[
			{"datetimestamp":"2016-07-01T00:15:00Z","do_mgl":1.8,"temp":29.1,"f_do_mgl":"<0>"},
			{"datetimestamp":"2016-07-01T00:00:00Z","do_mgl":2.4,"temp":29.0,"f_do_mgl":"<0>"},
			{"datetimestamp":"2016-07-01T00:30:00Z","do_mgl":null,"f_do_mgl":"<-2> [GIM]"}
		]}`)

		s, err := ParseDataset(data)
		require.NoError(t, err)

		assert.Equal(t, "gndbhwq", s.Station)
		assert.Equal(t, CategoryWaterQuality, s.Category)
		assert.Equal(t, 15*time.Minute, s.Step)
		require.Len(t, s.Times, 3)
		assert.Equal(t, time.Date(2016, 7, 1, 0, 0, 0, 0, time.UTC), s.Times[0])
		assert.Equal(t, []string{"do_mgl", "temp"}, s.Parameters())

		do, err := s.Column("do_mgl")
		require.NoError(t, err)
		assert.Equal(t, 2.4, do[0])
		assert.Equal(t, 1.8, do[1])
		assert.True(t, math.IsNaN(do[2]))

		temp, err := s.Column("temp")
		require.NoError(t, err)
		assert.True(t, math.IsNaN(temp[2]), "absent key is missing")

		assert.True(t, s.HasQualityFlags())
		assert.Equal(t, "<-2> [GIM]", s.Flags["do_mgl"][2])
	})

	t.Run("nutrient category from explicit field", func(t *testing.T) {
		data := []byte(`{"station":"gndbl","category":"NUT","observations":[
			{"datetimestamp":"2016-01-12T10:00:00Z","po4f":0.02},
			{"datetimestamp":"2016-02-09T10:00:00Z","po4f":0.05}
		]}`)

		s, err := ParseDataset(data)
		require.NoError(t, err)
		assert.Equal(t, CategoryNutrient, s.Category)
		assert.False(t, s.HasQualityFlags())
		assert.Equal(t, 28*24*time.Hour, s.Step, "step inferred from first interval")
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		data := []byte(`{"station":"gndbhwq","observations":[
			{"datetimestamp":"2016-07-01T00:00:00Z","do_mgl":1},
			{"datetimestamp":"2016-07-01T00:00:00Z","do_mgl":2}
		]}`)
		_, err := ParseDataset(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSeries))
		assert.Contains(t, err.Error(), "duplicate timestamp")
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := ParseDataset([]byte(`{"station":"gndbh","observations":[]}`))
		assert.ErrorIs(t, err, ErrInvalidSeries)
	})

	t.Run("missing time column", func(t *testing.T) {
		_, err := ParseDataset([]byte(`{"station":"gndbhwq","observations":[{"do_mgl":1}]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "datetimestamp")
	})

	t.Run("non numeric value", func(t *testing.T) {
		_, err := ParseDataset([]byte(`{"station":"gndbhwq","observations":[{"datetimestamp":"2016-07-01T00:00:00Z","do_mgl":"low"}]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "do_mgl")
	})

	t.Run("invalid step", func(t *testing.T) {
		_, err := ParseDataset([]byte(`{"station":"gndbhwq","step":"soon","observations":[]}`))
		assert.ErrorIs(t, err, ErrInvalidSeries)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseDataset([]byte("{invalid json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse dataset")
	})
}

func TestCategoryFromStation(t *testing.T) {
	tests := []struct {
		station  string
		expected DataCategory
	}{
		{"gndbhwq", CategoryWaterQuality},
		{"APAEBMET", CategoryMeteorological},
		{"gndblnut", CategoryNutrient},
		{"gndbh", ""},
	}
	for _, tt := range tests {
		t.Run(tt.station, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryFromStation(tt.station))
		})
	}
}

func TestSeriesValidate(t *testing.T) {
	times := []time.Time{baseTime, baseTime.Add(time.Hour)}

	_, err := NewSeries(testStation, CategoryWaterQuality, time.Hour, times, map[string][]float64{"do_mgl": {1}})
	assert.ErrorIs(t, err, ErrInvalidSeries)

	_, err = NewSeries(testStation, CategoryWaterQuality, time.Hour, []time.Time{times[1], times[0]}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeries)

	_, err = NewSeries(testStation, "sonde", time.Hour, times, nil)
	assert.ErrorIs(t, err, ErrInvalidSeries)
}
