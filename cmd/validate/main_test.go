package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

const wqDataset = `{
  "station": "gndbhwq",
  "step": "1h",
  "observations": [
    {"datetimestamp": "2016-07-01T00:00:00Z", "do_mgl": 6.1},
    {"datetimestamp": "2016-07-01T01:00:00Z", "do_mgl": 1.9},
    {"datetimestamp": "2016-07-01T02:00:00Z", "do_mgl": 1.2},
    {"datetimestamp": "2016-07-01T03:00:00Z", "do_mgl": 0.8},
    {"datetimestamp": "2016-07-01T04:00:00Z", "do_mgl": null},
    {"datetimestamp": "2016-07-01T05:00:00Z", "do_mgl": 1.0},
    {"datetimestamp": "2016-07-01T06:00:00Z", "do_mgl": 5.0}
  ]
}`

func writeFixtures(t *testing.T, mutate func(*domain.Result)) string {
	t.Helper()
	dir := t.TempDir()

	series, err := domain.ParseDataset([]byte(wqDataset))
	require.NoError(t, err)
	result, err := domain.Analyze(series, domain.Analysis{
		Rules:   []domain.Rule{{Parameter: "do_mgl", Threshold: 2, Operator: domain.OperatorLess}},
		Detect:  domain.DetectOptions{MinDuration: time.Hour},
		Summary: domain.SummaryOptions{Granularity: domain.GranularitySeason, Seasons: domain.DefaultSeasonPolicy()},
	})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	if mutate != nil {
		mutate(&result)
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gndbhwq_dataset.json"), []byte(wqDataset), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gndbhwq_result.json"), data, 0o600))
	return dir
}

func TestRun_Passes(t *testing.T) {
	var out bytes.Buffer
	code := run(writeFixtures(t, nil), []string{"gndbhwq"}, &out)
	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_DetectsTamperedEvent(t *testing.T) {
	dir := writeFixtures(t, func(r *domain.Result) {
		r.Events[0].Samples = 7
		r.Events[0].DurationHours = 9
	})

	var out bytes.Buffer
	code := run(dir, []string{"gndbhwq"}, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Result reproducible from dataset")
	assert.Contains(t, out.String(), "does not match span")
	assert.Contains(t, out.String(), "samples 7, found 3 in window")
}

func TestRun_DetectsIncompleteGrid(t *testing.T) {
	dir := writeFixtures(t, func(r *domain.Result) {
		r.Summary.Buckets = r.Summary.Buckets[:2]
	})

	var out bytes.Buffer
	assert.Equal(t, 1, run(dir, []string{"gndbhwq"}, &out))
	assert.Contains(t, out.String(), "2 buckets for 1 years x 4 labels")
}

func TestRun_MissingFixture(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run(t.TempDir(), []string{"gndbhwq"}, &out))
	assert.Contains(t, out.String(), "FATAL")
}
