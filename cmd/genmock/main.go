// Command genmock generates synthetic SWMP datasets and the analysis results
// they produce. The results are computed with the domain package itself, so
// fixtures always match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/mock \
//	  -start-year 2014 -years 3 -seed 7
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wq-threshold-etl/internal/config"
	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

// observation is one row of the wire dataset.
type observation map[string]any

type fixture struct {
	station  string
	step     time.Duration
	generate func(start time.Time, n int, rng *rand.Rand) []observation
	analysis domain.Analysis
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "directory for dataset and result fixtures")
	startYear := flag.Int("start-year", 2014, "first calendar year of the generated series")
	years := flag.Int("years", 3, "number of years to generate")
	seed := flag.Uint64("seed", 7, "random seed")
	flag.Parse()

	if *years < 1 {
		return fmt.Errorf("-years must be at least 1")
	}

	// Fixed clock for reproducible AnalyzedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(*startYear+*years, time.January, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	seasonal := config.DefaultAnalysis()
	seasonal.Summary.Granularity = domain.GranularitySeason

	chla := domain.Analysis{
		Rules:   []domain.Rule{{Parameter: "chla_n", Threshold: 20, Operator: domain.OperatorGreater}},
		Summary: domain.SummaryOptions{Granularity: domain.GranularityYear, Seasons: domain.DefaultSeasonPolicy()},
	}

	fixtures := []fixture{
		{station: "gndbhwq", step: time.Hour, generate: waterQuality, analysis: seasonal},
		{station: "gndblnut", step: 0, generate: nutrients, analysis: chla},
	}

	start := time.Date(*startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(*startYear+*years, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i, f := range fixtures {
		rng := rand.New(rand.NewPCG(*seed, uint64(i)))

		n := *years * 12
		if f.step > 0 {
			n = int(end.Sub(start) / f.step)
		}
		ds := map[string]any{
			"station":      f.station,
			"observations": f.generate(start, n, rng),
		}
		if f.step > 0 {
			ds["step"] = f.step.String()
		}

		data, err := json.Marshal(ds)
		if err != nil {
			return err
		}
		series, err := domain.ParseDataset(data)
		if err != nil {
			return fmt.Errorf("%s: %w", f.station, err)
		}
		result, err := domain.Analyze(series, f.analysis)
		if err != nil {
			return fmt.Errorf("%s: %w", f.station, err)
		}
		result.ID = fmt.Sprintf("%s-%d", f.station, *seed)

		if err := writeJSON(filepath.Join(*outDir, f.station+"_dataset.json"), ds); err != nil {
			return fmt.Errorf("writing dataset fixture: %w", err)
		}
		if err := writeJSON(filepath.Join(*outDir, f.station+"_result.json"), result); err != nil {
			return fmt.Errorf("writing result fixture: %w", err)
		}
		printStats(result)
	}
	return nil
}

// waterQuality produces hourly dissolved oxygen with a diurnal swing, lower
// saturation in warm months and occasional multi-hour hypoxic dips. About
// one percent of readings are missing.
func waterQuality(start time.Time, n int, rng *rand.Rand) []observation {
	obs := make([]observation, n)
	dip := 0
	for i := range obs {
		at := start.Add(time.Duration(i) * time.Hour)
		seasonal := math.Cos(2 * math.Pi * float64(at.YearDay()-200) / 365)
		diurnal := math.Sin(2 * math.Pi * float64(at.Hour()-9) / 24)
		do := 7.5 - 2.5*seasonal + 1.2*diurnal + rng.NormFloat64()*0.3

		if dip == 0 && seasonal > 0.6 && at.Hour() == 3 && rng.Float64() < 0.08 {
			dip = 2 + rng.IntN(6)
		}
		if dip > 0 {
			do = 0.5 + rng.Float64()*1.3
			dip--
		}

		row := observation{
			"datetimestamp": at.Format(time.RFC3339),
			"temp":          round(22 + 8*seasonal + rng.NormFloat64()*0.5),
			"f_do_mgl":      "<0>",
		}
		if rng.Float64() < 0.01 {
			row["do_mgl"] = nil
			row["f_do_mgl"] = "<-2>"
		} else {
			row["do_mgl"] = round(math.Max(do, 0))
		}
		obs[i] = row
	}
	return obs
}

// nutrients produces one grab sample per month with chlorophyll blooms in
// late summer.
func nutrients(start time.Time, n int, rng *rand.Rand) []observation {
	obs := make([]observation, n)
	for i := range obs {
		at := start.AddDate(0, i, 14+rng.IntN(5)).Add(time.Duration(9+rng.IntN(4)) * time.Hour)
		chla := 6 + rng.Float64()*8
		if m := at.Month(); m >= time.July && m <= time.September && rng.Float64() < 0.5 {
			chla += 12 + rng.Float64()*15
		}
		obs[i] = observation{
			"datetimestamp": at.Format(time.RFC3339),
			"chla_n":        round(chla),
			"po4f":          round(0.01 + rng.Float64()*0.05),
		}
	}
	return obs
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(result domain.Result) {
	log.Printf("%s (%s): %d events, %s", result.Station, result.Category, len(result.Events), result.Summary.Granularity)
	for yi, year := range result.Summary.Years {
		width := max(len(result.Summary.Labels), 1)
		row := result.Summary.Buckets[yi*width : (yi+1)*width]
		counts := make([]int, len(row))
		for i, b := range row {
			counts[i] = b.Count
		}
		log.Printf("  %d: %v", year, counts)
	}
	for _, w := range result.Warnings {
		log.Printf("  warning: %s", w)
	}
}
