// Command validate checks the integrity of dataset and result fixtures
// produced by genmock: the result must be reproducible from the dataset,
// every event must satisfy its rule, and the summary grid must be complete
// and consistent with the event table.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dir data/mock \
//	  -stations gndbhwq,gndblnut
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// fixturePair is one station's dataset and the result recorded for it.
type fixturePair struct {
	station string
	series  *domain.Series
	result  domain.Result
}

func main() {
	dir := flag.String("dir", "data/mock", "directory containing genmock fixtures")
	stations := flag.String("stations", "gndbhwq,gndblnut", "comma-separated station codes to validate")
	flag.Parse()

	if *dir == "" || *stations == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, strings.Split(*stations, ","), os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, stations []string, out io.Writer) int {
	fmt.Fprintln(out, "=== Threshold Fixture Integrity Validation ===")
	fmt.Fprintln(out)

	pairs := make([]fixturePair, 0, len(stations))
	for _, s := range stations {
		pair, err := loadPair(dir, strings.TrimSpace(s))
		if err != nil {
			fmt.Fprintf(out, "FATAL: %s: %v\n", s, err)
			return 1
		}
		pairs = append(pairs, pair)
	}

	phases := []*phase{
		validateReproducible(pairs),
		validateEvents(pairs),
		validateSummary(pairs),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	events := 0
	for _, pr := range pairs {
		events += len(pr.result.Events)
	}
	fmt.Fprintf(out, "Fixtures: %d stations, %d events\n", len(pairs), events)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadPair(dir, station string) (fixturePair, error) {
	data, err := os.ReadFile(filepath.Join(dir, station+"_dataset.json"))
	if err != nil {
		return fixturePair{}, err
	}
	series, err := domain.ParseDataset(data)
	if err != nil {
		return fixturePair{}, err
	}

	data, err = os.ReadFile(filepath.Join(dir, station+"_result.json"))
	if err != nil {
		return fixturePair{}, err
	}
	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return fixturePair{}, fmt.Errorf("decode result: %w", err)
	}
	return fixturePair{station: station, series: series, result: result}, nil
}

// analysisOf reconstructs the analysis that produced a result. Season
// results are assumed to use the default policy.
func analysisOf(r domain.Result) domain.Analysis {
	seasons := domain.DefaultSeasonPolicy()
	return domain.Analysis{
		Rules:  r.Rules,
		Detect: domain.DetectOptions{MinDuration: time.Duration(r.MinHours * float64(time.Hour))},
		Summary: domain.SummaryOptions{
			Granularity:       r.Summary.Granularity,
			Seasons:           seasons,
			AbbreviateSeasons: slices.Equal(r.Summary.Labels, seasons.Labels(true)),
		},
	}
}

// ── Phases ──

// validateReproducible re-runs the analysis on each dataset and diffs the
// output against the recorded result.
func validateReproducible(pairs []fixturePair) *phase {
	p := &phase{name: "Result reproducible from dataset"}
	for _, pr := range pairs {
		got, err := domain.Analyze(pr.series, analysisOf(pr.result))
		if err != nil {
			p.errorf("%s: analyze: %v", pr.station, err)
			continue
		}
		diff := cmp.Diff(pr.result, got,
			cmpopts.IgnoreFields(domain.Result{}, "ID", "AnalyzedAt"),
			cmpopts.IgnoreFields(domain.Event{}, "Duration"),
			cmpopts.IgnoreFields(domain.Summary{}, "Warnings"),
			cmpopts.EquateEmpty(),
			cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
		)
		if diff != "" {
			p.errorf("%s: result mismatch (-recorded +recomputed):\n%s", pr.station, diff)
		}
	}
	return p
}

// validateEvents checks each event against its rule and the series.
func validateEvents(pairs []fixturePair) *phase {
	p := &phase{name: "Events satisfy their rules"}
	for _, pr := range pairs {
		minHours := pr.result.MinHours
		for i, ev := range pr.result.Events {
			pf := func(format string, args ...any) {
				p.errorf("%s event %d (%s): %s", pr.station, i, ev.ID, fmt.Sprintf(format, args...))
			}

			if ev.End.Before(ev.Start) {
				pf("end %s before start %s", ev.End, ev.Start)
			}
			if h := ev.End.Sub(ev.Start).Hours(); !floatEq(h, ev.DurationHours) {
				pf("duration_hours %.4g does not match span %.4g", ev.DurationHours, h)
			}
			if pr.series.Category.Continuous() && minHours > 0 && ev.DurationHours < minHours {
				pf("duration %.4gh below minimum %.4gh", ev.DurationHours, minHours)
			}
			if i > 0 {
				prev := pr.result.Events[i-1]
				if prev.Parameter > ev.Parameter || (prev.Parameter == ev.Parameter && prev.Start.After(ev.Start)) {
					pf("out of order after %s", prev.ID)
				}
			}
			checkSamples(pr.series, ev, pf)
		}
	}
	return p
}

// checkSamples verifies every sample inside the event window satisfies the
// rule and the sample count matches.
func checkSamples(s *domain.Series, ev domain.Event, pf func(string, ...any)) {
	col, err := s.Column(ev.Parameter)
	if err != nil {
		pf("%v", err)
		return
	}
	n := 0
	for i, at := range s.Times {
		if at.Before(ev.Start) || at.After(ev.End) {
			continue
		}
		n++
		if math.IsNaN(col[i]) || !ev.Rule.Operator.Compare(col[i], ev.Rule.Threshold) {
			pf("sample at %s (%v) does not satisfy %s", at.Format(time.RFC3339), col[i], ev.Rule)
		}
	}
	if n != ev.Samples {
		pf("samples %d, found %d in window", ev.Samples, n)
	}
}

// validateSummary checks the bucket grid shape and totals.
func validateSummary(pairs []fixturePair) *phase {
	p := &phase{name: "Summary grid complete and consistent"}
	for _, pr := range pairs {
		sum := pr.result.Summary
		width := max(len(sum.Labels), 1)

		if len(sum.Buckets) != len(sum.Years)*width {
			p.errorf("%s: %d buckets for %d years x %d labels", pr.station, len(sum.Buckets), len(sum.Years), width)
			continue
		}
		for i := 1; i < len(sum.Years); i++ {
			if sum.Years[i] != sum.Years[i-1]+1 {
				p.errorf("%s: years not contiguous at %d", pr.station, sum.Years[i])
			}
		}
		if len(sum.Years) > 0 {
			if start, _ := pr.series.Span(); start.Year() != sum.Years[0] {
				p.errorf("%s: first year %d, series starts in %d", pr.station, sum.Years[0], start.Year())
			}
		}

		total := 0
		for i, b := range sum.Buckets {
			if want := sum.Years[i/width]; b.Year != want {
				p.errorf("%s: bucket %d has year %d, want %d", pr.station, i, b.Year, want)
			}
			total += b.Count
		}
		if total != sum.Total {
			p.errorf("%s: bucket counts sum to %d, total is %d", pr.station, total, sum.Total)
		}
		if sum.Total != len(pr.result.Events) {
			p.errorf("%s: total %d, %d events", pr.station, sum.Total, len(pr.result.Events))
		}
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
