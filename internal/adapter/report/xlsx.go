package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

const (
	resultSheet  = "result"
	eventsSheet  = "events"
	summarySheet = "summary"
)

// BuildXLSX renders a result as a workbook with result metadata, the event
// table, the bucket grid pivoted by year and a clustered column chart.
func BuildXLSX(result domain.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory file

	if err := f.SetSheetName("Sheet1", resultSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(eventsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	writeResultSheet(f, result)
	writeEventsSheet(f, result.Events)
	if err := writeSummarySheet(f, result.Summary); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeResultSheet(f *excelize.File, result domain.Result) {
	rules := make([]string, len(result.Rules))
	for i, r := range result.Rules {
		rules[i] = r.String()
	}

	rows := [][2]any{
		{"Threshold Exceedance Analysis", ""},
		{"Result ID", result.ID},
		{"Station", result.Station},
		{"Category", string(result.Category)},
		{"Rules", strings.Join(rules, "; ")},
		{"Minimum duration (h)", result.MinHours},
		{"Observed from", formatTime(result.SpanStart)},
		{"Observed to", formatTime(result.SpanEnd)},
		{"Granularity", string(result.Summary.Granularity)},
		{"Events", len(result.Events)},
		{"Analyzed at", formatTime(result.AnalyzedAt)},
	}
	for i, r := range rows {
		_ = f.SetCellValue(resultSheet, fmt.Sprintf("A%d", i+1), r[0])
		_ = f.SetCellValue(resultSheet, fmt.Sprintf("B%d", i+1), r[1])
	}

	row := len(rows) + 2
	for _, w := range result.Warnings {
		_ = f.SetCellValue(resultSheet, fmt.Sprintf("A%d", row), "Warning")
		_ = f.SetCellValue(resultSheet, fmt.Sprintf("B%d", row), w.String())
		row++
	}
}

func writeEventsSheet(f *excelize.File, events []domain.Event) {
	header := []string{"ID", "Parameter", "Rule", "Start", "End", "Duration (h)", "Samples"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(eventsSheet, cell, h)
	}
	for i, ev := range events {
		row := i + 2
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("A%d", row), ev.ID)
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("B%d", row), ev.Parameter)
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("C%d", row), ev.Rule.String())
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("D%d", row), formatTime(ev.Start))
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("E%d", row), formatTime(ev.End))
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("F%d", row), ev.DurationHours)
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("G%d", row), ev.Samples)
	}
}

// writeSummarySheet lays the grid out with one row per year and one column
// per label, then charts each label column as a series over the years.
func writeSummarySheet(f *excelize.File, sum domain.Summary) error {
	labels := seriesLabels(sum)

	_ = f.SetCellValue(summarySheet, "A1", "Year")
	for i, l := range labels {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(summarySheet, cell, l)
	}
	for yi, year := range sum.Years {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", yi+2), year)
		for li := range labels {
			cell, _ := excelize.CoordinatesToCellName(li+2, yi+2)
			_ = f.SetCellValue(summarySheet, cell, sum.Buckets[yi*len(labels)+li].Count)
		}
	}

	if len(sum.Years) == 0 {
		return nil
	}

	lastRow := len(sum.Years) + 1
	series := make([]excelize.ChartSeries, len(labels))
	for i := range labels {
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		series[i] = excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", summarySheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", summarySheet, lastRow),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", summarySheet, col, col, lastRow),
		}
	}

	anchor, _ := excelize.CoordinatesToCellName(len(labels)+3, 2)
	return f.AddChart(summarySheet, anchor, &excelize.Chart{
		Type:   excelize.Col,
		Series: series,
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}

// seriesLabels returns the per-year column labels; yearly summaries have a
// single "Events" column.
func seriesLabels(sum domain.Summary) []string {
	if len(sum.Labels) == 0 {
		return []string{"Events"}
	}
	return sum.Labels
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
