package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

// Plot area on a landscape A4 page, in millimetres.
const (
	plotLeft   = 25.0
	plotTop    = 30.0
	plotWidth  = 250.0
	plotHeight = 135.0
)

// palette cycles through fill colours per series.
var palette = [][3]int{
	{31, 119, 180},
	{255, 127, 14},
	{44, 160, 44},
	{214, 39, 40},
	{148, 103, 189},
	{140, 86, 75},
	{227, 119, 194},
	{127, 127, 127},
	{188, 189, 34},
	{23, 190, 207},
	{174, 199, 232},
	{255, 187, 120},
}

// BuildChartPDF renders the summary as a grouped bar chart: one group per
// year, one bar per month or season. Year labels are thinned with
// domain.YearTicks as the span grows.
func BuildChartPDF(result domain.Result) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Threshold exceedance events: %s", result.Station))
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, chartSubtitle(result))
	pdf.Ln(6)

	drawChart(pdf, result.Summary)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func chartSubtitle(result domain.Result) string {
	s := fmt.Sprintf("%d events, counted by %s", result.Summary.Total, result.Summary.Granularity)
	for _, r := range result.Rules {
		s += "; " + r.String()
	}
	if result.MinHours > 0 && result.Category.Continuous() {
		s += fmt.Sprintf("; minimum %.4g h", result.MinHours)
	}
	return s
}

func drawChart(pdf *gofpdf.Fpdf, sum domain.Summary) {
	bottom := plotTop + plotHeight
	labels := seriesLabels(sum)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Line(plotLeft, plotTop, plotLeft, bottom)
	pdf.Line(plotLeft, bottom, plotLeft+plotWidth, bottom)

	if len(sum.Years) == 0 {
		pdf.Text(plotLeft+plotWidth/2-15, plotTop+plotHeight/2, "No observations")
		return
	}

	maxCount := 0
	for _, b := range sum.Buckets {
		maxCount = max(maxCount, b.Count)
	}
	yMax := niceCeiling(maxCount)

	pdf.SetFont("Arial", "", 8)
	for _, v := range yAxisTicks(yMax) {
		y := bottom - plotHeight*float64(v)/float64(yMax)
		pdf.Line(plotLeft-1.5, y, plotLeft, y)
		pdf.Text(plotLeft-8, y+1, strconv.Itoa(v))
	}

	groupWidth := plotWidth / float64(len(sum.Years))
	barWidth := groupWidth * 0.8 / float64(len(labels))
	labelled := make(map[int]bool)
	for _, y := range domain.YearTicks(sum.Years) {
		labelled[y] = true
	}

	for yi, year := range sum.Years {
		groupLeft := plotLeft + float64(yi)*groupWidth + groupWidth*0.1
		for li := range labels {
			count := sum.Buckets[yi*len(labels)+li].Count
			if count == 0 {
				continue
			}
			h := plotHeight * float64(count) / float64(yMax)
			c := palette[li%len(palette)]
			pdf.SetFillColor(c[0], c[1], c[2])
			pdf.Rect(groupLeft+float64(li)*barWidth, bottom-h, barWidth, h, "F")
		}
		if labelled[year] {
			center := plotLeft + (float64(yi)+0.5)*groupWidth
			pdf.Line(center, bottom, center, bottom+1.5)
			pdf.Text(center-3.5, bottom+5, strconv.Itoa(year))
		}
	}

	if len(sum.Labels) == 0 {
		return
	}
	x := plotLeft
	legendY := bottom + 12
	for li, l := range labels {
		c := palette[li%len(palette)]
		pdf.SetFillColor(c[0], c[1], c[2])
		pdf.Rect(x, legendY-3, 3, 3, "F")
		pdf.Text(x+4, legendY, l)
		x += 6 + pdf.GetStringWidth(l)
	}
}

// niceCeiling rounds the largest count up so the axis ends on a tick.
func niceCeiling(n int) int {
	if n <= 5 {
		return 5
	}
	step := tickStep(n)
	return int(math.Ceil(float64(n)/float64(step))) * step
}

func tickStep(n int) int {
	raw := float64(n) / 5
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return int(m * mag)
		}
	}
	return int(10 * mag)
}

func yAxisTicks(yMax int) []int {
	step := 1
	if yMax > 5 {
		step = tickStep(yMax)
	}
	ticks := make([]int, 0, yMax/step+1)
	for v := 0; v <= yMax; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}
