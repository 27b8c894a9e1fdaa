// Command analyze runs threshold exceedance detection over a dataset file
// without Kafka and writes the result as JSON, optionally with XLSX and PDF
// reports.
//
// Usage:
//
//	go run ./cmd/analyze \
//	  -in data/mock/gndbhwq_2016.json \
//	  -config analysis.yaml \
//	  -out result.json -xlsx result.xlsx -pdf result.pdf
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/couchcryptid/wq-threshold-etl/internal/adapter/report"
	"github.com/couchcryptid/wq-threshold-etl/internal/config"
	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	in := fs.String("in", "", "dataset JSON file")
	cfgPath := fs.String("config", "", "analysis YAML file (default: dissolved oxygen below 2 mg/L for 2h, yearly)")
	out := fs.String("out", "", "result JSON output path (default: stdout)")
	xlsxPath := fs.String("xlsx", "", "optional XLSX report path")
	pdfPath := fs.String("pdf", "", "optional PDF chart path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return errors.New("missing required flag: -in")
	}

	analysis := config.DefaultAnalysis()
	if *cfgPath != "" {
		a, err := config.LoadAnalysis(*cfgPath)
		if err != nil {
			return fmt.Errorf("load analysis: %w", err)
		}
		analysis = a
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	series, err := domain.ParseDataset(data)
	if err != nil {
		return err
	}
	result, err := domain.Analyze(series, analysis)
	if err != nil {
		return err
	}
	result.ID = uuid.NewString()

	for _, w := range result.Warnings {
		log.Printf("warning: %s", w)
	}
	log.Printf("%s: %d events over %d years", result.Station, len(result.Events), len(result.Summary.Years))

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')
	if *out == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return err
		}
	} else if err := os.WriteFile(*out, encoded, 0o600); err != nil {
		return err
	}

	if err := writeReport(*xlsxPath, result, report.BuildXLSX); err != nil {
		return fmt.Errorf("xlsx report: %w", err)
	}
	if err := writeReport(*pdfPath, result, report.BuildChartPDF); err != nil {
		return fmt.Errorf("pdf report: %w", err)
	}
	return nil
}

func writeReport(path string, result domain.Result, build func(domain.Result) ([]byte, error)) error {
	if path == "" {
		return nil
	}
	data, err := build(result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
