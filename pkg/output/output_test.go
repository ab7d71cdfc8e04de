package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/yawlog/pkg/config"
	"github.com/ccollicutt/yawlog/pkg/filter"
	"github.com/ccollicutt/yawlog/pkg/pipeline"
	"github.com/ccollicutt/yawlog/pkg/record"
	"github.com/ccollicutt/yawlog/pkg/series"
)

func createTestResult() *pipeline.Result {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return &pipeline.Result{
		Label:        "bag1",
		Input:        "yaw.txt",
		IDCount:      2,
		FilteredPath: "out/bag1/filtered_yaw_output.txt",
		ImagePath:    "out/images/bag1_yaw_plot.png",
		Variant:      record.SchemaNameYaw,
		Stats: &filter.Stats{
			LinesRead:  10,
			Kept:       3,
			Duplicates: 2,
			Rejected:   4,
			NoID:       1,
		},
		Series: &series.Series{
			Schema:  record.SchemaNameYaw,
			Columns: []string{"time", "yaw", "yaw3d"},
			Data: [][]float64{
				{1, 2, 3},
				{-1, 0, 1},
				{2, 2, 2},
			},
			Skipped: []*record.MalformedError{
				{Source: "f.txt", LineNum: 4, Line: "bad\n", Err: errors.New("column yaw: missing")},
			},
		},
		Warnings:  []string{"something odd"},
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport(createTestResult(), "run.yaml")

	if report.Summary.Kept != 3 || report.Summary.Samples != 3 {
		t.Errorf("Summary = %+v", report.Summary)
	}
	if report.Metadata.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", report.Metadata.Duration)
	}
	if report.Metadata.ConfigFile != "run.yaml" {
		t.Errorf("ConfigFile = %q", report.Metadata.ConfigFile)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Line != 4 {
		t.Errorf("Skipped = %+v", report.Skipped)
	}
	if !report.HasRecords() {
		t.Error("HasRecords() = false, want true")
	}
}

func TestDescribe(t *testing.T) {
	report := NewReport(createTestResult(), "")

	if len(report.Columns) != 3 {
		t.Fatalf("len(Columns) = %d, want 3", len(report.Columns))
	}

	yaw := report.Columns[1]
	if yaw.Name != "yaw" || yaw.Count != 3 {
		t.Errorf("yaw = %+v", yaw)
	}
	if yaw.Min != -1 || yaw.Max != 1 || yaw.Mean != 0 {
		t.Errorf("yaw min/max/mean = %v/%v/%v", yaw.Min, yaw.Max, yaw.Mean)
	}
	if math.Abs(yaw.StdDev-1) > 1e-12 {
		t.Errorf("yaw stddev = %v, want 1", yaw.StdDev)
	}

	if report.Columns[2].StdDev != 0 {
		t.Errorf("constant column stddev = %v, want 0", report.Columns[2].StdDev)
	}
}

func TestDescribe_Empty(t *testing.T) {
	s := &series.Series{Columns: []string{"time", "yaw"}, Data: [][]float64{nil, nil}}
	cols := Describe(s)
	for _, c := range cols {
		if c.Count != 0 || c.Min != 0 || c.StdDev != 0 {
			t.Errorf("empty column = %+v, want zeros", c)
		}
	}
}

func TestDescribe_NonFinite(t *testing.T) {
	s := &series.Series{
		Columns: []string{"time", "yaw"},
		Data: [][]float64{
			{1, 2, 3, 4},
			{math.NaN(), 2, math.Inf(-1), 4},
		},
	}
	yaw := Describe(s)[1]
	if yaw.Count != 4 || yaw.NonFinite != 2 {
		t.Errorf("count/non-finite = %d/%d, want 4/2", yaw.Count, yaw.NonFinite)
	}
	if yaw.Min != 2 || yaw.Max != 4 || yaw.Mean != 3 {
		t.Errorf("yaw min/max/mean = %v/%v/%v, want 2/4/3", yaw.Min, yaw.Max, yaw.Mean)
	}

	allNaN := Describe(&series.Series{Columns: []string{"yaw"}, Data: [][]float64{{math.NaN()}}})[0]
	if allNaN.Min != 0 || allNaN.Mean != 0 || allNaN.NonFinite != 1 {
		t.Errorf("all-NaN column = %+v, want zero stats", allNaN)
	}
}

func TestRunReport_NaNSample(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "yaw.txt")
	log := "Time: 1.0, ID: 7, Yaw: 0.2, Yaw3D: 0.4\nTime: 1.1, ID: 7, Yaw: nan, Yaw3D: 0.5\n"
	if err := os.WriteFile(input, []byte(log), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Label = "bag1"
	cfg.Input = input
	cfg.IDs = []int64{7}
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.Chart.DPI = 50
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	result, err := pipeline.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(result.ImagePath); err != nil {
		t.Errorf("chart not written: %v", err)
	}

	var buf bytes.Buffer
	if err := NewJSONFormatter(FormatOptions{}).Format(context.Background(), NewReport(result, ""), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	yaw := parsed.Columns[1]
	if yaw.Count != 2 || yaw.NonFinite != 1 || yaw.Mean != 0.2 {
		t.Errorf("yaw = %+v, want 2 samples, 1 non-finite, mean 0.2", yaw)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "text", false},
		{"text", "text", false},
		{"json", "json", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		f, err := NewFormatter(tt.name, FormatOptions{})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewFormatter(%q) error = %v", tt.name, err)
			continue
		}
		if err == nil && f.Name() != tt.want {
			t.Errorf("NewFormatter(%q).Name() = %q, want %q", tt.name, f.Name(), tt.want)
		}
	}
}

func TestTextFormatter_Format(t *testing.T) {
	report := NewReport(createTestResult(), "")

	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"=== yawlog run: bag1 ===",
		"Filtered: out/bag1/filtered_yaw_output.txt",
		"Plot:     out/images/bag1_yaw_plot.png",
		"kept:       3",
		"Samples: 3",
		"Warning: something odd",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "STDDEV") {
		t.Error("column table should only appear in verbose mode")
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	report := NewReport(createTestResult(), "")

	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{Verbose: true}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"STDDEV", "yaw3d", "Skipped records: 1", "f.txt:4", "Duration: 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose output missing %q:\n%s", want, out)
		}
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	report := NewReport(createTestResult(), "")

	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{Quiet: true}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "yawlog: bag1: 10 lines read, 3 kept, 2 duplicates, 3 samples\n"
	if buf.String() != want {
		t.Errorf("quiet output = %q, want %q", buf.String(), want)
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	report := NewReport(createTestResult(), "")

	var buf bytes.Buffer
	if err := NewJSONFormatter(FormatOptions{}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.Summary.Kept != 3 {
		t.Errorf("Kept = %d, want 3", parsed.Summary.Kept)
	}
	if len(parsed.Columns) != 3 {
		t.Errorf("len(Columns) = %d, want 3", len(parsed.Columns))
	}
	if len(parsed.Skipped) != 0 {
		t.Error("skipped records should only appear in verbose mode")
	}
	if parsed.Metadata.Variant != "yaw" {
		t.Errorf("Variant = %q", parsed.Metadata.Variant)
	}
	if len(report.Skipped) != 1 {
		t.Error("Format() mutated the report")
	}
}

func TestJSONFormatter_Format_Verbose(t *testing.T) {
	report := NewReport(createTestResult(), "")

	var buf bytes.Buffer
	if err := NewJSONFormatter(FormatOptions{Verbose: true}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(parsed.Skipped) != 1 {
		t.Errorf("len(Skipped) = %d, want 1", len(parsed.Skipped))
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	report := NewReport(createTestResult(), "")

	var buf bytes.Buffer
	if err := NewJSONFormatter(FormatOptions{Quiet: true}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed["label"] != "bag1" {
		t.Errorf("label = %v", parsed["label"])
	}
	if parsed["kept"] != float64(3) {
		t.Errorf("kept = %v", parsed["kept"])
	}
	if _, ok := parsed["columns"]; ok {
		t.Error("quiet output should not include columns")
	}
}

func TestReport_HasRecords_Empty(t *testing.T) {
	report := NewReport(&pipeline.Result{Label: "x", Stats: &filter.Stats{LinesRead: 4}}, "")
	if report.HasRecords() {
		t.Error("HasRecords() = true, want false")
	}
}
