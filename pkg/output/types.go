// Package output provides formatting and output generation for run results.
package output

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ccollicutt/yawlog/pkg/pipeline"
	"github.com/ccollicutt/yawlog/pkg/series"
)

// Report is the complete run output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Columns describes each extracted column.
	Columns []ColumnStats `json:"columns"`

	// Warnings lists recoverable problems met during the run.
	Warnings []string `json:"warnings,omitempty"`

	// Skipped lists malformed records dropped under the skip policy.
	Skipped []SkippedRecord `json:"skipped,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	LinesRead  int `json:"lines_read"`
	Kept       int `json:"kept"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
	NoID       int `json:"no_id"`
	Malformed  int `json:"malformed"`

	// Samples is the number of parsed samples.
	Samples int `json:"samples"`
}

// ColumnStats summarises one extracted column.
type ColumnStats struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`

	// NonFinite counts NaN and infinite values left out of the statistics.
	NonFinite int `json:"non_finite,omitempty"`
}

// SkippedRecord identifies a dropped malformed line.
type SkippedRecord struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Error  string `json:"error"`
}

// Metadata provides context about the run.
type Metadata struct {
	Label        string        `json:"label"`
	ConfigFile   string        `json:"config_file,omitempty"`
	Input        string        `json:"input"`
	FilteredPath string        `json:"filtered_path"`
	ImagePath    string        `json:"image_path,omitempty"`
	Variant      string        `json:"variant"`
	IDCount      int           `json:"id_count"`
	RunAt        time.Time     `json:"run_at"`
	Duration     time.Duration `json:"duration"`
}

// NewReport creates a Report from a pipeline result.
func NewReport(result *pipeline.Result, configFile string) *Report {
	report := &Report{
		Warnings: result.Warnings,
		Metadata: Metadata{
			Label:        result.Label,
			ConfigFile:   configFile,
			Input:        result.Input,
			FilteredPath: result.FilteredPath,
			ImagePath:    result.ImagePath,
			Variant:      result.Variant,
			IDCount:      result.IDCount,
			RunAt:        result.EndTime,
			Duration:     result.Duration(),
		},
	}

	if s := result.Stats; s != nil {
		report.Summary = Summary{
			LinesRead:  s.LinesRead,
			Kept:       s.Kept,
			Duplicates: s.Duplicates,
			Rejected:   s.Rejected,
			NoID:       s.NoID,
			Malformed:  s.Malformed,
		}
		for _, m := range s.Skipped {
			report.Skipped = append(report.Skipped, SkippedRecord{Source: m.Source, Line: m.LineNum, Error: m.Err.Error()})
		}
	}

	if s := result.Series; s != nil {
		report.Summary.Samples = s.Len()
		report.Columns = Describe(s)
		for _, m := range s.Skipped {
			report.Skipped = append(report.Skipped, SkippedRecord{Source: m.Source, Line: m.LineNum, Error: m.Err.Error()})
		}
	}

	return report
}

// Describe computes per-column statistics over the finite values of each
// column. Count is every sample; columns with no finite values report zeros.
func Describe(s *series.Series) []ColumnStats {
	out := make([]ColumnStats, 0, len(s.Columns))
	for i, name := range s.Columns {
		values := finiteValues(s.Data[i])
		cs := ColumnStats{
			Name:      name,
			Count:     len(s.Data[i]),
			NonFinite: len(s.Data[i]) - len(values),
		}
		if len(values) > 0 {
			cs.Min = floats.Min(values)
			cs.Max = floats.Max(values)
			cs.Mean = stat.Mean(values, nil)
		}
		if len(values) > 1 {
			cs.StdDev = stat.StdDev(values, nil)
		}
		if math.IsNaN(cs.StdDev) || math.IsInf(cs.StdDev, 0) {
			cs.StdDev = 0
		}
		if math.IsInf(cs.Mean, 0) {
			cs.Mean = 0
		}
		out = append(out, cs)
	}
	return out
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// HasRecords returns true if any line survived filtering.
func (r *Report) HasRecords() bool {
	return r.Summary.Kept > 0
}
