package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

type quietReport struct {
	Label string `json:"label"`
	Summary
}

// Format renders the report as JSON. Quiet output carries the label and
// counts only; skipped record details need Verbose.
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if f.opts.Quiet {
		return enc.Encode(quietReport{Label: report.Metadata.Label, Summary: report.Summary})
	}
	if !f.opts.Verbose && len(report.Skipped) > 0 {
		trimmed := *report
		trimmed.Skipped = nil
		return enc.Encode(&trimmed)
	}
	return enc.Encode(report)
}
