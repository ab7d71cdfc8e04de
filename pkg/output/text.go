package output

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "yawlog: %s: %d lines read, %d kept, %d duplicates, %d samples\n",
		report.Metadata.Label,
		report.Summary.LinesRead,
		report.Summary.Kept,
		report.Summary.Duplicates,
		report.Summary.Samples)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	m := report.Metadata
	s := report.Summary

	fmt.Fprintf(w, "=== yawlog run: %s ===\n", m.Label)
	fmt.Fprintln(w)
	if m.Input != "" {
		fmt.Fprintf(w, "Input:    %s\n", m.Input)
		fmt.Fprintf(w, "IDs:      %d accepted\n", m.IDCount)
	}
	fmt.Fprintf(w, "Filtered: %s\n", m.FilteredPath)
	if m.ImagePath != "" {
		fmt.Fprintf(w, "Plot:     %s\n", m.ImagePath)
	}
	if m.Variant != "" {
		fmt.Fprintf(w, "Variant:  %s\n", m.Variant)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Lines read: %d\n", s.LinesRead)
	fmt.Fprintf(w, "  kept:       %d\n", s.Kept)
	fmt.Fprintf(w, "  duplicates: %d\n", s.Duplicates)
	fmt.Fprintf(w, "  rejected:   %d\n", s.Rejected)
	fmt.Fprintf(w, "  no id:      %d\n", s.NoID)
	if s.Malformed > 0 {
		fmt.Fprintf(w, "  malformed:  %d\n", s.Malformed)
	}
	fmt.Fprintf(w, "Samples: %d\n", s.Samples)

	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}

	if f.opts.Verbose {
		if err := f.formatColumns(report.Columns, w); err != nil {
			return err
		}
		if len(report.Skipped) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Skipped records: %d\n", len(report.Skipped))
			for _, sk := range report.Skipped {
				fmt.Fprintf(w, "  - %s:%d: %s\n", sk.Source, sk.Line, sk.Error)
			}
		}
		if m.Duration > 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Duration: %s\n", m.Duration.Round(1e6))
		}
	}

	return nil
}

func (f *TextFormatter) formatColumns(cols []ColumnStats, w io.Writer) error {
	if len(cols) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tCOUNT\tMIN\tMAX\tMEAN\tSTDDEV")
	for _, c := range cols {
		fmt.Fprintf(tw, "%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\n", c.Name, c.Count, c.Min, c.Max, c.Mean, c.StdDev)
	}
	return tw.Flush()
}
