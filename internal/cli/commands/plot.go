package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/yawlog/internal/logger"
	"github.com/ccollicutt/yawlog/pkg/chart"
	"github.com/ccollicutt/yawlog/pkg/config"
	"github.com/ccollicutt/yawlog/pkg/detector"
	"github.com/ccollicutt/yawlog/pkg/output"
	"github.com/ccollicutt/yawlog/pkg/record"
	"github.com/ccollicutt/yawlog/pkg/series"
)

// PlotOptions holds command-line options for the plot command.
type PlotOptions struct {
	Variant     string
	Label       string
	Out         string
	Format      string
	DPI         int
	OnMalformed string
	Output      string
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	opts := &PlotOptions{}

	cmd := &cobra.Command{
		Use:   "plot <filtered-file>",
		Short: "Extract the yaw series from a filtered log and plot it",
		Long: `Parse every line of a filtered log into the columns of the chosen layout
and render two stacked scatter panels sharing the time axis.

Without --out the chart is written to images/<label>_yaw_plot.<format>.
Use --variant auto to pick the layout from the file contents.

Example:
  yawlog plot --label bag1 out/bag1/filtered_yaw_output.txt
  yawlog plot --variant state_meas --format svg --out chart.svg filtered.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Variant, "variant", record.SchemaNameYaw, "Record layout (yaw|state_meas|auto)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "Run label for the title and file name (default: file name)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Chart output path")
	cmd.Flags().StringVar(&opts.Format, "format", chart.DefaultFormat, "Image format (png|jpg|tiff|svg|pdf|eps)")
	cmd.Flags().IntVar(&opts.DPI, "dpi", chart.DefaultDPI, "Raster resolution")
	cmd.Flags().StringVar(&opts.OnMalformed, "on-malformed", string(record.MalformedFail), "Malformed record handling (fail|skip)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Summary format (text|json)")

	return cmd
}

func runPlot(cmd *cobra.Command, args []string, opts *PlotOptions) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	policy, err := record.ParseMalformedPolicy(opts.OnMalformed)
	if err != nil {
		return fmt.Errorf("--on-malformed: %w", err)
	}
	format := strings.ToLower(opts.Format)
	if !chart.SupportedFormat(format) {
		return fmt.Errorf("--format: unsupported format %q", opts.Format)
	}
	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{Verbose: true})
	if err != nil {
		return err
	}

	label := opts.Label
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := config.ValidateLabel(label); err != nil {
		return fmt.Errorf("--label: %w", err)
	}

	schema, err := plotSchema(ctx, path, opts.Variant)
	if err != nil {
		return err
	}

	s, err := series.ExtractFile(ctx, path, schema, series.WithMalformedPolicy(policy))
	if err != nil {
		return err
	}
	for _, m := range s.Skipped {
		logger.Warn("skipped malformed record", "source", m.Source, "line", m.LineNum, "error", m.Err)
	}

	out := opts.Out
	if out == "" {
		out = chart.ImagePath(config.DefaultImageSubdir, label, format)
	}

	layout, err := chart.DefaultLayout(schema.Name, chart.Title(label))
	if err != nil {
		return err
	}
	if err := chart.RenderFile(ctx, out, s, layout, chart.Options{Format: format, DPI: opts.DPI}); err != nil {
		return err
	}
	logger.Info("plot saved", "path", out)

	report := &output.Report{
		Summary: output.Summary{Samples: s.Len()},
		Columns: output.Describe(s),
		Metadata: output.Metadata{
			Label:        label,
			FilteredPath: path,
			ImagePath:    out,
			Variant:      schema.Name,
		},
	}
	return formatter.Format(ctx, report, cmd.OutOrStdout())
}

func plotSchema(ctx context.Context, path, variant string) (*record.Schema, error) {
	if strings.EqualFold(variant, config.VariantAuto) {
		schema, err := detector.New().Best(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("detecting variant: %w", err)
		}
		logger.Info("detected variant", "variant", schema.Name)
		return schema, nil
	}
	schema, err := record.LookupSchema(variant)
	if err != nil {
		return nil, fmt.Errorf("--variant: %w", err)
	}
	return schema, nil
}
