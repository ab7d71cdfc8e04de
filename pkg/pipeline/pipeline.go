// Package pipeline runs the ID load, filter, extract and chart stages for one
// configured run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ccollicutt/yawlog/internal/logger"
	"github.com/ccollicutt/yawlog/pkg/chart"
	"github.com/ccollicutt/yawlog/pkg/config"
	"github.com/ccollicutt/yawlog/pkg/detector"
	"github.com/ccollicutt/yawlog/pkg/filter"
	"github.com/ccollicutt/yawlog/pkg/ids"
	"github.com/ccollicutt/yawlog/pkg/record"
	"github.com/ccollicutt/yawlog/pkg/series"
)

// Result contains the output of one run.
type Result struct {
	// Label is the run label the paths and chart title were derived from.
	Label string

	// Input is the raw log that was filtered.
	Input string

	// IDCount is the number of accepted identifiers.
	IDCount int

	// Stats summarises the filter pass.
	Stats *filter.Stats

	// Variant is the resolved schema name.
	Variant string

	// Series holds the extracted samples.
	Series *series.Series

	// FilteredPath is where the filtered log was written.
	FilteredPath string

	// ImagePath is where the chart was written; empty when no chart was made.
	ImagePath string

	// Warnings lists recoverable problems met during the run.
	Warnings []string

	// StartTime is when the run began.
	StartTime time.Time

	// EndTime is when the run completed.
	EndTime time.Time
}

// HasRecords reports whether any line survived filtering.
func (r *Result) HasRecords() bool {
	return r.Stats != nil && r.Stats.Kept > 0
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Option configures a run.
type Option func(*runner)

type runner struct {
	cfg      *config.Config
	extraIDs ids.Set
	noChart  bool
	log      *slog.Logger
}

// WithIDs adds identifiers to those loaded from the configuration.
func WithIDs(set ids.Set) Option {
	return func(r *runner) {
		for id := range set {
			r.extraIDs.Add(id)
		}
	}
}

// WithoutChart skips the chart stage.
func WithoutChart() Option {
	return func(r *runner) {
		r.noChart = true
	}
}

// WithLogger overrides the logger used for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.log = l
		}
	}
}

// Run executes the stages in order. cfg must already be validated.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	r := &runner{
		cfg:      cfg,
		extraIDs: ids.NewSet(),
		log:      logger.WithRun(cfg.Label),
	}
	for _, opt := range opts {
		opt(r)
	}

	result := &Result{
		Label:        cfg.Label,
		Input:        cfg.Input,
		FilteredPath: cfg.FilteredPath(),
		StartTime:    time.Now(),
	}
	defer func() { result.EndTime = time.Now() }()

	accepted, err := r.loadIDs(ctx, result)
	if err != nil {
		return nil, err
	}
	result.IDCount = accepted.Len()

	result.Stats, err = filter.FilterFile(ctx, cfg.Input, result.FilteredPath, accepted,
		filter.WithMalformedPolicy(cfg.MalformedPolicy()))
	if err != nil {
		return nil, fmt.Errorf("filtering %s: %w", cfg.Input, err)
	}
	for _, m := range result.Stats.Skipped {
		r.log.Warn("skipped malformed record", "source", m.Source, "line", m.LineNum, "error", m.Err)
	}
	r.log.Info("filtered log saved",
		"path", result.FilteredPath,
		"kept", result.Stats.Kept,
		"duplicates", result.Stats.Duplicates,
		"rejected", result.Stats.Rejected)

	schema, err := r.resolveSchema(ctx, result)
	if err != nil {
		return nil, err
	}
	result.Variant = schema.Name

	result.Series, err = series.ExtractFile(ctx, result.FilteredPath, schema,
		series.WithMalformedPolicy(cfg.MalformedPolicy()))
	if err != nil {
		return nil, fmt.Errorf("extracting series: %w", err)
	}
	for _, m := range result.Series.Skipped {
		r.log.Warn("skipped malformed record", "source", m.Source, "line", m.LineNum, "error", m.Err)
	}

	if err := r.renderChart(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// loadIDs merges the ID file, inline IDs and overrides. A missing file or an
// empty set is a warning, not an error.
func (r *runner) loadIDs(ctx context.Context, result *Result) (ids.Set, error) {
	accepted, warnings, err := ids.Merge(ctx, r.cfg.IDFile, ids.NewSet(r.cfg.IDs...), r.extraIDs)
	if err != nil {
		return nil, fmt.Errorf("loading ids: %w", err)
	}
	for _, w := range warnings {
		r.warn(result, w)
	}
	r.log.Info("loaded ids", "count", accepted.Len(), "ids", accepted.String())
	return accepted, nil
}

func (r *runner) resolveSchema(ctx context.Context, result *Result) (*record.Schema, error) {
	if !r.cfg.AutoVariant() {
		return r.cfg.ResolveSchema(r.cfg.Variant)
	}

	if !result.HasRecords() {
		r.log.Debug("no records to detect layout from; using default", "variant", record.SchemaNameYaw)
		return record.SchemaYaw, nil
	}

	schema, err := detector.New().Best(ctx, result.FilteredPath)
	if err != nil {
		return nil, fmt.Errorf("detecting variant: %w", err)
	}
	r.log.Info("detected variant", "variant", schema.Name)
	return schema, nil
}

func (r *runner) renderChart(ctx context.Context, result *Result) error {
	if r.noChart || !r.cfg.Chart.Enabled {
		r.log.Debug("chart disabled")
		return nil
	}
	if result.Series.Len() == 0 {
		r.warn(result, "no samples to plot; chart not written")
		return nil
	}

	layout, err := r.cfg.ChartLayout(result.Variant)
	if err != nil {
		return fmt.Errorf("chart layout: %w", err)
	}

	path := r.cfg.ImagePath()
	err = chart.RenderFile(ctx, path, result.Series, layout, chart.Options{
		Format: r.cfg.Chart.Format,
		DPI:    r.cfg.Chart.DPI,
	})
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	result.ImagePath = path
	r.log.Info("plot saved", "path", path)
	return nil
}

func (r *runner) warn(result *Result, msg string) {
	result.Warnings = append(result.Warnings, msg)
	r.log.Warn(msg)
}
