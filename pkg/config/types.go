// Package config provides run configuration loading and validation for yawlog.
package config

import (
	"path/filepath"
	"time"

	"github.com/ccollicutt/yawlog/pkg/chart"
	"github.com/ccollicutt/yawlog/pkg/record"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Label names the run. It selects the output subdirectory, the image
	// file name and the chart title.
	Label string `yaml:"label"`

	// IDFile holds whitespace-separated accepted identifiers.
	IDFile string `yaml:"id_file,omitempty"`

	// IDs are accepted identifiers listed inline; merged with IDFile.
	IDs []int64 `yaml:"ids,omitempty"`

	// Input is the raw log to filter.
	Input string `yaml:"input"`

	// OutputDir is the root for filtered records and images.
	OutputDir string `yaml:"output_dir"`

	// FilteredOutput overrides <output_dir>/<label>/filtered_yaw_output.txt.
	FilteredOutput string `yaml:"filtered_output,omitempty"`

	// Variant selects the field layout: yaw, state_meas or auto.
	Variant string `yaml:"variant"`

	// Schema replaces the built-in variant with a custom column mapping.
	Schema *record.Schema `yaml:"schema,omitempty"`

	// OnMalformed is fail (default) or skip.
	OnMalformed string `yaml:"on_malformed,omitempty"`

	Chart    ChartConfig     `yaml:"chart"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`

	// Populated during validation.
	policy record.MalformedPolicy
}

// ChartConfig controls image rendering.
type ChartConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	DPI     int    `yaml:"dpi"`

	// ImageDir overrides <output_dir>/images.
	ImageDir string `yaml:"image_dir,omitempty"`

	// Layout replaces the variant's default figure.
	Layout *chart.Layout `yaml:"layout,omitempty"`
}

// MalformedPolicy returns the validated malformed-record policy.
func (c *Config) MalformedPolicy() record.MalformedPolicy {
	if c.policy == "" {
		return record.MalformedFail
	}
	return c.policy
}

// FilteredPath returns where the filtered log is written.
func (c *Config) FilteredPath() string {
	if c.FilteredOutput != "" {
		return c.FilteredOutput
	}
	return filepath.Join(c.OutputDir, c.Label, DefaultFilteredName)
}

// ImageDir returns the directory charts are saved to.
func (c *Config) ImageDir() string {
	if c.Chart.ImageDir != "" {
		return c.Chart.ImageDir
	}
	return filepath.Join(c.OutputDir, DefaultImageSubdir)
}

// ImagePath returns the chart file path for this run.
func (c *Config) ImagePath() string {
	return chart.ImagePath(c.ImageDir(), c.Label, c.Chart.Format)
}

// AutoVariant reports whether the variant is detected from the input.
func (c *Config) AutoVariant() bool {
	return c.Schema == nil && c.Variant == VariantAuto
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerAlways fires after every run (default).
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerOnEmpty fires only when no records survived filtering.
	WebhookTriggerOnEmpty WebhookTrigger = "on_empty"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending run reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
