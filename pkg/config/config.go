package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/yawlog/pkg/chart"
	"github.com/ccollicutt/yawlog/pkg/record"
)

// Override adjusts a parsed configuration before it is validated.
type Override func(*Config)

// WithLabel replaces the run label.
func WithLabel(label string) Override {
	return func(c *Config) {
		if label != "" {
			c.Label = label
		}
	}
}

// WithExtraIDs appends accepted identifiers to the inline list, so a run can
// get its IDs from the command line alone.
func WithExtraIDs(ids ...int64) Override {
	return func(c *Config) {
		c.IDs = append(c.IDs, ids...)
	}
}

// Load reads and validates a configuration file. Overrides are applied after
// environment variables and before validation.
func Load(_ context.Context, path string, overrides ...Override) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	for _, o := range overrides {
		o(cfg)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and normalises defaults.
func Validate(cfg *Config) error {
	if err := ValidateLabel(cfg.Label); err != nil {
		return fmt.Errorf("label: %w", err)
	}

	if cfg.Input == "" {
		return errors.New("input: log file path is required")
	}

	if cfg.IDFile == "" && len(cfg.IDs) == 0 {
		return errors.New("id_file: an id file or inline ids list is required")
	}

	if cfg.OutputDir == "" && cfg.FilteredOutput == "" {
		return errors.New("output_dir: required unless filtered_output is set")
	}

	policy, err := record.ParseMalformedPolicy(cfg.OnMalformed)
	if err != nil {
		return fmt.Errorf("on_malformed: %w", err)
	}
	cfg.policy = policy

	if err := validateVariant(cfg); err != nil {
		return err
	}

	if err := validateChart(cfg); err != nil {
		return fmt.Errorf("chart: %w", err)
	}

	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ValidateLabel checks that a run label can be used as a path segment.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("run label is required")
	}
	if label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("%q cannot be used as a directory name", label)
	}
	return nil
}

func validateVariant(cfg *Config) error {
	if cfg.Schema != nil {
		if err := cfg.Schema.Validate(); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		return nil
	}

	cfg.Variant = strings.ToLower(strings.TrimSpace(cfg.Variant))
	if cfg.Variant == "" {
		cfg.Variant = record.SchemaNameYaw
	}
	if cfg.Variant == VariantAuto {
		return nil
	}
	if _, err := record.LookupSchema(cfg.Variant); err != nil {
		return fmt.Errorf("variant: %w", err)
	}
	return nil
}

func validateChart(cfg *Config) error {
	if cfg.Chart.Format == "" {
		cfg.Chart.Format = chart.DefaultFormat
	}
	cfg.Chart.Format = strings.ToLower(cfg.Chart.Format)
	if !chart.SupportedFormat(cfg.Chart.Format) {
		return fmt.Errorf("unsupported format %q", cfg.Chart.Format)
	}
	if cfg.Chart.DPI <= 0 {
		cfg.Chart.DPI = chart.DefaultDPI
	}

	if !cfg.Chart.Enabled {
		return nil
	}
	if cfg.Schema != nil && cfg.Chart.Layout == nil {
		return errors.New("layout is required when a custom schema is used")
	}
	if l := cfg.Chart.Layout; l != nil {
		if len(l.Panels) == 0 {
			return errors.New("layout: at least one panel is required")
		}
		if l.Width <= 0 || l.Height <= 0 {
			return errors.New("layout: width and height must be positive")
		}
	}
	return nil
}

// ResolveSchema returns the column mapping for a resolved variant name. A custom
// schema takes precedence.
func (c *Config) ResolveSchema(variant string) (*record.Schema, error) {
	if c.Schema != nil {
		return c.Schema, nil
	}
	return record.LookupSchema(variant)
}

// ChartLayout returns the figure for a resolved variant name, titled with
// the run label.
func (c *Config) ChartLayout(variant string) (*chart.Layout, error) {
	if c.Chart.Layout != nil {
		l := *c.Chart.Layout
		if l.Title == "" {
			l.Title = chart.Title(c.Label)
		}
		return &l, nil
	}
	return chart.DefaultLayout(variant, chart.Title(c.Label))
}

// ValidateWebhook checks a webhook definition and fills in defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerAlways
	case WebhookTriggerAlways, WebhookTriggerOnEmpty, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be always, on_empty, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands a value of the form ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}
	return s
}
