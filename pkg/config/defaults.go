package config

import (
	"os"
	"time"

	"github.com/ccollicutt/yawlog/pkg/chart"
	"github.com/ccollicutt/yawlog/pkg/record"
)

// Default values for configuration.
const (
	DefaultOutputDir      = "output"
	DefaultFilteredName   = "filtered_yaw_output.txt"
	DefaultImageSubdir    = "images"
	DefaultWebhookTimeout = 10 * time.Second

	// VariantAuto detects the layout from the input.
	VariantAuto = "auto"
)

// Environment variable names.
const (
	EnvIDFile    = "YAWLOG_ID_FILE"
	EnvOutputDir = "YAWLOG_OUTPUT_DIR"
	EnvLabel     = "YAWLOG_LABEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:   DefaultOutputDir,
		Variant:     record.SchemaNameYaw,
		OnMalformed: string(record.MalformedFail),
		Chart: ChartConfig{
			Enabled: true,
			Format:  chart.DefaultFormat,
			DPI:     chart.DefaultDPI,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvIDFile); v != "" {
		c.IDFile = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvLabel); v != "" {
		c.Label = v
	}
}
