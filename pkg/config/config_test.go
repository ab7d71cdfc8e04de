package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccollicutt/yawlog/pkg/chart"
	"github.com/ccollicutt/yawlog/pkg/record"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Label = "bag1"
	cfg.IDFile = "ids.txt"
	cfg.Input = "yaw.txt"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
label: bag_2024_01_15
id_file: valid_ids.txt
input: yaw_state_meas.txt
output_dir: out
variant: state_meas
on_malformed: skip
chart:
  format: SVG
webhooks:
  - name: ci
    url: https://example.com/hook
    timeout: 5s
`
	path := writeTempFile(t, "run.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Label != "bag_2024_01_15" {
		t.Errorf("Label = %q", cfg.Label)
	}
	if cfg.Variant != record.SchemaNameStateMeas {
		t.Errorf("Variant = %q, want state_meas", cfg.Variant)
	}
	if cfg.MalformedPolicy() != record.MalformedSkip {
		t.Errorf("MalformedPolicy() = %q, want skip", cfg.MalformedPolicy())
	}
	if !cfg.Chart.Enabled {
		t.Error("Chart.Enabled = false, want default true")
	}
	if cfg.Chart.Format != "svg" {
		t.Errorf("Chart.Format = %q, want svg", cfg.Chart.Format)
	}
	if cfg.Chart.DPI != chart.DefaultDPI {
		t.Errorf("Chart.DPI = %d, want %d", cfg.Chart.DPI, chart.DefaultDPI)
	}
	if cfg.Webhooks[0].Timeout != 5*time.Second {
		t.Errorf("Webhook timeout = %v, want 5s", cfg.Webhooks[0].Timeout)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook trigger = %q, want always", cfg.Webhooks[0].Trigger)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/run.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvOutputDir, "/tmp/yawlog-out")
	t.Setenv(EnvLabel, "from-env")

	path := writeTempFile(t, "run.yaml", "label: bag1\nid_file: ids.txt\ninput: in.txt\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "/tmp/yawlog-out" {
		t.Errorf("OutputDir = %q, want env override", cfg.OutputDir)
	}
	if cfg.Label != "from-env" {
		t.Errorf("Label = %q, want env override", cfg.Label)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvLabel, "from-env")
	path := writeTempFile(t, "run.yaml", "label: bag1\ninput: in.txt\n")

	if _, err := Load(context.Background(), path); err == nil {
		t.Fatal("Load() expected error without ids")
	}

	cfg, err := Load(context.Background(), path, WithLabel("from-flag"), WithExtraIDs(5, 6))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Label != "from-flag" {
		t.Errorf("Label = %q, want from-flag", cfg.Label)
	}
	if len(cfg.IDs) != 2 || cfg.IDs[0] != 5 || cfg.IDs[1] != 6 {
		t.Errorf("IDs = %v, want [5 6]", cfg.IDs)
	}
}

func TestLoad_ChartDisabled(t *testing.T) {
	path := writeTempFile(t, "run.yaml", "label: bag1\nids: [1, 2]\ninput: in.txt\nchart:\n  enabled: false\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chart.Enabled {
		t.Error("Chart.Enabled = true, want false")
	}
	if len(cfg.IDs) != 2 {
		t.Errorf("IDs = %v, want 2 entries", cfg.IDs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing label", func(c *Config) { c.Label = "" }, true},
		{"label with slash", func(c *Config) { c.Label = "a/b" }, true},
		{"dot label", func(c *Config) { c.Label = ".." }, true},
		{"missing input", func(c *Config) { c.Input = "" }, true},
		{"no ids at all", func(c *Config) { c.IDFile = "" }, true},
		{"inline ids only", func(c *Config) { c.IDFile = ""; c.IDs = []int64{4} }, false},
		{"no output location", func(c *Config) { c.OutputDir = "" }, true},
		{"explicit filtered output", func(c *Config) { c.OutputDir = ""; c.FilteredOutput = "f.txt"; c.Chart.ImageDir = "img" }, false},
		{"bad malformed policy", func(c *Config) { c.OnMalformed = "ignore" }, true},
		{"unknown variant", func(c *Config) { c.Variant = "pitch" }, true},
		{"auto variant", func(c *Config) { c.Variant = "auto" }, false},
		{"bad format", func(c *Config) { c.Chart.Format = "bmp" }, true},
		{"custom schema without layout", func(c *Config) {
			c.Schema = &record.Schema{Name: "x", Columns: []record.Column{{Name: "t"}, {Name: "v", Index: 1}}}
		}, true},
		{"custom schema chart disabled", func(c *Config) {
			c.Schema = &record.Schema{Name: "x", Columns: []record.Column{{Name: "t"}, {Name: "v", Index: 1}}}
			c.Chart.Enabled = false
		}, false},
		{"empty layout", func(c *Config) { c.Chart.Layout = &chart.Layout{Width: 1, Height: 1} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := validConfig()
	cfg.OutputDir = "out"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if got, want := cfg.FilteredPath(), filepath.Join("out", "bag1", DefaultFilteredName); got != want {
		t.Errorf("FilteredPath() = %q, want %q", got, want)
	}
	if got, want := cfg.ImagePath(), filepath.Join("out", "images", "bag1_yaw_plot.png"); got != want {
		t.Errorf("ImagePath() = %q, want %q", got, want)
	}

	cfg.FilteredOutput = "custom.txt"
	cfg.Chart.ImageDir = "pics"
	if got := cfg.FilteredPath(); got != "custom.txt" {
		t.Errorf("FilteredPath() = %q, want custom.txt", got)
	}
	if got := cfg.ImageDir(); got != "pics" {
		t.Errorf("ImageDir() = %q, want pics", got)
	}
}

func TestChartLayout_TitleFromLabel(t *testing.T) {
	cfg := validConfig()
	layout, err := cfg.ChartLayout(record.SchemaNameStateMeas)
	if err != nil {
		t.Fatalf("ChartLayout() error = %v", err)
	}
	if layout.Title != "Bag name: bag1" {
		t.Errorf("Title = %q, want %q", layout.Title, "Bag name: bag1")
	}

	cfg.Chart.Layout = &chart.Layout{Width: 4, Height: 3, Panels: []chart.Panel{{YLabel: "v"}}}
	layout, err = cfg.ChartLayout(record.SchemaNameYaw)
	if err != nil {
		t.Fatalf("ChartLayout() error = %v", err)
	}
	if layout.Title != "Bag name: bag1" || layout.Width != 4 {
		t.Errorf("custom layout = %+v, want titled copy", layout)
	}
	if cfg.Chart.Layout.Title != "" {
		t.Error("ChartLayout() mutated the configured layout")
	}
}

func TestResolveSchema(t *testing.T) {
	cfg := validConfig()
	s, err := cfg.ResolveSchema(record.SchemaNameYaw)
	if err != nil || s != record.SchemaYaw {
		t.Errorf("ResolveSchema(yaw) = %v, %v", s, err)
	}

	custom := &record.Schema{Name: "custom", Columns: []record.Column{{Name: "t"}, {Name: "v", Index: 1}}}
	cfg.Schema = custom
	s, err = cfg.ResolveSchema(record.SchemaNameYaw)
	if err != nil || s != custom {
		t.Errorf("ResolveSchema() with custom schema = %v, %v", s, err)
	}
}

func TestAutoVariant(t *testing.T) {
	cfg := validConfig()
	cfg.Variant = VariantAuto
	if !cfg.AutoVariant() {
		t.Error("AutoVariant() = false, want true")
	}
	cfg.Schema = record.SchemaYaw
	if cfg.AutoVariant() {
		t.Error("AutoVariant() = true with custom schema, want false")
	}
}

// ============================================================================
// Webhook Validation Tests
// ============================================================================

func TestValidate_Webhook(t *testing.T) {
	tests := []struct {
		name    string
		wh      WebhookConfig
		wantErr bool
	}{
		{"https", WebhookConfig{URL: "https://example.com/hook"}, false},
		{"http", WebhookConfig{URL: "http://localhost:8080/hook"}, false},
		{"missing url", WebhookConfig{}, true},
		{"bad scheme", WebhookConfig{URL: "ftp://example.com"}, true},
		{"no host", WebhookConfig{URL: "https://"}, true},
		{"on_empty trigger", WebhookConfig{URL: "https://example.com", Trigger: WebhookTriggerOnEmpty}, false},
		{"bad trigger", WebhookConfig{URL: "https://example.com", Trigger: "sometimes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Webhooks = []WebhookConfig{tt.wh}
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
				t.Errorf("Timeout = %v, want default", cfg.Webhooks[0].Timeout)
			}
		})
	}
}

func TestValidate_WebhookTokenFromEnv(t *testing.T) {
	t.Setenv("YAWLOG_TEST_TOKEN", "secret")

	cfg := validConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com", Token: "${YAWLOG_TEST_TOKEN}"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Webhooks[0].Token != "secret" {
		t.Errorf("Token = %q, want expanded value", cfg.Webhooks[0].Token)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("YAWLOG_X", "x-value")

	tests := map[string]string{
		"":            "",
		"plain":       "plain",
		"$YAWLOG_X":   "x-value",
		"${YAWLOG_X}": "x-value",
	}
	for in, want := range tests {
		if got := expandEnvVar(in); got != want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", in, got, want)
		}
	}
}
