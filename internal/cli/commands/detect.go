package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/yawlog/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect which record layout a log uses",
		Long: `Sample lines from a yaw log and report which built-in record layout
parses them, with a confidence score and a ready-to-use config snippet.

Optionally generates a starter run config with --write-config.

Example:
  yawlog detect yaw_state_meas.txt
  yawlog detect --sample 500 --all yaw.txt
  yawlog detect -w run.yaml yaw.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 100, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching layouts, not just the best one")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))
	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, logFile, opts)
	case "text":
		return outputDetectText(w, result, logFile, opts)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Record Layout Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No record layout detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: lines must look like \"Time: 1.0, ID: 3, Yaw: 0.1, Yaw3D: 0.2\".")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Layout: %s\n", best.Schema.Name)
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(best.Schema.ColumnNames(), ", "))
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines parsed)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintf(w, "Labelled columns: %.0f%%\n", best.LabelMatches*100)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample line:\n  %s\n", best.SampleLine)
	fmt.Fprintf(w, "Parsed as: %v\n", best.SampleValues)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "variant: %s\n", best.Schema.Name)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative layouts ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence, %.0f%% labelled)\n",
				i+2, m.Schema.Name, m.Confidence*100, m.LabelMatches*100)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a layout match in JSON output.
type JSONMatch struct {
	Name         string    `json:"name"`
	Columns      []string  `json:"columns"`
	Confidence   float64   `json:"confidence"`
	LabelMatches float64   `json:"label_matches"`
	MatchCount   int       `json:"match_count"`
	SampleLine   string    `json:"sample_line"`
	SampleValues []float64 `json:"sample_values"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledLines int         `json:"sampled_lines"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         logFile,
		SampledLines: result.SampledLines,
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:         m.Schema.Name,
			Columns:      m.Schema.ColumnNames(),
			Confidence:   m.Confidence,
			LabelMatches: m.LabelMatches,
			MatchCount:   m.MatchCount,
			SampleLine:   m.SampleLine,
			SampleValues: m.SampleValues,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeStarterConfig generates a starter run config for the detected layout.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no record layout detected")
	}

	content := generateStarterConfig(logFile, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML run config template.
func generateStarterConfig(logFile string, match *detector.SchemaMatch) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}
	label := strings.TrimSuffix(filepath.Base(logFile), filepath.Ext(logFile))

	return fmt.Sprintf(`# yawlog run configuration
# Generated by: yawlog detect
# Detected layout: %s (%.0f%% confidence)

label: %s
input: %s

# Whitespace-separated accepted track IDs. A missing file is treated as empty.
id_file: valid_ids.txt
# ids: [1, 2, 3]

output_dir: output
variant: %s
on_malformed: fail

chart:
  enabled: true
  format: png
  dpi: 300

# webhooks:
#   - name: ci
#     url: https://example.com/hook
#     token: ${YAWLOG_TOKEN}
#     trigger: always
`, match.Schema.Name, match.Confidence*100,
		label,
		absLogFile,
		match.Schema.Name)
}
