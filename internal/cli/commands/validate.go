package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/yawlog/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a yawlog configuration file without running it.

Checks:
  - YAML syntax
  - Required fields (label, input, id_file or ids)
  - Variant, schema and chart settings
  - Webhook definitions
  - Input and ID file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	variant := cfg.Variant
	if cfg.Schema != nil {
		variant = "custom (" + cfg.Schema.Name + ")"
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Label:        %s\n", cfg.Label)
	fmt.Fprintf(w, "  Input:        %s\n", cfg.Input)
	fmt.Fprintf(w, "  Variant:      %s\n", variant)
	fmt.Fprintf(w, "  On malformed: %s\n", cfg.MalformedPolicy())
	fmt.Fprintf(w, "  Filtered log: %s\n", cfg.FilteredPath())
	if cfg.Chart.Enabled {
		fmt.Fprintf(w, "  Chart:        %s (%d dpi)\n", cfg.ImagePath(), cfg.Chart.DPI)
	} else {
		fmt.Fprintf(w, "  Chart:        disabled\n")
	}
	if len(cfg.IDs) > 0 {
		fmt.Fprintf(w, "  Inline IDs:   %d\n", len(cfg.IDs))
	}
	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "  Webhooks:     %d\n", len(cfg.Webhooks))
	}

	if _, err := os.Stat(cfg.Input); err != nil {
		fmt.Fprintf(w, "\nWarning: input %s is not readable: %v\n", cfg.Input, err)
	}
	if cfg.IDFile != "" {
		if _, err := os.Stat(cfg.IDFile); err != nil {
			fmt.Fprintf(w, "\nWarning: id file %s not found; it will be treated as empty\n", cfg.IDFile)
		}
	}

	return nil
}
