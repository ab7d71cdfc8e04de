package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/yawlog/pkg/config"
	"github.com/ccollicutt/yawlog/pkg/ids"
	"github.com/ccollicutt/yawlog/pkg/output"
	"github.com/ccollicutt/yawlog/pkg/pipeline"
	"github.com/ccollicutt/yawlog/pkg/webhook"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitEmpty = 1
	ExitError = 2
)

// ExitCode is set by commands to indicate the result
var ExitCode = ExitOK

// RunOptions holds command-line options for the run command.
type RunOptions struct {
	Label   string
	IDs     string
	NoChart bool
	Output  string
	Verbose bool
	Quiet   bool

	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <config-file>",
		Short: "Filter a yaw log and plot the result",
		Long: `Run the configured job: load the accepted IDs, filter the input log,
extract the yaw series and save the chart.

The filtered log is written to <output_dir>/<label>/filtered_yaw_output.txt
and the chart to <output_dir>/images/<label>_yaw_plot.<format>.

Exit codes:
  0 - Records were kept
  1 - No records survived filtering
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Label, "label", "", "Run label (overrides config)")
	cmd.Flags().StringVar(&opts.IDs, "ids", "", "Accepted IDs, separated by spaces or commas (added to the config's ids)")
	cmd.Flags().BoolVar(&opts.NoChart, "no-chart", false, "Skip chart rendering")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show column statistics and skipped records")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerAlways), "When to fire webhook (always|on_empty|never)")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	var overrides []config.Override
	if opts.Label != "" {
		if err := config.ValidateLabel(opts.Label); err != nil {
			return fmt.Errorf("--label: %w", err)
		}
		overrides = append(overrides, config.WithLabel(opts.Label))
	}
	if opts.IDs != "" {
		extra, err := ids.ParseList(opts.IDs)
		if err != nil {
			return fmt.Errorf("--ids: %w", err)
		}
		overrides = append(overrides, config.WithExtraIDs(extra.Sorted()...))
	}

	cfg, err := config.Load(ctx, configPath, overrides...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	hooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	var pipelineOpts []pipeline.Option
	if opts.NoChart {
		pipelineOpts = append(pipelineOpts, pipeline.WithoutChart())
	}

	result, err := pipeline.Run(ctx, cfg, pipelineOpts...)
	if err != nil {
		return err
	}

	report := output.NewReport(result, configPath)
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are logged, never fatal.
	if len(hooks) > 0 {
		webhook.NewClient().Notify(ctx, report, hooks)
	}

	if !report.HasRecords() {
		ExitCode = ExitEmpty
	}
	return nil
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *RunOptions) ([]config.WebhookConfig, error) {
	hooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	hooks = append(hooks, cfg.Webhooks...)

	if opts.WebhookURL == "" {
		return hooks, nil
	}

	cli := config.WebhookConfig{
		Name:    "cli",
		URL:     opts.WebhookURL,
		Token:   opts.WebhookToken,
		Trigger: config.WebhookTrigger(opts.WebhookTrigger),
	}
	if err := config.ValidateWebhook(&cli); err != nil {
		return nil, fmt.Errorf("--webhook-url: %w", err)
	}
	return append(hooks, cli), nil
}
