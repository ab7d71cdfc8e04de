package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/yawlog/internal/logger"
	"github.com/ccollicutt/yawlog/pkg/filter"
	"github.com/ccollicutt/yawlog/pkg/ids"
	"github.com/ccollicutt/yawlog/pkg/record"
)

// FilterOptions holds command-line options for the filter command.
type FilterOptions struct {
	In          string
	Out         string
	IDFile      string
	IDs         string
	OnMalformed string
}

// NewFilterCommand creates the filter command.
func NewFilterCommand() *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep log lines with accepted IDs and drop duplicates",
		Long: `Copy the lines of a yaw log whose "ID: " field is in the accepted set,
dropping lines that repeat an already written line byte for byte. Order is
preserved and the output is replaced atomically.

Lines without an ID field are dropped. A missing ID file is reported as a
warning and treated as an empty set.

Example:
  yawlog filter --in yaw.txt --out filtered.txt --id-file valid_ids.txt
  yawlog filter --in yaw.txt --out filtered.txt --ids "3 7 12"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "Input log file (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Filtered output file (required)")
	cmd.Flags().StringVar(&opts.IDFile, "id-file", "", "File of whitespace-separated accepted IDs")
	cmd.Flags().StringVar(&opts.IDs, "ids", "", "Accepted IDs, separated by spaces or commas")
	cmd.Flags().StringVar(&opts.OnMalformed, "on-malformed", string(record.MalformedFail), "Unreadable ID handling (fail|skip)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runFilter(cmd *cobra.Command, opts *FilterOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.IDFile == "" && opts.IDs == "" {
		return errors.New("one of --id-file or --ids is required")
	}

	policy, err := record.ParseMalformedPolicy(opts.OnMalformed)
	if err != nil {
		return fmt.Errorf("--on-malformed: %w", err)
	}

	accepted, err := acceptedIDs(ctx, opts.IDFile, opts.IDs)
	if err != nil {
		return err
	}

	stats, err := filter.FilterFile(ctx, opts.In, opts.Out, accepted, filter.WithMalformedPolicy(policy))
	if err != nil {
		return err
	}
	for _, m := range stats.Skipped {
		logger.Warn("skipped malformed record", "source", m.Source, "line", m.LineNum, "error", m.Err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Filtered log saved to %s (%d kept, %d duplicates, %d rejected, %d without id)\n",
		opts.Out, stats.Kept, stats.Duplicates, stats.Rejected, stats.NoID)

	if stats.Kept == 0 {
		ExitCode = ExitEmpty
	}
	return nil
}

// acceptedIDs merges an ID file and an inline list. A missing file is a
// warning.
func acceptedIDs(ctx context.Context, idFile, list string) (ids.Set, error) {
	inline := ids.NewSet()
	if list != "" {
		parsed, err := ids.ParseList(list)
		if err != nil {
			return nil, fmt.Errorf("--ids: %w", err)
		}
		inline = parsed
	}

	accepted, warnings, err := ids.Merge(ctx, idFile, inline)
	if err != nil {
		return nil, fmt.Errorf("loading ids: %w", err)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	logger.Info("loaded ids", "count", accepted.Len(), "ids", accepted.String())
	return accepted, nil
}
