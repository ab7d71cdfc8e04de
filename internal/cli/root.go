// Package cli provides the command-line interface for yawlog.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/yawlog/internal/cli/commands"
	"github.com/ccollicutt/yawlog/internal/logger"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return execute(NewRootCommand())
}

func execute(root *cobra.Command) int {
	commands.ExitCode = commands.ExitOK
	if err := root.Execute(); err != nil {
		// SilenceErrors keeps cobra from printing this itself.
		logger.Error("command failed", "error", err)
		return commands.ExitError
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:   "yawlog",
		Short: "Filter yaw tracking logs by track ID and plot them",
		Long: `yawlog filters timestamped yaw tracking logs down to a set of accepted
track identifiers, drops byte-identical duplicate lines, extracts the numeric
series and plots them.

Two record layouts are built in:
  yaw          Time, ID, Yaw, Yaw3D
  state_meas   Time, ID, StateYaw, PredYaw, MeasYaw, CX

Run a whole configured job with "yawlog run", or use the filter and plot
stages on their own.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Configure(os.Stderr, logLevel, logFormat)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "Log format (text|json)")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewFilterCommand())
	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
