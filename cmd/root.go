package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/moviebias/internal/evalcmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "moviebias",
		Short: "Baseline bias models for the MovieLens 10M ratings dataset",
		Long: `Moviebias fits additive bias models (global mean, movie, user, release year
and genre effects) to MovieLens ratings and scores them by RMSE on a held-out set.

Settings come from defaults, an optional YAML file (--config), MOVIEBIAS_*
environment variables (a .env file is loaded if present) and flags, in that order.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().String("config", "", "Path to a YAML config file")

	cmd.AddCommand(evalcmd.NewPrepareCmd())
	cmd.AddCommand(evalcmd.NewDescribeCmd())
	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
