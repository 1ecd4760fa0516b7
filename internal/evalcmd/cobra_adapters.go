package evalcmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/moviebias/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagKeys maps command-line flags to the config keys they override
var flagKeys = map[string]string{
	"ratings":      "ratings",
	"movies":       "movies",
	"sample":       "sample",
	"output":       "output",
	"holdout":      "holdout_fraction",
	"seed":         "seed",
	"lambda-start": "lambda_start",
	"lambda-end":   "lambda_end",
	"lambda-step":  "lambda_step",
	"concurrency":  "concurrency",
}

func addDatasetFlags(cmd *cobra.Command) {
	def := config.Default()
	cmd.Flags().String("ratings", def.RatingsPath, "Path to ratings.dat, or a joined .parquet cache")
	cmd.Flags().String("movies", def.MoviesPath, "Path to movies.dat")
	cmd.Flags().Int("sample", def.Sample, "Number of ratings to load (0 for all)")
}

func addSplitFlags(cmd *cobra.Command) {
	def := config.Default()
	cmd.Flags().String("output", def.OutputDir, "Output directory for results")
	cmd.Flags().Float64("holdout", def.HoldoutFraction, "Fraction of each rating stratum held out for evaluation")
	cmd.Flags().Uint64("seed", def.Seed, "Random seed for the split")
	cmd.Flags().Float64("lambda-start", def.LambdaStart, "First lambda candidate")
	cmd.Flags().Float64("lambda-end", def.LambdaEnd, "Last lambda candidate")
	cmd.Flags().Float64("lambda-step", def.LambdaStep, "Step between lambda candidates")
	cmd.Flags().Int("concurrency", def.Concurrency, "Number of lambda candidates fitted in parallel")
}

// resolveConfig loads the config file and environment, then applies only the
// flags the user actually set
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	overrides := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})

	cfg, err := config.Load(path, overrides)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// NewPrepareCmd creates the prepare command which caches the joined dataset
func NewPrepareCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Parse and join the MovieLens files into a parquet cache",
		Long: `Parse ratings.dat and movies.dat, join them on MovieID and write the
joined records to a parquet file.

Later commands accept the parquet file as --ratings and skip parsing.`,
		Example: `  # Cache the full 10M dataset
  moviebias prepare --ratings ./ml-10M100K/ratings.dat --movies ./ml-10M100K/movies.dat

  # Cache the first 100k ratings to a custom path
  moviebias prepare --sample 100000 --cache ./sample.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return executePrepare(cfg, cachePath, cmd.OutOrStdout())
		},
	}

	addDatasetFlags(cmd)
	cmd.Flags().StringVar(&cachePath, "cache", "./ml-10M100K/joined.parquet", "Path of the parquet file to write")

	return cmd
}

// NewDescribeCmd creates the describe command
func NewDescribeCmd() *cobra.Command {
	var format string
	var top int

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print descriptive statistics of the ratings dataset",
		Long: `Load and join the dataset and print rating counts, the rating
distribution, summary statistics, and ratings per genre and release year.`,
		Example: `  # Describe the full dataset
  moviebias describe

  # Machine-readable output
  moviebias describe --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return executeDescribe(cfg, format, top, cmd.OutOrStdout())
		},
	}

	addDatasetFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, yaml)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of genres to list in text output (0 for all)")

	return cmd
}

// NewRunCmd creates the run command which fits and scores every bias model
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Split the dataset, fit the bias models and score them by RMSE",
		Long: `Run the full evaluation:

  1. Load and join ratings and movies
  2. Hold out a rating-stratified fraction, keeping every held-out user and movie in training
  3. Fit the mean, movie, user, year and genre bias models
  4. Sweep lambda for the regularized movie+user and full models
  5. Save the results table to <output>/results.yaml and results.json`,
		Example: `  # Reference run
  moviebias run

  # Quick run on a sample with a coarse sweep
  moviebias run --sample 200000 --lambda-step 1 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			if _, err := os.Stat(cfg.RatingsPath); os.IsNotExist(err) {
				return fmt.Errorf("ratings file not found: %s\n\nDownload and unzip the MovieLens 10M dataset first:\n  https://files.grouplens.org/datasets/movielens/ml-10m.zip", cfg.RatingsPath)
			}

			_, err = executeRun(cmd.Context(), cfg, cmd.OutOrStdout())
			return err
		},
	}

	addDatasetFlags(cmd)
	addSplitFlags(cmd)

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string
	var sweeps bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a saved results table",
		Example: `  # Text summary
  moviebias report --results ./eval_results

  # Lambda sweep points as CSV
  moviebias report --format csv --sweeps`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(resultsPath, format, sweeps, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", config.Default().OutputDir, "Results directory or results.yaml file")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")
	cmd.Flags().BoolVar(&sweeps, "sweeps", false, "Report lambda sweep points instead of the results table")

	return cmd
}
