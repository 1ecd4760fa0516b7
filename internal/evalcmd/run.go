package evalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/moviebias/internal/config"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/bias"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/metrics"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/results"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/split"
)

// modelVariant is one row of the results table
type modelVariant struct {
	method      string
	depth       bias.Stage
	regularized bool
}

// variants are evaluated and appended in this order
var variants = []modelVariant{
	{method: "Just the average", depth: bias.StageMean},
	{method: "Movie Effect", depth: bias.StageMovie},
	{method: "Movie + User Effects", depth: bias.StageUser},
	{method: "Movie + User + Year Effects", depth: bias.StageYear},
	{method: "Movie + User + Year + Genre Effects", depth: bias.StageGenre},
	{method: "Regularized Movie + User Effects", depth: bias.StageUser, regularized: true},
	{method: "Regularized Movie + User + Year + Genre Effects", depth: bias.StageGenre, regularized: true},
}

func loadRecords(cfg *config.Config) ([]dataset.Record, error) {
	loader := dataset.NewLoader(cfg.RatingsPath, cfg.MoviesPath)

	var records []dataset.Record
	var err error

	if cfg.Sample > 0 {
		slog.Info("Loading sample from dataset", "limit", cfg.Sample)
		records, err = loader.LoadSample(cfg.Sample)
	} else {
		slog.Info("Loading full dataset", "ratings", cfg.RatingsPath, "movies", cfg.MoviesPath)
		records, err = loader.Load()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	slog.Info("Dataset loaded", "records", len(records))

	return records, nil
}

func executeRun(ctx context.Context, cfg *config.Config, out io.Writer) (*metrics.AggregateResults, error) {
	startTime := time.Now()

	lambdas, err := metrics.Lambdas(cfg.LambdaStart, cfg.LambdaEnd, cfg.LambdaStep)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting evaluation run",
		"holdout_fraction", cfg.HoldoutFraction,
		"seed", cfg.Seed,
		"lambda_candidates", len(lambdas),
		"concurrency", cfg.Concurrency)

	records, err := loadRecords(cfg)
	if err != nil {
		return nil, err
	}

	parts, err := split.Split(records, split.Options{Fraction: cfg.HoldoutFraction, Seed: cfg.Seed})
	if err != nil {
		return nil, fmt.Errorf("failed to split dataset: %w", err)
	}

	slog.Info("Dataset split",
		"train", len(parts.Train),
		"holdout", len(parts.Holdout),
		"moved_back", parts.Moved)

	agg := metrics.NewAggregateResults(metrics.RunConfig{
		RatingsPath:     cfg.RatingsPath,
		MoviesPath:      cfg.MoviesPath,
		HoldoutFraction: cfg.HoldoutFraction,
		Seed:            cfg.Seed,
		Lambdas:         lambdas,
		Concurrency:     cfg.Concurrency,
	})
	agg.TotalRecords = len(records)
	agg.TrainSize = len(parts.Train)
	agg.HoldoutSize = len(parts.Holdout)
	agg.MovedBack = parts.Moved

	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label := fmt.Sprintf("Model %d", len(agg.Rows)+1)
		stageStart := time.Now()

		var rmse float64
		if v.regularized {
			sweep, err := metrics.Sweep(ctx, parts.Train, parts.Holdout, v.depth, lambdas, cfg.Concurrency)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate %q: %w", v.method, err)
			}
			agg.AddSweep(sweep)
			rmse = sweep.Best.RMSE
		} else {
			rmse, err = metrics.FitAndScore(parts.Train, parts.Holdout, v.depth, 0)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate %q: %w", v.method, err)
			}
		}

		agg.Append(label, v.method, rmse)
		slog.Info("Model evaluated",
			"label", label,
			"method", v.method,
			"rmse", rmse,
			"duration", time.Since(stageStart))
	}

	agg.TotalProcessingTime = time.Since(startTime)

	slog.Info("Saving results", "output", cfg.OutputDir)
	if err := results.Save(cfg.OutputDir, agg); err != nil {
		return nil, fmt.Errorf("failed to save results: %w", err)
	}

	agg.PrintSummary(out)

	fmt.Fprintf(out, "\nResults saved to: %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "\nPrint them again with:\n")
	fmt.Fprintf(out, "  moviebias report --results %s\n", cfg.OutputDir)

	return agg, nil
}
