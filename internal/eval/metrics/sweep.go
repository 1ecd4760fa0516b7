package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/bias"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
)

// SweepPoint is the held-out RMSE for one shrinkage candidate
type SweepPoint struct {
	Lambda float64 `json:"lambda" yaml:"lambda"`
	RMSE   float64 `json:"rmse" yaml:"rmse"`
}

// SweepResult is a complete lambda sweep and the selected candidate
type SweepResult struct {
	Stage  string       `json:"stage" yaml:"stage"`
	Points []SweepPoint `json:"points" yaml:"points"`
	Best   SweepPoint   `json:"best" yaml:"best"`
}

// maxLambdas bounds the size of a candidate grid
const maxLambdas = 100000

// Lambdas returns start, start+step, ... up to and including end. Values are
// computed as start + i*step so rounding does not accumulate, and a final step
// that would overshoot end is dropped.
func Lambdas(start, end, step float64) ([]float64, error) {
	for _, v := range []float64{start, end, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("lambda range values must be finite, got start=%v end=%v step=%v", start, end, step)
		}
	}
	if step <= 0 {
		return nil, fmt.Errorf("lambda step must be positive, got %v", step)
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid lambda range [%v, %v]", start, end)
	}

	steps := math.Floor((end-start)/step + 1e-9)
	if steps >= maxLambdas {
		return nil, fmt.Errorf("lambda range [%v, %v] with step %v has more than %d candidates", start, end, step, maxLambdas)
	}

	n := int(steps)
	lambdas := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		lambdas = append(lambdas, start+float64(i)*step)
	}
	return lambdas, nil
}

// SelectBest scans points in order and keeps the first minimum: only a
// strictly lower RMSE replaces the incumbent.
func SelectBest(points []SweepPoint) (SweepPoint, error) {
	if len(points) == 0 {
		return SweepPoint{}, errors.New("no sweep points to select from")
	}

	best := points[0]
	for _, p := range points[1:] {
		if p.RMSE < best.RMSE {
			best = p
		}
	}
	return best, nil
}

// Score returns the RMSE of an already fitted model on records
func Score(model *bias.Model, records []dataset.Record) (float64, error) {
	truth, pred := model.Observations(records)
	return RMSE(truth, pred)
}

// FitAndScore fits a model up to depth on train and scores it on holdout
func FitAndScore(train, holdout []dataset.Record, depth bias.Stage, lambda float64) (float64, error) {
	model, err := bias.Fit(train, depth, lambda)
	if err != nil {
		return 0, fmt.Errorf("failed to fit %s model (lambda=%v): %w", depth, lambda, err)
	}
	return Score(model, holdout)
}

// Sweep refits the bias chain up to depth for every lambda and scores each fit
// on holdout. Candidates are independent and run with at most concurrency
// workers; points keep the order of lambdas.
func Sweep(ctx context.Context, train, holdout []dataset.Record, depth bias.Stage, lambdas []float64, concurrency int) (*SweepResult, error) {
	if len(lambdas) == 0 {
		return nil, errors.New("no lambda candidates")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	start := time.Now()
	points := make([]SweepPoint, len(lambdas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, lambda := range lambdas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rmse, err := FitAndScore(train, holdout, depth, lambda)
			if err != nil {
				return err
			}

			points[i] = SweepPoint{Lambda: lambda, RMSE: rmse}
			slog.Debug("Sweep candidate scored", "stage", depth.String(), "lambda", lambda, "rmse", rmse)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("lambda sweep failed: %w", err)
	}

	best, err := SelectBest(points)
	if err != nil {
		return nil, err
	}

	slog.Info("Lambda sweep complete",
		"stage", depth.String(),
		"candidates", len(points),
		"best_lambda", best.Lambda,
		"best_rmse", best.RMSE,
		"duration", time.Since(start))

	return &SweepResult{Stage: depth.String(), Points: points, Best: best}, nil
}
