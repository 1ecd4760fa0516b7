// Package bias fits additive bias models of the form
//
//	rating ≈ mu + b_movie + b_user + b_year + b_genre
//
// Stages are fitted left to right. Each stage averages the residuals left by
// the stages before it and never revisits them. A shrinkage parameter lambda
// divides each group sum by (count + lambda) instead of count.
package bias

import (
	"errors"
	"fmt"
	"math"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
)

var (
	// ErrEmpty is returned when fitting on an empty training set
	ErrEmpty = errors.New("training set is empty")

	// ErrInvalidLambda is returned for negative or non-finite shrinkage
	ErrInvalidLambda = errors.New("lambda must be a finite non-negative number")
)

// Stage identifies how far along the bias chain a model has been fitted
type Stage int

const (
	StageMean Stage = iota
	StageMovie
	StageUser
	StageYear
	StageGenre
)

func (s Stage) String() string {
	switch s {
	case StageMean:
		return "mean"
	case StageMovie:
		return "movie"
	case StageUser:
		return "user"
	case StageYear:
		return "year"
	case StageGenre:
		return "genre"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Model is an immutable snapshot of a fitted bias chain. Tables for stages
// beyond Depth are nil.
type Model struct {
	Mu     float64
	Lambda float64
	Depth  Stage

	Movie Table[int]
	User  Table[int]
	Year  Table[int]
	Genre Table[string]
}

// GlobalMean is the arithmetic mean of all training ratings
func GlobalMean(train []dataset.Record) (float64, error) {
	if len(train) == 0 {
		return 0, ErrEmpty
	}

	var sum float64
	for _, r := range train {
		sum += r.Rating
	}
	return sum / float64(len(train)), nil
}

// Fit fits every stage from the global mean up to depth on train
func Fit(train []dataset.Record, depth Stage, lambda float64) (*Model, error) {
	if depth < StageMean || depth > StageGenre {
		return nil, fmt.Errorf("unknown stage %d", int(depth))
	}
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLambda, lambda)
	}

	mu, err := GlobalMean(train)
	if err != nil {
		return nil, err
	}

	m := Model{Mu: mu, Lambda: lambda, Depth: StageMean}
	for stage := StageMovie; stage <= depth; stage++ {
		m = m.extend(train, stage)
	}

	return &m, nil
}

// extend returns a copy of m with one more stage fitted on the residuals of
// the stages already in m. Earlier tables are shared, not copied.
func (m Model) extend(train []dataset.Record, stage Stage) Model {
	next := m
	next.Depth = stage

	switch stage {
	case StageMovie:
		acc := newAccumulator[int]()
		for _, r := range train {
			acc.add(r.MovieID, r.Rating-m.Base(r))
		}
		next.Movie = acc.table(m.Lambda)

	case StageUser:
		acc := newAccumulator[int]()
		for _, r := range train {
			acc.add(r.UserID, r.Rating-m.Base(r))
		}
		next.User = acc.table(m.Lambda)

	case StageYear:
		acc := newAccumulator[int]()
		for _, r := range train {
			if !r.HasMovie {
				continue
			}
			acc.add(r.Year, r.Rating-m.Base(r))
		}
		next.Year = acc.table(m.Lambda)

	case StageGenre:
		// A record tagged A|B is one observation for A and one for B
		acc := newAccumulator[string]()
		for _, r := range train {
			residual := r.Rating - m.Base(r)
			for _, g := range r.Genres {
				acc.add(g, residual)
			}
		}
		next.Genre = acc.table(m.Lambda)
	}

	return next
}

// Base is the prediction for r from every fitted stage except genre
func (m *Model) Base(r dataset.Record) float64 {
	pred := m.Mu
	if m.Depth >= StageMovie {
		pred += m.Movie.Offset(r.MovieID)
	}
	if m.Depth >= StageUser {
		pred += m.User.Offset(r.UserID)
	}
	if m.Depth >= StageYear && r.HasMovie {
		pred += m.Year.Offset(r.Year)
	}
	return pred
}

// Predict returns the prediction for r under a single genre tag. An empty
// genre, an unseen tag or a model without a genre stage adds nothing.
func (m *Model) Predict(r dataset.Record, genre string) float64 {
	pred := m.Base(r)
	if m.Depth >= StageGenre && genre != "" {
		pred += m.Genre.Offset(genre)
	}
	return pred
}

// Observations returns aligned truth and prediction slices for records.
// With a genre stage fitted, every genre tag of a record is its own
// observation, weighted the same way the genre stage was fitted; records
// without tags yield a single observation.
func (m *Model) Observations(records []dataset.Record) (truth, pred []float64) {
	truth = make([]float64, 0, len(records))
	pred = make([]float64, 0, len(records))

	for _, r := range records {
		if m.Depth < StageGenre || len(r.Genres) == 0 {
			truth = append(truth, r.Rating)
			pred = append(pred, m.Predict(r, ""))
			continue
		}
		for _, g := range r.Genres {
			truth = append(truth, r.Rating)
			pred = append(pred, m.Predict(r, g))
		}
	}

	return truth, pred
}
