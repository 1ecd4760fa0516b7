// Package split partitions joined ratings into a training set and a held-out
// evaluation set.
//
// The partition is stratified by rating value so the held-out set mirrors the
// rating distribution, and it is repaired afterwards so every user and movie
// in the held-out set also appears in training.
package split

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
)

// ErrInvalidFraction is returned when the held-out fraction is outside [0, 1)
var ErrInvalidFraction = errors.New("held-out fraction must be in [0, 1)")

// Options configures a split
type Options struct {
	Fraction float64 // Share of each rating stratum sent to the held-out set
	Seed     uint64
}

// Result holds the two disjoint partitions
type Result struct {
	Train   []dataset.Record
	Holdout []dataset.Record
	Moved   int // Held-out rows moved back to training by the closure repair
}

// Split partitions records into training and held-out sets. The same seed and
// input always produce the same partition.
func Split(records []dataset.Record, opts Options) (*Result, error) {
	if opts.Fraction < 0 || opts.Fraction >= 1 || math.IsNaN(opts.Fraction) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidFraction, opts.Fraction)
	}

	held := sampleStrata(records, opts)

	train := make([]dataset.Record, 0, len(records)-len(held))
	holdout := make([]dataset.Record, 0, len(held))
	for i := range records {
		if held[i] {
			holdout = append(holdout, records[i])
		} else {
			train = append(train, records[i])
		}
	}

	holdout, moved := repairClosure(train, holdout)
	train = append(train, moved...)

	slog.Debug("Split complete",
		"train", len(train),
		"holdout", len(holdout),
		"moved_back", len(moved))

	return &Result{Train: train, Holdout: holdout, Moved: len(moved)}, nil
}

// sampleStrata picks ceil(fraction*n) indices from every rating stratum and
// returns them as a set.
func sampleStrata(records []dataset.Record, opts Options) map[int]bool {
	strata := make(map[float64][]int)
	for i, r := range records {
		strata[r.Rating] = append(strata[r.Rating], i)
	}

	// Visit strata in ascending rating order so the RNG stream is deterministic
	values := make([]float64, 0, len(strata))
	for v := range strata {
		values = append(values, v)
	}
	sort.Float64s(values)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	held := make(map[int]bool)

	for _, v := range values {
		idx := strata[v]
		take := int(math.Ceil(opts.Fraction * float64(len(idx))))
		if take == 0 {
			continue
		}

		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})

		for _, i := range idx[:take] {
			held[i] = true
		}
	}

	return held
}

// repairClosure keeps held-out rows whose user and movie both occur in train
// and returns the rest separately.
func repairClosure(train, holdout []dataset.Record) (kept, moved []dataset.Record) {
	users := make(map[int]struct{})
	movies := make(map[int]struct{})
	for _, r := range train {
		users[r.UserID] = struct{}{}
		movies[r.MovieID] = struct{}{}
	}

	kept = holdout[:0]
	for _, r := range holdout {
		_, userOK := users[r.UserID]
		_, movieOK := movies[r.MovieID]
		if userOK && movieOK {
			kept = append(kept, r)
		} else {
			moved = append(moved, r)
		}
	}

	return kept, moved
}
