package split

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
)

// syntheticRecords builds a dense grid of users x movies with ratings cycling
// through the half-star scale.
func syntheticRecords(users, movies int) []dataset.Record {
	scale := []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5}

	records := make([]dataset.Record, 0, users*movies)
	for u := 1; u <= users; u++ {
		for m := 1; m <= movies; m++ {
			records = append(records, dataset.Record{
				UserID:    u,
				MovieID:   m,
				Rating:    scale[(u*7+m*3)%len(scale)],
				Timestamp: int64(u*1000 + m),
				HasMovie:  true,
			})
		}
	}
	return records
}

func recordKey(r dataset.Record) string {
	return fmt.Sprintf("%d/%d/%d", r.UserID, r.MovieID, r.Timestamp)
}

func TestSplitPartitionsInput(t *testing.T) {
	records := syntheticRecords(40, 25)

	result, err := Split(records, Options{Fraction: 0.1, Seed: 1})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(result.Train)+len(result.Holdout) != len(records) {
		t.Fatalf("Expected %d rows in total, got %d", len(records), len(result.Train)+len(result.Holdout))
	}

	counts := make(map[string]int)
	for _, r := range records {
		counts[recordKey(r)]++
	}
	for _, r := range result.Train {
		counts[recordKey(r)]--
	}
	for _, r := range result.Holdout {
		counts[recordKey(r)]--
	}
	for key, c := range counts {
		if c != 0 {
			t.Errorf("Record %s appears with multiplicity offset %d", key, c)
		}
	}

	if len(result.Holdout) == 0 {
		t.Error("Expected a non-empty held-out set")
	}
}

func TestSplitReferentialClosure(t *testing.T) {
	records := syntheticRecords(30, 20)
	// Users and movies seen exactly once can only stay valid in training
	records = append(records,
		dataset.Record{UserID: 500, MovieID: 1, Rating: 4, Timestamp: 1},
		dataset.Record{UserID: 1, MovieID: 900, Rating: 4, Timestamp: 2},
	)

	for seed := uint64(0); seed < 20; seed++ {
		result, err := Split(records, Options{Fraction: 0.5, Seed: seed})
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}

		users := make(map[int]bool)
		movies := make(map[int]bool)
		for _, r := range result.Train {
			users[r.UserID] = true
			movies[r.MovieID] = true
		}

		for _, r := range result.Holdout {
			if !users[r.UserID] {
				t.Errorf("seed %d: held-out user %d missing from training", seed, r.UserID)
			}
			if !movies[r.MovieID] {
				t.Errorf("seed %d: held-out movie %d missing from training", seed, r.MovieID)
			}
		}
	}
}

func TestSplitMovesSingletonsBack(t *testing.T) {
	records := []dataset.Record{
		{UserID: 1, MovieID: 1, Rating: 4},
		{UserID: 2, MovieID: 2, Rating: 4},
	}

	// Fraction close to 1 puts every row in the held-out stratum sample
	result, err := Split(records, Options{Fraction: 0.99, Seed: 7})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(result.Holdout) != 0 {
		t.Errorf("Expected empty held-out set, got %d rows", len(result.Holdout))
	}
	if result.Moved != 2 {
		t.Errorf("Expected 2 rows moved back, got %d", result.Moved)
	}
	if len(result.Train) != 2 {
		t.Errorf("Expected 2 training rows, got %d", len(result.Train))
	}
}

func TestSplitDeterministic(t *testing.T) {
	records := syntheticRecords(30, 30)

	a, err := Split(records, Options{Fraction: 0.1, Seed: 42})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	b, err := Split(records, Options{Fraction: 0.1, Seed: 42})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(a.Holdout) != len(b.Holdout) {
		t.Fatalf("Expected equal held-out sizes, got %d and %d", len(a.Holdout), len(b.Holdout))
	}
	for i := range a.Holdout {
		if recordKey(a.Holdout[i]) != recordKey(b.Holdout[i]) {
			t.Fatalf("Held-out row %d differs: %s vs %s", i, recordKey(a.Holdout[i]), recordKey(b.Holdout[i]))
		}
	}
}

func TestSplitStratified(t *testing.T) {
	records := syntheticRecords(50, 40)

	result, err := Split(records, Options{Fraction: 0.1, Seed: 3})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	inputCounts := make(map[float64]int)
	for _, r := range records {
		inputCounts[r.Rating]++
	}
	heldCounts := make(map[float64]int)
	for _, r := range result.Holdout {
		heldCounts[r.Rating]++
	}

	// The dense grid keeps closure repair from moving anything back
	if result.Moved != 0 {
		t.Fatalf("Expected no repaired rows, got %d", result.Moved)
	}

	for rating, n := range inputCounts {
		want := (n + 9) / 10
		if heldCounts[rating] != want {
			t.Errorf("rating %.1f: expected %d held-out rows, got %d", rating, want, heldCounts[rating])
		}
	}
}

func TestSplitInvalidFraction(t *testing.T) {
	for _, fraction := range []float64{-0.1, 1, 1.5} {
		_, err := Split(nil, Options{Fraction: fraction})
		if !errors.Is(err, ErrInvalidFraction) {
			t.Errorf("fraction %v: expected ErrInvalidFraction, got %v", fraction, err)
		}
	}
}

func TestSplitZeroFraction(t *testing.T) {
	records := syntheticRecords(5, 5)

	result, err := Split(records, Options{Fraction: 0, Seed: 1})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(result.Holdout) != 0 || len(result.Train) != len(records) {
		t.Errorf("Expected everything in training, got train=%d holdout=%d", len(result.Train), len(result.Holdout))
	}
}
