package metrics

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
)

func describeFixture() []dataset.Record {
	return []dataset.Record{
		{UserID: 1, MovieID: 1, Rating: 5, HasMovie: true, Year: 1995, Genres: []string{"Action", "Comedy"}},
		{UserID: 1, MovieID: 2, Rating: 3, HasMovie: true, Year: 1999, Genres: []string{"Comedy"}},
		{UserID: 2, MovieID: 1, Rating: 4, HasMovie: true, Year: 1995, Genres: []string{"Action", "Comedy"}},
		{UserID: 2, MovieID: 3, Rating: 3, HasMovie: true, Year: 1999, Genres: []string{"Drama"}},
		{UserID: 3, MovieID: 99, Rating: 0.5},
	}
}

func TestDescribe(t *testing.T) {
	d, err := Describe(describeFixture())
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	if d.Ratings != 5 || d.Users != 3 || d.Movies != 4 {
		t.Errorf("Unexpected counts: ratings=%d users=%d movies=%d", d.Ratings, d.Users, d.Movies)
	}
	if d.MissingMetadata != 1 {
		t.Errorf("Expected 1 rating without metadata, got %d", d.MissingMetadata)
	}
	if d.Genres != 3 {
		t.Errorf("Expected 3 genres, got %d", d.Genres)
	}

	if math.Abs(d.Mean-3.1) > 1e-12 {
		t.Errorf("Expected mean 3.1, got %v", d.Mean)
	}
	if d.Median != 3 {
		t.Errorf("Expected median 3, got %v", d.Median)
	}
	if d.Min != 0.5 || d.Max != 5 {
		t.Errorf("Expected range 0.5-5, got %v-%v", d.Min, d.Max)
	}
	if d.StdDev <= 0 {
		t.Errorf("Expected positive standard deviation, got %v", d.StdDev)
	}

	wantDist := []Bucket{{0.5, 1}, {3, 2}, {4, 1}, {5, 1}}
	if len(d.Distribution) != len(wantDist) {
		t.Fatalf("Expected %d buckets, got %d", len(wantDist), len(d.Distribution))
	}
	for i, b := range wantDist {
		if d.Distribution[i] != b {
			t.Errorf("Bucket %d: expected %+v, got %+v", i, b, d.Distribution[i])
		}
	}

	// Comedy: 3 ratings, Action: 2, Drama: 1 (fan-out counts)
	if d.ByGenre[0] != (KeyCount{Key: "Comedy", Count: 3}) {
		t.Errorf("Expected Comedy first, got %+v", d.ByGenre[0])
	}
	if d.ByGenre[1] != (KeyCount{Key: "Action", Count: 2}) {
		t.Errorf("Expected Action second, got %+v", d.ByGenre[1])
	}

	if len(d.ByYear) != 2 || d.ByYear[0].Key != "1995" || d.ByYear[0].Count != 2 {
		t.Errorf("Unexpected year counts: %+v", d.ByYear)
	}
}

func TestDescribeEmpty(t *testing.T) {
	if _, err := Describe(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestDescriptionPrint(t *testing.T) {
	d, err := Describe(describeFixture())
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	var buf bytes.Buffer
	d.Print(&buf, 1)
	out := buf.String()

	if !strings.Contains(out, "Comedy") {
		t.Errorf("Expected top genre in output\n%s", out)
	}
	if strings.Contains(out, "Drama") {
		t.Errorf("Expected genre listing to be limited to the top entry\n%s", out)
	}
	if !strings.Contains(out, "1995 - 1999") {
		t.Errorf("Expected release year range in output\n%s", out)
	}
}
