package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
)

// Bucket counts ratings with one exact value
type Bucket struct {
	Value float64 `json:"value" yaml:"value"`
	Count int     `json:"count" yaml:"count"`
}

// KeyCount counts ratings per grouping key (year or genre)
type KeyCount struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// Description holds descriptive statistics of a joined dataset
type Description struct {
	Ratings         int `json:"ratings" yaml:"ratings"`
	Users           int `json:"users" yaml:"users"`
	Movies          int `json:"movies" yaml:"movies"`
	Genres          int `json:"genres" yaml:"genres"`
	MissingMetadata int `json:"missing_metadata" yaml:"missing_metadata"`

	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`

	MedianRatingsPerUser  float64 `json:"median_ratings_per_user" yaml:"median_ratings_per_user"`
	MedianRatingsPerMovie float64 `json:"median_ratings_per_movie" yaml:"median_ratings_per_movie"`

	Distribution []Bucket   `json:"distribution" yaml:"distribution"` // Ascending by value
	ByYear       []KeyCount `json:"by_year" yaml:"by_year"`           // Ascending by year
	ByGenre      []KeyCount `json:"by_genre" yaml:"by_genre"`         // Descending by count
}

// Describe computes descriptive statistics. Genre counts fan out: a rating of
// an "Action|Comedy" movie counts once for each tag.
func Describe(records []dataset.Record) (*Description, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	values := make([]float64, len(records))
	perUser := make(map[int]int)
	perMovie := make(map[int]int)
	perValue := make(map[float64]int)
	perYear := make(map[int]int)
	perGenre := make(map[string]int)
	missing := 0

	for i, r := range records {
		values[i] = r.Rating
		perUser[r.UserID]++
		perMovie[r.MovieID]++
		perValue[r.Rating]++

		if !r.HasMovie {
			missing++
			continue
		}
		perYear[r.Year]++
		for _, g := range r.Genres {
			perGenre[g]++
		}
	}

	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)

	d := &Description{
		Ratings:               len(records),
		Users:                 len(perUser),
		Movies:                len(perMovie),
		Genres:                len(perGenre),
		MissingMetadata:       missing,
		Mean:                  mean,
		Median:                stat.Quantile(0.5, stat.Empirical, values, nil),
		StdDev:                std,
		Min:                   values[0],
		Max:                   values[len(values)-1],
		MedianRatingsPerUser:  medianCount(perUser),
		MedianRatingsPerMovie: medianCount(perMovie),
	}

	for v, n := range perValue {
		d.Distribution = append(d.Distribution, Bucket{Value: v, Count: n})
	}
	sort.Slice(d.Distribution, func(i, j int) bool {
		return d.Distribution[i].Value < d.Distribution[j].Value
	})

	years := make([]int, 0, len(perYear))
	for y := range perYear {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		d.ByYear = append(d.ByYear, KeyCount{Key: fmt.Sprint(y), Count: perYear[y]})
	}

	for g, n := range perGenre {
		d.ByGenre = append(d.ByGenre, KeyCount{Key: g, Count: n})
	}
	sort.Slice(d.ByGenre, func(i, j int) bool {
		if d.ByGenre[i].Count != d.ByGenre[j].Count {
			return d.ByGenre[i].Count > d.ByGenre[j].Count
		}
		return d.ByGenre[i].Key < d.ByGenre[j].Key
	})

	return d, nil
}

func medianCount[K comparable](counts map[K]int) float64 {
	xs := make([]float64, 0, len(counts))
	for _, n := range counts {
		xs = append(xs, float64(n))
	}
	sort.Float64s(xs)
	return stat.Quantile(0.5, stat.Empirical, xs, nil)
}

// Print writes the description; top limits the genre listing (0 for all)
func (d *Description) Print(w io.Writer, top int) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, "DATASET DESCRIPTION")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Ratings:            %d\n", d.Ratings)
	fmt.Fprintf(w, "Users:              %d\n", d.Users)
	fmt.Fprintf(w, "Movies:             %d\n", d.Movies)
	fmt.Fprintf(w, "Genres:             %d\n", d.Genres)
	fmt.Fprintf(w, "Missing metadata:   %d\n", d.MissingMetadata)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Mean rating:        %.4f\n", d.Mean)
	fmt.Fprintf(w, "Median rating:      %.1f\n", d.Median)
	fmt.Fprintf(w, "Std deviation:      %.4f\n", d.StdDev)
	fmt.Fprintf(w, "Range:              %.1f - %.1f\n", d.Min, d.Max)
	fmt.Fprintf(w, "Median per user:    %.0f ratings\n", d.MedianRatingsPerUser)
	fmt.Fprintf(w, "Median per movie:   %.0f ratings\n", d.MedianRatingsPerMovie)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RATING DISTRIBUTION")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, b := range d.Distribution {
		fmt.Fprintf(w, "  %.1f: %d (%.2f%%)\n", b.Value, b.Count, float64(b.Count)/float64(d.Ratings)*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RATINGS BY GENRE")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	genres := d.ByGenre
	if top > 0 && len(genres) > top {
		genres = genres[:top]
	}
	for _, g := range genres {
		fmt.Fprintf(w, "  %-20s %d\n", g.Key, g.Count)
	}
	fmt.Fprintln(w)

	if len(d.ByYear) > 0 {
		fmt.Fprintf(w, "Release years: %s - %s across %d distinct years\n",
			d.ByYear[0].Key, d.ByYear[len(d.ByYear)-1].Key, len(d.ByYear))
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}
