package dataset

import (
	"fmt"
	"regexp"
	"strconv"
)

// Rating represents one line of ratings.dat from the MovieLens 10M dataset
// Format: UserID::MovieID::Rating::Timestamp
type Rating struct {
	UserID    int
	MovieID   int
	Rating    float64 // 0.5 to 5.0 in half-star steps
	Timestamp int64   // Seconds since the Unix epoch
}

// Movie represents one line of movies.dat
// Format: MovieID::Title (Year)::Genre1|Genre2|...
type Movie struct {
	MovieID int
	Title   string
	Genres  []string
	Year    int
}

// Record is a rating joined with its movie metadata. HasMovie is false when
// movies.dat has no entry for the rating's MovieID; Title, Genres and Year are
// then left empty.
type Record struct {
	UserID    int      `parquet:"user_id"`
	MovieID   int      `parquet:"movie_id"`
	Rating    float64  `parquet:"rating"`
	Timestamp int64    `parquet:"timestamp"`
	Title     string   `parquet:"title"`
	Genres    []string `parquet:"genres,list"`
	Year      int      `parquet:"year"`
	HasMovie  bool     `parquet:"has_movie"`
}

// noGenres is the placeholder MovieLens uses for untagged movies
const noGenres = "(no genres listed)"

var yearPattern = regexp.MustCompile(`\((\d{4})\)\s*$`)

// ExtractYear returns the release year from the trailing "(YYYY)" of a title
func ExtractYear(title string) (int, error) {
	matches := yearPattern.FindStringSubmatch(title)
	if len(matches) < 2 {
		return 0, &FormatError{Title: title}
	}

	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, &FormatError{Title: title}
	}

	return year, nil
}

// String returns a short human-readable identifier for logging
func (r *Record) String() string {
	return fmt.Sprintf("user=%d movie=%d rating=%.1f", r.UserID, r.MovieID, r.Rating)
}
