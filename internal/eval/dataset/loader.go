package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// FieldSeparator is the MovieLens 10M field delimiter
const FieldSeparator = "::"

const (
	ratingFields = 4
	movieFields  = 3
)

// Loader handles loading of the MovieLens ratings and movie tables
type Loader struct {
	ratingsPath string
	moviesPath  string
}

// NewLoader creates a new dataset loader. A ratingsPath ending in .parquet is
// read as a joined cache written by SaveParquet and moviesPath is ignored.
func NewLoader(ratingsPath, moviesPath string) *Loader {
	return &Loader{
		ratingsPath: ratingsPath,
		moviesPath:  moviesPath,
	}
}

// Load loads and joins every rating
func (l *Loader) Load() ([]Record, error) {
	return l.load(-1)
}

// LoadSample loads the first limit ratings (useful for testing)
func (l *Loader) LoadSample(limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("sample limit must be positive, got %d", limit)
	}
	return l.load(limit)
}

func (l *Loader) load(limit int) ([]Record, error) {
	ext := strings.ToLower(filepath.Ext(l.ratingsPath))

	switch ext {
	case ".parquet":
		return l.loadParquet(limit)
	case ".dat":
		return l.loadDat(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .dat, .parquet)", ext)
	}
}

func (l *Loader) loadDat(limit int) ([]Record, error) {
	slog.Debug("Opening movies file", "path", l.moviesPath)

	moviesFile, err := os.Open(l.moviesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open movies file: %w", err)
	}
	defer moviesFile.Close()

	movies, err := parseMovies(moviesFile, filepath.Base(l.moviesPath))
	if err != nil {
		return nil, err
	}

	slog.Debug("Parsed movies", "count", len(movies))

	ratingsFile, err := os.Open(l.ratingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings file: %w", err)
	}
	defer ratingsFile.Close()

	info, err := ratingsFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	slog.Debug("Ratings file stats", "size_bytes", info.Size(), "size_mb", info.Size()/1024/1024)

	ratings, err := parseRatings(ratingsFile, filepath.Base(l.ratingsPath), limit)
	if err != nil {
		return nil, err
	}

	records := Join(ratings, movies)
	if len(records) > 0 {
		slog.Debug("First record sample", "record", records[0].String(), "title", records[0].Title, "year", records[0].Year)
	}

	return records, nil
}

// ParseRatings reads UserID::MovieID::Rating::Timestamp lines
func ParseRatings(r io.Reader) ([]Rating, error) {
	return parseRatings(r, "ratings", -1)
}

func parseRatings(r io.Reader, source string, limit int) ([]Rating, error) {
	var ratings []Rating

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		if limit >= 0 && len(ratings) >= limit {
			break
		}

		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		rating, err := parseRatingLine(line)
		if err != nil {
			return nil, &ParseError{Source: source, Line: lineNum, Err: err}
		}

		ratings = append(ratings, rating)

		// Log progress every million lines
		if lineNum%1_000_000 == 0 {
			slog.Debug("Reading ratings", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", source, err)
	}

	slog.Debug("Finished reading ratings", "total_ratings", len(ratings), "total_lines", lineNum)

	return ratings, nil
}

func parseRatingLine(line string) (Rating, error) {
	parts := strings.Split(line, FieldSeparator)
	if len(parts) != ratingFields {
		return Rating{}, fmt.Errorf("expected %d fields, got %d", ratingFields, len(parts))
	}

	userID, err := strconv.Atoi(parts[0])
	if err != nil {
		return Rating{}, fmt.Errorf("invalid user id %q", parts[0])
	}

	movieID, err := strconv.Atoi(parts[1])
	if err != nil {
		return Rating{}, fmt.Errorf("invalid movie id %q", parts[1])
	}

	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Rating{}, fmt.Errorf("invalid rating %q", parts[2])
	}

	timestamp, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Rating{}, fmt.Errorf("invalid timestamp %q", parts[3])
	}

	return Rating{UserID: userID, MovieID: movieID, Rating: value, Timestamp: timestamp}, nil
}

// ParseMovies reads MovieID::Title::Genres lines
func ParseMovies(r io.Reader) ([]Movie, error) {
	return parseMovies(r, "movies")
}

func parseMovies(r io.Reader, source string) ([]Movie, error) {
	var movies []Movie
	seen := make(map[int]int)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		movie, err := parseMovieLine(line)
		if err != nil {
			return nil, &ParseError{Source: source, Line: lineNum, Err: err}
		}

		if first, dup := seen[movie.MovieID]; dup {
			return nil, &ParseError{
				Source: source,
				Line:   lineNum,
				Err:    fmt.Errorf("duplicate movie id %d (first seen on line %d)", movie.MovieID, first),
			}
		}
		seen[movie.MovieID] = lineNum

		movies = append(movies, movie)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", source, err)
	}

	return movies, nil
}

func parseMovieLine(line string) (Movie, error) {
	parts := strings.Split(line, FieldSeparator)
	if len(parts) != movieFields {
		return Movie{}, fmt.Errorf("expected %d fields, got %d", movieFields, len(parts))
	}

	movieID, err := strconv.Atoi(parts[0])
	if err != nil {
		return Movie{}, fmt.Errorf("invalid movie id %q", parts[0])
	}

	title := strings.TrimSpace(parts[1])
	year, err := ExtractYear(title)
	if err != nil {
		return Movie{}, err
	}

	return Movie{
		MovieID: movieID,
		Title:   title,
		Genres:  splitGenres(parts[2]),
		Year:    year,
	}, nil
}

func splitGenres(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" || field == noGenres {
		return nil
	}

	var genres []string
	for _, g := range strings.Split(field, "|") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// Join left-joins ratings to movies on MovieID, keeping rating order.
// Ratings with no matching movie keep null metadata (HasMovie == false).
func Join(ratings []Rating, movies []Movie) []Record {
	byID := make(map[int]*Movie, len(movies))
	for i := range movies {
		byID[movies[i].MovieID] = &movies[i]
	}

	records := make([]Record, len(ratings))
	missing := 0
	for i, r := range ratings {
		records[i] = Record{
			UserID:    r.UserID,
			MovieID:   r.MovieID,
			Rating:    r.Rating,
			Timestamp: r.Timestamp,
		}

		m, ok := byID[r.MovieID]
		if !ok {
			missing++
			continue
		}

		records[i].Title = m.Title
		records[i].Genres = m.Genres
		records[i].Year = m.Year
		records[i].HasMovie = true
	}

	if missing > 0 {
		slog.Warn("Ratings without movie metadata", "count", missing)
	}

	return records
}

// SaveParquet writes joined records to a parquet cache file
func SaveParquet(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Record](file)

	const batchSize = 8192
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		if _, err := writer.Write(records[start:end]); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote parquet cache", "path", path, "rows", len(records))

	return nil
}

// loadParquet loads joined records from a parquet cache
func (l *Loader) loadParquet(limit int) ([]Record, error) {
	slog.Debug("Opening Parquet file", "path", l.ratingsPath)

	file, err := os.Open(l.ratingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record

	for limit < 0 || len(records) < limit {
		// Fresh batch per read so genre slices are not shared with the reader
		rows := make([]Record, 1024)
		n, err := reader.Read(rows)
		if n > 0 {
			if limit >= 0 {
				n = min(n, limit-len(records))
			}
			records = append(records, rows[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(records))

	return records, nil
}
