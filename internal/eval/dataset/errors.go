package dataset

import "fmt"

// ParseError reports a malformed line in one of the dataset files
type ParseError struct {
	Source string // File name or logical source ("ratings", "movies")
	Line   int    // 1-based line number
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatError reports a movie title without a trailing "(YYYY)" release year
type FormatError struct {
	Title string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("no release year in title %q", e.Title)
}
