package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ResultRow is one evaluated model variant
type ResultRow struct {
	Label  string  `json:"label" yaml:"label"`
	Method string  `json:"method" yaml:"method"`
	RMSE   float64 `json:"rmse" yaml:"rmse"`
}

// RunConfig records the parameters a run was produced with
type RunConfig struct {
	RatingsPath     string    `json:"ratings_path" yaml:"ratings_path"`
	MoviesPath      string    `json:"movies_path" yaml:"movies_path"`
	HoldoutFraction float64   `json:"holdout_fraction" yaml:"holdout_fraction"`
	Seed            uint64    `json:"seed" yaml:"seed"`
	Lambdas         []float64 `json:"lambdas" yaml:"lambdas,flow"`
	Concurrency     int       `json:"concurrency" yaml:"concurrency"`
}

// AggregateResults is everything a run produces: the results table in the
// order models were evaluated, the lambda sweeps, and split statistics.
type AggregateResults struct {
	Config RunConfig `json:"config" yaml:"config"`

	TotalRecords int `json:"total_records" yaml:"total_records"`
	TrainSize    int `json:"train_size" yaml:"train_size"`
	HoldoutSize  int `json:"holdout_size" yaml:"holdout_size"`
	MovedBack    int `json:"moved_back" yaml:"moved_back"`

	Rows   []ResultRow    `json:"rows" yaml:"rows"`
	Sweeps []*SweepResult `json:"sweeps,omitempty" yaml:"sweeps,omitempty"`

	EvaluationDate      time.Time     `json:"evaluation_date" yaml:"evaluation_date"`
	TotalProcessingTime time.Duration `json:"total_processing_time" yaml:"total_processing_time"`
}

// NewAggregateResults creates an empty results table for a run
func NewAggregateResults(cfg RunConfig) *AggregateResults {
	return &AggregateResults{
		Config:         cfg,
		Rows:           []ResultRow{},
		EvaluationDate: time.Now(),
	}
}

// Append adds a row to the end of the table and returns it
func (a *AggregateResults) Append(label, method string, rmse float64) ResultRow {
	row := ResultRow{Label: label, Method: method, RMSE: rmse}
	a.Rows = append(a.Rows, row)
	return row
}

// AddSweep records a completed lambda sweep
func (a *AggregateResults) AddSweep(sweep *SweepResult) {
	a.Sweeps = append(a.Sweeps, sweep)
}

// Best returns the row with the lowest RMSE, first one on ties
func (a *AggregateResults) Best() (ResultRow, bool) {
	if len(a.Rows) == 0 {
		return ResultRow{}, false
	}

	best := a.Rows[0]
	for _, row := range a.Rows[1:] {
		if row.RMSE < best.RMSE {
			best = row
		}
	}
	return best, true
}

// PrintSummary writes a human-readable summary of the run
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "MOVIELENS BIAS MODEL EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Ratings: %s\n", a.Config.RatingsPath)
	fmt.Fprintf(w, "Held-out Fraction: %.2f (seed %d)\n", a.Config.HoldoutFraction, a.Config.Seed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SPLIT STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total Records: %d\n", a.TotalRecords)
	fmt.Fprintf(w, "Training: %d\n", a.TrainSize)
	fmt.Fprintf(w, "Held-out: %d\n", a.HoldoutSize)
	fmt.Fprintf(w, "Moved back to training: %d\n", a.MovedBack)
	fmt.Fprintf(w, "Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RESULTS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	WriteTable(w, a.Rows)

	for _, sweep := range a.Sweeps {
		fmt.Fprintf(w, "\nLambda sweep (%s stage): best lambda %.2f, RMSE %.5f over %d candidates\n",
			sweep.Stage, sweep.Best.Lambda, sweep.Best.RMSE, len(sweep.Points))
	}

	if best, ok := a.Best(); ok {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Best Model: %s (%s) RMSE %.5f\n", best.Label, best.Method, best.RMSE)
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// WriteTable writes rows as an aligned text table
func WriteTable(w io.Writer, rows []ResultRow) {
	labelWidth, methodWidth := len("Label"), len("Method")
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		methodWidth = max(methodWidth, len(row.Method))
	}

	fmt.Fprintf(w, "%-*s  %-*s  %s\n", labelWidth, "Label", methodWidth, "Method", "RMSE")
	for _, row := range rows {
		fmt.Fprintf(w, "%-*s  %-*s  %.5f\n", labelWidth, row.Label, methodWidth, row.Method, row.RMSE)
	}
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}
