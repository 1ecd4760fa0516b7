package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendKeepsEvaluationOrder(t *testing.T) {
	agg := NewAggregateResults(RunConfig{HoldoutFraction: 0.1, Seed: 1})

	agg.Append("Model 1", "Just the average", 1.06)
	agg.Append("Model 2", "Movie Effect", 0.94)
	row := agg.Append("Model 3", "Movie + User Effects", 0.86)

	if row.Label != "Model 3" {
		t.Errorf("Expected appended row to be returned, got %+v", row)
	}

	if len(agg.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(agg.Rows))
	}

	for i, want := range []string{"Just the average", "Movie Effect", "Movie + User Effects"} {
		if agg.Rows[i].Method != want {
			t.Errorf("Row %d: expected %q, got %q", i, want, agg.Rows[i].Method)
		}
	}
}

func TestBest(t *testing.T) {
	tests := []struct {
		name      string
		rmses     []float64
		wantLabel string
		wantOK    bool
	}{
		{name: "empty table", wantOK: false},
		{name: "single row", rmses: []float64{1}, wantLabel: "Model 1", wantOK: true},
		{name: "lowest wins", rmses: []float64{1.06, 0.86, 0.94}, wantLabel: "Model 2", wantOK: true},
		{name: "first of ties", rmses: []float64{0.9, 0.8, 0.8}, wantLabel: "Model 2", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregateResults(RunConfig{})
			for i, r := range tt.rmses {
				agg.Append(fmt.Sprintf("Model %d", i+1), "m", r)
			}

			best, ok := agg.Best()
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && best.Label != tt.wantLabel {
				t.Errorf("Expected %s, got %s", tt.wantLabel, best.Label)
			}
		})
	}
}

func TestPrintSummary(t *testing.T) {
	agg := NewAggregateResults(RunConfig{RatingsPath: "ratings.dat", HoldoutFraction: 0.1, Seed: 1})
	agg.TotalRecords = 100
	agg.Append("Model 1", "Just the average", 1.06)
	agg.Append("Model 2", "Movie Effect", 0.94)
	agg.AddSweep(&SweepResult{Stage: "user", Points: []SweepPoint{{Lambda: 0, RMSE: 1}}, Best: SweepPoint{Lambda: 0, RMSE: 1}})

	var buf bytes.Buffer
	agg.PrintSummary(&buf)
	out := buf.String()

	for _, want := range []string{"Just the average", "Movie Effect", "0.94000", "Best Model: Model 2", "user stage"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q\n%s", want, out)
		}
	}
}

func TestSaveToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "results.json")

	agg := NewAggregateResults(RunConfig{HoldoutFraction: 0.1, Seed: 1, Lambdas: []float64{0, 0.25}})
	agg.Append("Model 1", "Just the average", 1.06)

	if err := agg.SaveToJSON(jsonPath); err != nil {
		t.Fatalf("SaveToJSON failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON file: %v", err)
	}

	var decoded AggregateResults
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if len(decoded.Rows) != 1 || decoded.Rows[0].RMSE != 1.06 {
		t.Errorf("Unexpected rows in JSON: %+v", decoded.Rows)
	}
}
