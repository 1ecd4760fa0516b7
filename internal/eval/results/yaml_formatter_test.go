package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/metrics"
)

func TestSaveAndLoad(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "run")

	agg := metrics.NewAggregateResults(metrics.RunConfig{
		RatingsPath:     "ml-10M100K/ratings.dat",
		HoldoutFraction: 0.1,
		Seed:            1,
		Lambdas:         []float64{0, 0.25, 0.5},
	})
	agg.Append("Model 1", "Just the average", 1.0612)
	agg.Append("Model 2", "Movie Effect", 0.9439)
	agg.AddSweep(&metrics.SweepResult{
		Stage:  "user",
		Points: []metrics.SweepPoint{{Lambda: 0, RMSE: 0.87}, {Lambda: 0.25, RMSE: 0.86}},
		Best:   metrics.SweepPoint{Lambda: 0.25, RMSE: 0.86},
	})
	agg.TotalProcessingTime = 90 * time.Second

	if err := Save(outputDir, agg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for _, name := range []string{YAMLFile, JSONFile} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}

	loaded, err := Load(outputDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Rows) != 2 || loaded.Rows[1].Method != "Movie Effect" || loaded.Rows[1].RMSE != 0.9439 {
		t.Errorf("Unexpected rows: %+v", loaded.Rows)
	}
	if len(loaded.Sweeps) != 1 || loaded.Sweeps[0].Best.Lambda != 0.25 {
		t.Errorf("Unexpected sweeps: %+v", loaded.Sweeps)
	}
	if loaded.TotalProcessingTime != agg.TotalProcessingTime {
		t.Errorf("Expected duration %s, got %s", agg.TotalProcessingTime, loaded.TotalProcessingTime)
	}

	// Loading the file directly works too
	if _, err := Load(filepath.Join(outputDir, YAMLFile)); err != nil {
		t.Errorf("Load from file path failed: %v", err)
	}
}

func TestSavedKeysMatchAcrossFormats(t *testing.T) {
	outputDir := t.TempDir()

	agg := metrics.NewAggregateResults(metrics.RunConfig{HoldoutFraction: 0.1, Seed: 1})
	agg.TotalRecords = 10
	agg.MovedBack = 1
	agg.Append("Model 1", "Just the average", 1.0)

	if err := Save(outputDir, agg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	yamlData, err := os.ReadFile(filepath.Join(outputDir, YAMLFile))
	if err != nil {
		t.Fatalf("Failed to read YAML: %v", err)
	}
	jsonData, err := os.ReadFile(filepath.Join(outputDir, JSONFile))
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	for _, key := range []string{"total_records", "moved_back", "holdout_fraction", "evaluation_date", "total_processing_time"} {
		if !strings.Contains(string(yamlData), key+":") {
			t.Errorf("Expected YAML key %q, got:\n%s", key, yamlData)
		}
		if !strings.Contains(string(jsonData), `"`+key+`"`) {
			t.Errorf("Expected JSON key %q, got:\n%s", key, jsonData)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing results, got nil")
	}
}
