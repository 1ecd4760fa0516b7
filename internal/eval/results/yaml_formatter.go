package results

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

const (
	// YAMLFile is the results file name inside an output directory
	YAMLFile = "results.yaml"
	// JSONFile is the JSON copy written next to it
	JSONFile = "results.json"
)

// SaveToYAML writes results to outputDir/results.yaml and returns the path
func SaveToYAML(outputDir string, agg *metrics.AggregateResults) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := yaml.Marshal(agg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	path := filepath.Join(outputDir, YAMLFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return path, nil
}

// Save writes both the YAML and JSON results files into outputDir
func Save(outputDir string, agg *metrics.AggregateResults) error {
	if _, err := SaveToYAML(outputDir, agg); err != nil {
		return err
	}

	if err := agg.SaveToJSON(filepath.Join(outputDir, JSONFile)); err != nil {
		return err
	}

	return nil
}

// Load reads results from a results.yaml file, or from the results.yaml
// inside path when path is a directory
func Load(path string) (*metrics.AggregateResults, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat results: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, YAMLFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var agg metrics.AggregateResults
	if err := yaml.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	return &agg, nil
}
