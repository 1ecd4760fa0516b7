// Package config resolves run settings from built-in defaults, an optional
// YAML file, MOVIEBIAS_* environment variables and command-line overrides, in
// that order.
package config

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "MOVIEBIAS_"

// Config holds the settings of a run
type Config struct {
	RatingsPath string `koanf:"ratings"`
	MoviesPath  string `koanf:"movies"`
	OutputDir   string `koanf:"output"`

	HoldoutFraction float64 `koanf:"holdout_fraction"`
	Seed            uint64  `koanf:"seed"`

	LambdaStart float64 `koanf:"lambda_start"`
	LambdaEnd   float64 `koanf:"lambda_end"`
	LambdaStep  float64 `koanf:"lambda_step"`

	Concurrency int `koanf:"concurrency"`
	Sample      int `koanf:"sample"` // 0 loads every rating
}

// Default returns the reference settings: 10% held out, seed 1 and
// lambda from 0 to 10 in steps of 0.25
func Default() *Config {
	return &Config{
		RatingsPath:     "./ml-10M100K/ratings.dat",
		MoviesPath:      "./ml-10M100K/movies.dat",
		OutputDir:       "./eval_results",
		HoldoutFraction: 0.10,
		Seed:            1,
		LambdaStart:     0,
		LambdaEnd:       10,
		LambdaStep:      0.25,
		Concurrency:     runtime.NumCPU(),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the environment and finally overrides, which map config
// keys such as "lambda_step" to values. String override values are parsed
// into the field's type.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// envKey maps MOVIEBIAS_LAMBDA_STEP to lambda_step
func envKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if c.RatingsPath == "" {
		errs = append(errs, errors.New("ratings path is required"))
	}
	if !finite(c.HoldoutFraction) || c.HoldoutFraction <= 0 || c.HoldoutFraction >= 1 {
		errs = append(errs, fmt.Errorf("holdout fraction must be in (0, 1), got %v", c.HoldoutFraction))
	}

	lambdasFinite := true
	bounds := []struct {
		name string
		v    float64
	}{{"start", c.LambdaStart}, {"end", c.LambdaEnd}, {"step", c.LambdaStep}}
	for _, b := range bounds {
		if !finite(b.v) {
			errs = append(errs, fmt.Errorf("lambda %s must be finite, got %v", b.name, b.v))
			lambdasFinite = false
		}
	}
	if lambdasFinite {
		if c.LambdaStart < 0 {
			errs = append(errs, fmt.Errorf("lambda start must be non-negative, got %v", c.LambdaStart))
		}
		if c.LambdaEnd < c.LambdaStart {
			errs = append(errs, fmt.Errorf("lambda end %v is below lambda start %v", c.LambdaEnd, c.LambdaStart))
		}
		if c.LambdaStep <= 0 {
			errs = append(errs, fmt.Errorf("lambda step must be positive, got %v", c.LambdaStep))
		}
	}

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Sample < 0 {
		errs = append(errs, fmt.Errorf("sample must be non-negative, got %d", c.Sample))
	}

	return errors.Join(errs...)
}
