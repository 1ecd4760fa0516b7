package evalcmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/moviebias/internal/config"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/metrics"
)

func executeDescribe(cfg *config.Config, format string, top int, out io.Writer) error {
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	records, err := loadRecords(cfg)
	if err != nil {
		return err
	}

	desc, err := metrics.Describe(records)
	if err != nil {
		return fmt.Errorf("failed to describe dataset: %w", err)
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(desc)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(desc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	default:
		desc.Print(out, top)
		return nil
	}
}
