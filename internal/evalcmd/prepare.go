package evalcmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/moviebias/internal/config"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/dataset"
)

func executePrepare(cfg *config.Config, cachePath string, out io.Writer) error {
	if !strings.EqualFold(filepath.Ext(cachePath), ".parquet") {
		return fmt.Errorf("cache path must end in .parquet: %s", cachePath)
	}
	if filepath.Clean(cachePath) == filepath.Clean(cfg.RatingsPath) {
		return fmt.Errorf("cache path %s would overwrite the input", cachePath)
	}

	records, err := loadRecords(cfg)
	if err != nil {
		return err
	}

	slog.Info("Writing parquet cache", "path", cachePath, "records", len(records))
	if err := dataset.SaveParquet(cachePath, records); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %d joined records to %s\n", len(records), cachePath)
	fmt.Fprintf(out, "\nUse it with:\n")
	fmt.Fprintf(out, "  moviebias run --ratings %s\n", cachePath)

	return nil
}
