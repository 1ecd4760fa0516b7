package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/lehigh-university-libraries/moviebias/internal/eval/metrics"
	"github.com/lehigh-university-libraries/moviebias/internal/eval/results"
)

func executeReport(resultsPath, format string, sweeps bool, out io.Writer) error {
	agg, err := results.Load(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(agg, sweeps, out)
	case "json":
		return printJSONReport(agg, sweeps, out)
	case "csv":
		if sweeps {
			return printSweepCSV(agg, out)
		}
		return printCSVReport(agg, out)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(agg *metrics.AggregateResults, sweeps bool, out io.Writer) error {
	if !sweeps {
		agg.PrintSummary(out)
		return nil
	}

	for _, sweep := range agg.Sweeps {
		fmt.Fprintf(out, "Lambda sweep (%s stage)\n", sweep.Stage)
		for _, p := range sweep.Points {
			marker := ""
			if p.Lambda == sweep.Best.Lambda {
				marker = "  <- best"
			}
			fmt.Fprintf(out, "  %6.2f  %.5f%s\n", p.Lambda, p.RMSE, marker)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func printJSONReport(agg *metrics.AggregateResults, sweeps bool, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if sweeps {
		return encoder.Encode(agg.Sweeps)
	}
	return encoder.Encode(agg)
}

func printCSVReport(agg *metrics.AggregateResults, out io.Writer) error {
	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"Label", "Method", "RMSE"}); err != nil {
		return err
	}

	for _, row := range agg.Rows {
		record := []string{row.Label, row.Method, formatFloat(row.RMSE)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func printSweepCSV(agg *metrics.AggregateResults, out io.Writer) error {
	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"Stage", "Lambda", "RMSE", "Best"}); err != nil {
		return err
	}

	for _, sweep := range agg.Sweeps {
		for _, p := range sweep.Points {
			record := []string{
				sweep.Stage,
				formatFloat(p.Lambda),
				formatFloat(p.RMSE),
				strconv.FormatBool(p.Lambda == sweep.Best.Lambda),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
