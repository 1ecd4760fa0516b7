package metrics

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmpty is returned when RMSE is asked to score zero observations
var ErrEmpty = errors.New("no observations to score")

// DimensionMismatchError reports truth and prediction slices of different length
type DimensionMismatchError struct {
	Truth     int
	Predicted int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %d true values vs %d predictions", e.Truth, e.Predicted)
}

// RMSE returns sqrt(mean((truth-pred)^2)). The slices must be aligned and of
// equal length; they are never truncated or padded.
func RMSE(truth, pred []float64) (float64, error) {
	if len(truth) != len(pred) {
		return 0, &DimensionMismatchError{Truth: len(truth), Predicted: len(pred)}
	}
	if len(truth) == 0 {
		return 0, ErrEmpty
	}

	var sum float64
	for i := range truth {
		d := truth[i] - pred[i]
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(truth))), nil
}
