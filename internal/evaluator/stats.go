package evaluator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/enerqual/dqetl/pkg/models"
)

// NumericSummary holds descriptive statistics for one numeric column,
// computed over non-missing, parseable values only.
type NumericSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// SummarizeColumn computes descriptive statistics for a numeric column.
// The second return is false when the column is absent or carries no
// numeric values.
func (e *Evaluator) SummarizeColumn(ds *models.Dataset, column string) (NumericSummary, bool) {
	values, ok := ds.Column(column)
	if !ok {
		return NumericSummary{}, false
	}

	floats := make([]float64, 0, len(values))
	for _, val := range values {
		if f, numeric := val.Float(); numeric {
			floats = append(floats, f)
		}
	}
	if len(floats) == 0 {
		return NumericSummary{}, false
	}

	min := floats[0]
	max := floats[0]
	for _, f := range floats {
		min = math.Min(min, f)
		max = math.Max(max, f)
	}

	summary := NumericSummary{
		Count: len(floats),
		Mean:  stat.Mean(floats, nil),
		Min:   min,
		Max:   max,
	}
	if len(floats) > 1 {
		summary.StdDev = stat.StdDev(floats, nil)
	}
	return summary, true
}

// OutlierCount counts values further than k standard deviations from the
// column mean. Used for reporting only; outlier handling itself belongs
// to the improvement business rules.
func (e *Evaluator) OutlierCount(ds *models.Dataset, column string, k float64) int {
	values, ok := ds.Column(column)
	if !ok {
		return 0
	}

	floats := make([]float64, 0, len(values))
	for _, val := range values {
		if f, numeric := val.Float(); numeric {
			floats = append(floats, f)
		}
	}
	if len(floats) < 2 {
		return 0
	}

	mean := stat.Mean(floats, nil)
	stdDev := stat.StdDev(floats, nil)
	if stdDev == 0 {
		return 0
	}

	count := 0
	for _, f := range floats {
		if math.Abs(f-mean) > k*stdDev {
			count++
		}
	}
	return count
}
