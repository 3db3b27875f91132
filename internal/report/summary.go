// Package report summarises pipeline outputs as numbers and charts: value
// distributions with gonum/plot and per-region grade breakdowns with
// go-echarts.
package report

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoValues is returned when there is nothing to summarise.
var ErrNoValues = errors.New("no values to summarise")

// Summary describes a distribution.
type Summary struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P95    float64
}

// String formats the summary for logs.
func (s Summary) String() string {
	return fmt.Sprintf("n=%d sum=%.4g min=%.4g max=%.4g mean=%.4g median=%.4g p95=%.4g",
		s.Count, s.Sum, s.Min, s.Max, s.Mean, s.Median, s.P95)
}

// Summarize computes count, extrema, mean, median and 95th percentile.
// The input slice is not modified.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoValues
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Count:  len(sorted),
		Sum:    floats.Sum(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}, nil
}
