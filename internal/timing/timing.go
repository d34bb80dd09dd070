// Package timing measures inference latencies and summarizes them.
package timing

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyInput is returned when statistics are requested over zero samples.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidArgument is returned for nil buffers or callbacks.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Output is the writer PrintTimings writes to. Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Summary holds latency statistics in milliseconds.
type Summary struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_ms"`
	StdDev float64 `json:"sd_ms"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	Median float64 `json:"median_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
}

// String formats the summary as a single line.
func (s Summary) String() string {
	return fmt.Sprintf("[%s] mean=%.2fms, sd=%.2fms, min=%.2fms, max=%.2fms, median=%.2fms, 95p=%.2fms, 99p=%.2fms",
		s.Name, s.Mean, s.StdDev, s.Min, s.Max, s.Median, s.P95, s.P99)
}

// Summarize converts timings from seconds to milliseconds and computes the
// mean, population standard deviation, min, max, median, 95th and 99th percentiles.
func Summarize(name string, timings []float64) (Summary, error) {
	if len(timings) == 0 {
		return Summary{}, fmt.Errorf("summarize %q: %w", name, ErrEmptyInput)
	}

	ms := make([]float64, len(timings))
	floats.ScaleTo(ms, 1e3, timings)

	mean, std := stat.PopMeanStdDev(ms, nil)
	sorted := slices.Clone(ms)
	slices.Sort(sorted)

	return Summary{
		Name:   name,
		Count:  len(ms),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(ms),
		Max:    floats.Max(ms),
		Median: Percentile(sorted, 50),
		P95:    Percentile(sorted, 95),
		P99:    Percentile(sorted, 99),
	}, nil
}

// Percentile returns the p-th percentile (0..100) of an ascending slice,
// interpolating linearly between the two closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// PrintTimings writes the latency summary line for name to Output.
func PrintTimings(name string, timings []float64) error {
	return Fprint(Output, name, timings)
}

// Fprint writes the latency summary line for name to w.
func Fprint(w io.Writer, name string, timings []float64) error {
	summary, err := Summarize(name, timings)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, summary.String())
	return err
}
