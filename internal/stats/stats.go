// Package stats holds the comparison metrics used when evaluating model
// output against observations.
package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLength is returned when paired series differ in length.
	ErrLength = errors.New("series length mismatch")
	// ErrTooShort is returned when a series has too few valid points.
	ErrTooShort = errors.New("not enough valid points")
	// ErrZeroMean is returned when a relative metric divides by a zero mean.
	ErrZeroMean = errors.New("observation mean is zero")
)

// pairs drops every index where either series is NaN.
func pairs(obs, mod []float64) ([]float64, []float64, error) {
	if len(obs) != len(mod) {
		return nil, nil, fmt.Errorf("%w: %d obs vs %d model", ErrLength, len(obs), len(mod))
	}
	o := make([]float64, 0, len(obs))
	m := make([]float64, 0, len(mod))
	for i := range obs {
		if math.IsNaN(obs[i]) || math.IsNaN(mod[i]) {
			continue
		}
		o = append(o, obs[i])
		m = append(m, mod[i])
	}
	return o, m, nil
}

// MeanBiasError returns the percentage mean bias of mod relative to obs:
// 100 * mean(mod - obs) / mean(obs).
func MeanBiasError(obs, mod []float64) (float64, error) {
	o, m, err := pairs(obs, mod)
	if err != nil {
		return 0, err
	}
	if len(o) == 0 {
		return 0, ErrTooShort
	}
	om := stat.Mean(o, nil)
	if om == 0 {
		return 0, ErrZeroMean
	}
	d := make([]float64, len(m))
	floats.SubTo(d, m, o)
	return 100 * stat.Mean(d, nil) / om, nil
}

// Correlation returns the Pearson correlation coefficient of obs and mod.
func Correlation(obs, mod []float64) (float64, error) {
	o, m, err := pairs(obs, mod)
	if err != nil {
		return 0, err
	}
	if len(o) < 2 {
		return 0, ErrTooShort
	}
	return stat.Correlation(o, m, nil), nil
}

// Valid returns the non-NaN values of xs.
func Valid(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// MeanStd returns the NaN-skipping mean and population standard deviation
// of xs. Both are NaN when xs has no valid values.
func MeanStd(xs []float64) (mean, std float64) {
	v := Valid(xs)
	if len(v) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(v, nil)
}

// Mean returns the NaN-skipping mean of xs.
func Mean(xs []float64) float64 {
	m, _ := MeanStd(xs)
	return m
}

// Quantiles returns the p-quantiles of the non-NaN values in xs, linearly
// interpolating between order statistics (Hyndman and Fan type 7).
// gonum's stat.Quantile offers the empirical and type 4 estimators only.
func Quantiles(xs []float64, ps ...float64) ([]float64, error) {
	v := Valid(xs)
	if len(v) == 0 {
		return nil, ErrTooShort
	}
	slices.Sort(v)
	out := make([]float64, len(ps))
	n := len(v)
	for i, p := range ps {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("quantile %v out of range [0, 1]", p)
		}
		h := float64(n-1) * p
		lo := int(math.Floor(h))
		if lo >= n-1 {
			out[i] = v[n-1]
			continue
		}
		out[i] = v[lo] + (h-float64(lo))*(v[lo+1]-v[lo])
	}
	return out, nil
}

// PercentBias returns 100 * (mod - obs) / obs element-wise.
func PercentBias(mod, obs []float64) ([]float64, error) {
	if len(mod) != len(obs) {
		return nil, fmt.Errorf("%w: %d model vs %d obs", ErrLength, len(mod), len(obs))
	}
	out := make([]float64, len(mod))
	for i := range mod {
		out[i] = 100 * (mod[i] - obs[i]) / obs[i]
	}
	return out, nil
}

// PercentBiasBand propagates the model and observation standard deviations
// into an uncertainty on the percent bias:
// 100 * sqrt((σm/o)² + (σo·m/o²)²).
func PercentBiasBand(modMean, modStd, obsMean, obsStd []float64) ([]float64, error) {
	n := len(modMean)
	if len(modStd) != n || len(obsMean) != n || len(obsStd) != n {
		return nil, ErrLength
	}
	out := make([]float64, n)
	for i := range out {
		o := obsMean[i]
		a := modStd[i] / o
		b := obsStd[i] * modMean[i] / (o * o)
		out[i] = 100 * math.Sqrt(a*a+b*b)
	}
	return out, nil
}

// Summary describes the range of a data set for diagnostic logging.
type Summary struct {
	Min, Max float64
	NaNs     int
	Count    int
}

// Summarize computes the Summary of xs.
func Summarize(xs []float64) Summary {
	v := Valid(xs)
	s := Summary{NaNs: len(xs) - len(v), Count: len(xs), Min: math.NaN(), Max: math.NaN()}
	if len(v) > 0 {
		s.Min = floats.Min(v)
		s.Max = floats.Max(v)
	}
	return s
}

// LogAttrs returns the summary as slog key/value pairs.
func (s Summary) LogAttrs(prefix string) []any {
	return []any{
		prefix + "_min", s.Min,
		prefix + "_max", s.Max,
		prefix + "_nan", s.NaNs,
	}
}
