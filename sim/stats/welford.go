// Package stats holds the one-pass statistical accumulators fed by the
// simulation's event stream. It has no dependency on sim/: every accumulator
// is a plain value updated by explicit calls.
package stats

import "math"

// Welford accumulates count, mean, variance, min and max in one pass.
// The zero value is ready to use.
type Welford struct {
	n    int64
	mean float64
	m2   float64
	min  float64
	max  float64
}

// Add folds x into the running statistics.
func (w *Welford) Add(x float64) {
	w.n++
	if w.n == 1 {
		w.min, w.max = x, x
	} else {
		w.min = math.Min(w.min, x)
		w.max = math.Max(w.max, x)
	}
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

// Count returns the number of observations.
func (w *Welford) Count() int64 { return w.n }

// Mean returns the sample mean, 0 when empty.
func (w *Welford) Mean() float64 { return w.mean }

// Variance returns the unbiased sample variance, 0 for fewer than two observations.
func (w *Welford) Variance() float64 {
	if w.n < 2 {
		return 0
	}
	return w.m2 / float64(w.n-1)
}

// StdDev returns sqrt(Variance()).
func (w *Welford) StdDev() float64 { return math.Sqrt(w.Variance()) }

// Min returns the smallest observation, 0 when empty.
func (w *Welford) Min() float64 { return w.min }

// Max returns the largest observation, 0 when empty.
func (w *Welford) Max() float64 { return w.max }
