package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is a two-sided Student-t confidence interval around a sample mean.
type Interval struct {
	Mean      float64
	HalfWidth float64
	Level     float64
	N         int64
}

// Lower returns Mean - HalfWidth.
func (iv Interval) Lower() float64 { return iv.Mean - iv.HalfWidth }

// Upper returns Mean + HalfWidth.
func (iv Interval) Upper() float64 { return iv.Mean + iv.HalfWidth }

// Contains reports whether x lies inside the interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Lower() && x <= iv.Upper()
}

func (iv Interval) String() string {
	return fmt.Sprintf("%.4f ± %.4f (%.0f%%, n=%d)", iv.Mean, iv.HalfWidth, iv.Level*100, iv.N)
}

// ConfidenceInterval builds an interval from the observations held by w.
// With fewer than two observations the half-width is +Inf.
func ConfidenceInterval(w *Welford, level float64) (Interval, error) {
	if level <= 0 || level >= 1 {
		return Interval{}, fmt.Errorf("confidence level must be in (0,1), got %f", level)
	}
	iv := Interval{Mean: w.Mean(), Level: level, N: w.Count()}
	if w.Count() < 2 {
		iv.HalfWidth = math.Inf(1)
		return iv, nil
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(w.Count() - 1)}
	crit := t.Quantile(1 - (1-level)/2)
	iv.HalfWidth = crit * w.StdDev() / math.Sqrt(float64(w.Count()))
	return iv, nil
}

// SampleInterval is ConfidenceInterval over a slice of observations.
func SampleInterval(xs []float64, level float64) (Interval, error) {
	var w Welford
	for _, x := range xs {
		w.Add(x)
	}
	return ConfidenceInterval(&w, level)
}
